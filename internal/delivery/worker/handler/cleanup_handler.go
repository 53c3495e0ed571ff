package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase"
)

// CleanupResult is returned to the scheduler after a cleanup run
type CleanupResult struct {
	Deleted int `json:"deleted"`
}

// CleanupHandler deletes credential records past their retention window
type CleanupHandler struct {
	logger    *slog.Logger
	sessionUC usecase.SessionUsecase
}

// CleanupHandlerParams holds dependencies for the CleanupHandler
type CleanupHandlerParams struct {
	fx.In

	Logger    *slog.Logger
	SessionUC usecase.SessionUsecase
}

// NewCleanupHandler creates a new cleanup handler
func NewCleanupHandler(params CleanupHandlerParams) *CleanupHandler {
	return &CleanupHandler{
		logger:    params.Logger,
		sessionUC: params.SessionUC,
	}
}

// HandleCleanup runs one cleanup pass on behalf of an external scheduler.
// A 503 asks the scheduler to retry later.
func (h *CleanupHandler) HandleCleanup(c echo.Context) error {
	ctx := c.Request().Context()
	reqLogger := deliverycontext.LoggerFrom(ctx, h.logger)

	deleted, err := h.sessionUC.CleanupExpiredSessions(ctx)
	if err != nil {
		reqLogger.Error("[Worker] Credential cleanup failed", slog.Any("error", err))

		return c.NoContent(http.StatusServiceUnavailable)
	}

	reqLogger.Info("[Worker] Credential cleanup finished", slog.Int("deleted", deleted))

	return c.JSON(http.StatusOK, CleanupResult{Deleted: deleted})
}

// Run repeats cleanup every interval until ctx is done. Failures are logged and retried on the next tick.
func (h *CleanupHandler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := h.sessionUC.CleanupExpiredSessions(ctx)
			if err != nil {
				h.logger.Error("[Worker] Scheduled credential cleanup failed", slog.Any("error", err))

				continue
			}
			if deleted > 0 {
				h.logger.Info("[Worker] Scheduled credential cleanup finished", slog.Int("deleted", deleted))
			}
		}
	}
}
