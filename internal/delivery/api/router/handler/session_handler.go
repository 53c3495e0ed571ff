package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/response"
	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase"
)

// SessionHandlerParams holds dependencies for SessionHandler, injected by Fx.
type SessionHandlerParams struct {
	fx.In

	SessionUC usecase.SessionUsecase
	Carrier   service.SessionCarrier
	Logger    *slog.Logger
}

// SessionHandler holds dependencies for session management handlers
type SessionHandler struct {
	sessionUC usecase.SessionUsecase
	carrier   service.SessionCarrier
	logger    *slog.Logger
}

// NewSessionHandler is the constructor for SessionHandler
func NewSessionHandler(params SessionHandlerParams) *SessionHandler {
	return &SessionHandler{
		sessionUC: params.SessionUC,
		carrier:   params.Carrier,
		logger:    params.Logger,
	}
}

// ListSessions handles listing the caller's active sessions
func (h *SessionHandler) ListSessions(c echo.Context) error {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return response.AppError(c, domainerrors.ErrUnauthenticated)
	}
	current, _ := deliverycontext.GetSessionID(c)

	sessions, err := h.sessionUC.ListSessions(c.Request().Context(), principal.ID, current)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, sessions)
}

// GetSessionStatistics handles the session summary of the caller
func (h *SessionHandler) GetSessionStatistics(c echo.Context) error {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return response.AppError(c, domainerrors.ErrUnauthenticated)
	}

	stats, err := h.sessionUC.GetSessionStatistics(c.Request().Context(), principal.ID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, stats)
}

// RevokeSession handles revoking one of the caller's sessions
func (h *SessionHandler) RevokeSession(c echo.Context) error {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return response.AppError(c, domainerrors.ErrUnauthenticated)
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid session ID")
	}

	if err := h.sessionUC.RevokeSession(c.Request().Context(), principal.ID, sessionID); err != nil {
		return response.HandleAppError(c, err)
	}

	if current, _ := deliverycontext.GetSessionID(c); current == sessionID {
		c.SetCookie(h.carrier.ClearCookie())
	}

	return response.Success(c, http.StatusOK, map[string]any{"sessionId": sessionID, "revoked": true})
}

// RevokeOtherSessions handles signing out every other device of the caller
func (h *SessionHandler) RevokeOtherSessions(c echo.Context) error {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return response.AppError(c, domainerrors.ErrUnauthenticated)
	}
	current, _ := deliverycontext.GetSessionID(c)

	revoked, err := h.sessionUC.RevokeAllOtherSessions(c.Request().Context(), principal.ID, current)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"revoked": revoked})
}

// RevokePrincipalSessions handles an administrator signing a principal out everywhere
func (h *SessionHandler) RevokePrincipalSessions(c echo.Context) error {
	principalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid principal ID")
	}

	revoked, err := h.sessionUC.RevokeAllSessions(c.Request().Context(), principalID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	if admin, ok := deliverycontext.GetPrincipal(c); ok {
		deliverycontext.LoggerFrom(c.Request().Context(), h.logger).Info("Sessions revoked by administrator",
			slog.Any("admin_id", admin.ID), slog.Any("principal_id", principalID), slog.Int("revoked", revoked))
		if admin.ID == principalID {
			c.SetCookie(h.carrier.ClearCookie())
		}
	}

	return response.Success(c, http.StatusOK, map[string]int{"revoked": revoked})
}
