// Package worker is the maintenance delivery. It removes credential records past
// retention and consumes pushed security events into the audit log.
package worker

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/middleware"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/worker/handler"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/lifecycle"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
)

type workerServer struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *echo.Echo
	cleanup *handler.CleanupHandler
	loopCtx context.Context
	cancel  context.CancelFunc
}

// ServerParams holds dependencies for the worker server
type ServerParams struct {
	fx.In

	Lc             fx.Lifecycle
	Cfg            *config.Config
	Logger         *slog.Logger
	Metrics        *metrics.AuthMetrics `optional:"true"`
	CleanupHandler *handler.CleanupHandler
	AuditHandler   *handler.AuditHandler
}

// NewServer creates a new worker HTTP server
func NewServer(params ServerParams) (delivery.Delivery, error) {
	loopCtx, cancel := context.WithCancel(context.Background())
	srv := &workerServer{
		cfg:     params.Cfg,
		logger:  params.Logger,
		server:  NewEcho(params.Cfg, params.Logger, params.Metrics, params.CleanupHandler, params.AuditHandler),
		cleanup: params.CleanupHandler,
		loopCtx: loopCtx,
		cancel:  cancel,
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// NewEcho builds the worker routes.
func NewEcho(cfg *config.Config, logger *slog.Logger, authMetrics *metrics.AuthMetrics, cleanup *handler.CleanupHandler, audit *handler.AuditHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Set up middleware in correct order
	// 1. Recover middleware first (to catch panics early)
	e.Use(echomiddleware.Recover())

	// 2. Request ID middleware (must be before logger to include in logs)
	requestIDMiddleware := middleware.NewRequestIDMiddleware(logger)
	e.Use(requestIDMiddleware.Process)

	// 3. Observer middleware
	observerMiddleware := middleware.NewObserverMiddleware(logger, authMetrics, cfg)
	e.Use(observerMiddleware.Handle)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if authMetrics != nil && cfg.Metrics != nil && cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(authMetrics.Handler()))
	}

	// Scheduler trigger
	e.POST("/jobs/cleanup", cleanup.HandleCleanup)

	// Pub/Sub push endpoint
	e.POST("/push/security-events", audit.HandlePush)

	return e
}

// Serve starts the worker HTTP server and, when configured, the cleanup timer
func (s *workerServer) Serve(ctx context.Context) error {
	if interval := s.cfg.Worker.CleanupInterval; interval > 0 {
		go s.cleanup.Run(s.loopCtx, interval)
		s.logger.Info("Credential cleanup scheduled", slog.Duration("interval", interval))
	}

	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.Worker.Port))
	s.logger.Info("Starting Worker HTTP server", slog.String("host_port", hostPort))
	if err := s.server.Start(hostPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}

	return nil
}

// stop gracefully shuts down the worker server
func (s *workerServer) stop(ctx context.Context) error {
	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down Worker HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
