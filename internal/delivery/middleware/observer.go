package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
)

// ObserverMiddleware records request metrics and, in debug mode, a detailed request log
type ObserverMiddleware struct {
	logger  *slog.Logger
	metrics *metrics.AuthMetrics
	debug   bool
}

// NewObserverMiddleware creates a new observer middleware. A nil metrics records nothing.
func NewObserverMiddleware(logger *slog.Logger, metrics *metrics.AuthMetrics, config *config.Config) *ObserverMiddleware {
	return &ObserverMiddleware{
		logger:  logger,
		metrics: metrics,
		debug:   config.Env.Debug,
	}
}

// Handle processes request observation
func (m *ObserverMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			// Commit the error response now so the status below is the one sent
			c.Error(err)
		}

		latency := time.Since(start)
		status := c.Response().Status
		m.metrics.ObserveRequest(c.Request().Method, routeOf(c), strconv.Itoa(status), latency.Seconds())

		if m.debug {
			m.logRequest(c, latency, err)
		}

		return nil
	}
}

// logRequest logs request details
func (m *ObserverMiddleware) logRequest(c echo.Context, latency time.Duration, err error) {
	req := c.Request()
	res := c.Response()

	// Prepare log fields
	fields := []slog.Attr{
		slog.String("request_id", deliverycontext.GetRequestID(c)),
		slog.String("method", req.Method),
		slog.String("route", routeOf(c)),
		slog.String("uri", req.URL.Path),
		slog.Int("status", res.Status),
		slog.Duration("latency", latency),
		slog.String("remote_ip", c.RealIP()),
		slog.String("user_agent", req.UserAgent()),
	}

	if principal, ok := deliverycontext.GetPrincipal(c); ok {
		fields = append(fields, slog.Any("principal_id", principal.ID))
	}

	// If there's an error, log error details
	if err != nil {
		fields = append(fields, slog.Any("error", err))
	}

	// Choose log level based on status code
	logLevel := slog.LevelDebug
	if res.Status >= 400 {
		logLevel = slog.LevelWarn
	}
	if res.Status >= 500 {
		logLevel = slog.LevelError
	}

	m.logger.LogAttrs(context.Background(), logLevel, "HTTP Request", fields...)
}

// routeOf returns the registered path pattern, keeping label cardinality bounded.
func routeOf(c echo.Context) string {
	if path := c.Path(); path != "" {
		return path
	}

	return "unmatched"
}
