// Package context carries request-scoped values between the HTTP delivery and the use cases.
package context

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// KeyRequestID is the key for storing request ID in context.
	KeyRequestID ContextKey = "request_id"

	keyLogger ContextKey = "logger"

	// HeaderXRequestID is the HTTP header name for request ID.
	HeaderXRequestID = "X-Request-Id"
)

// AttachRequest records the request ID on c and its response, and binds the
// ID and the request-scoped logger to the request context.
func AttachRequest(c echo.Context, requestID string, logger *slog.Logger) {
	c.Set(string(KeyRequestID), requestID)
	c.Response().Header().Set(HeaderXRequestID, requestID)

	ctx := WithRequestID(c.Request().Context(), requestID)
	ctx = context.WithValue(ctx, keyLogger, logger)
	c.SetRequest(c.Request().WithContext(ctx))
}

// GetRequestID returns the request ID of c, or the one already echoed on the
// response when the middleware did not run.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(string(KeyRequestID)).(string); ok && id != "" {
		return id
	}

	return c.Response().Header().Get(HeaderXRequestID)
}

// GetRequestIDFromContext returns the request ID bound to ctx, or "".
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(KeyRequestID).(string)

	return id
}

// WithRequestID binds requestID to ctx. Background jobs use it to correlate their logs and events.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, KeyRequestID, requestID)
}

// LoggerFrom returns the request-scoped logger of ctx, falling back to fallback.
func LoggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(keyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return fallback
}
