package middleware

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
)

const maxRequestIDLength = 128

// RequestIDMiddleware accepts the caller's X-Request-Id when it is usable, mints one otherwise,
// and hands a logger tagged with it to everything downstream.
type RequestIDMiddleware struct {
	logger *slog.Logger
}

func NewRequestIDMiddleware(logger *slog.Logger) *RequestIDMiddleware {
	return &RequestIDMiddleware{
		logger: logger,
	}
}

func (m *RequestIDMiddleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(deliverycontext.HeaderXRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		reqLogger := m.logger.With(
			slog.String("request_id", requestID),
			slog.String("remote_ip", c.RealIP()),
		)
		deliverycontext.AttachRequest(c, requestID, reqLogger)

		return next(c)
	}
}
