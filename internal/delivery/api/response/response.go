// Package response renders the JSON envelope of the session API.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
)

// Session states reported with a 401. Every rejected carrier is "ended", whatever the
// gate's reason, so expiry, revocation and tampering cannot be told apart.
const (
	SessionNone  = "none"
	SessionEnded = "ended"
)

// Envelope wraps every API body.
type Envelope struct {
	Data  any      `json:"data,omitempty"`
	Error *Problem `json:"error,omitempty"`
	Meta  Meta     `json:"meta"`
}

// Problem describes a failed call.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	// Session and LoginURL are set on 401 so clients can re-authenticate without guessing.
	Session  string `json:"session,omitempty"`
	LoginURL string `json:"login_url,omitempty"`
	// Retryable marks throttling and credential store outages: the same call may succeed later.
	Retryable bool `json:"retryable,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id"`
}

func write(c echo.Context, status int, env Envelope) error {
	env.Meta.RequestID = deliverycontext.GetRequestID(c)

	return c.JSON(status, env)
}

// Success renders data with status.
func Success(c echo.Context, status int, data any) error {
	return write(c, status, Envelope{Data: data})
}

// Error renders a problem. Details are kept for client errors other than 401 and 403 only.
func Error(c echo.Context, status int, code, message string, details any) error {
	if status >= http.StatusInternalServerError || status == http.StatusUnauthorized || status == http.StatusForbidden {
		details = nil
	}

	return write(c, status, Envelope{Error: &Problem{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable(status),
	}})
}

// BadRequest rejects malformed input.
func BadRequest(c echo.Context, code, message string) error {
	return Error(c, http.StatusBadRequest, code, message, nil)
}

// BadRequestWithDetails rejects input that failed validation, listing the offending fields.
func BadRequestWithDetails(c echo.Context, code, message string, details any) error {
	return Error(c, http.StatusBadRequest, code, message, details)
}

// AppError renders a domain error with its own status and code.
func AppError(c echo.Context, appErr domainerrors.AppError) error {
	return Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), nil)
}

// Unauthenticated renders the 401 of an API call without a usable session.
func Unauthenticated(c echo.Context, session, loginURL string) error {
	err := domainerrors.ErrUnauthenticated

	return write(c, err.HTTPCode(), Envelope{Error: &Problem{
		Code:     err.ErrorCode(),
		Message:  err.Message(),
		Session:  session,
		LoginURL: loginURL,
	}})
}

// HandleAppError renders err when it is a domain error and hands anything else to
// the central error handler.
func HandleAppError(c echo.Context, err error) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return AppError(c, appErr)
	}

	return errors.WithStack(err)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}
