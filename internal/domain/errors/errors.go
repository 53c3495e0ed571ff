// Package errors defines the error taxonomy the HTTP surface renders. Each
// error carries its status, a stable machine code and a message safe to show.
package errors

import (
	"net/http"

	"github.com/iconic-inc/iconic-erp-sub003/internal/errors"
)

// AppError is an error the delivery layer can render without inspecting it further.
type AppError interface {
	error
	HTTPCode() int
	ErrorCode() string
	Message() string
}

// Error is a predefined AppError. Compare with errors.Is; wrapping keeps the identity.
type Error struct {
	status  int
	code    string
	message string
}

func define(status int, code, message string) *Error {
	return &Error{status: status, code: code, message: message}
}

func (e *Error) Error() string { return e.message }
func (e *Error) HTTPCode() int { return e.status }
func (e *Error) ErrorCode() string { return e.code }
func (e *Error) Message() string { return e.message }

// Authentication.
var (
	ErrInvalidCredentials = define(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrUnauthenticated    = define(http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
	ErrTooManyRequests    = define(http.StatusTooManyRequests, "RATE_LIMITED", "Too many attempts, try again later")
)

// Authorization.
var ErrForbidden = define(http.StatusForbidden, "FORBIDDEN", "Access denied")

// Sessions.
var (
	ErrSessionLimitExceeded  = define(http.StatusTooManyRequests, "SESSION_LIMIT_EXCEEDED", "Maximum number of concurrent sessions reached")
	ErrSessionNotFound       = define(http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
	ErrSessionEncodingFailed = define(http.StatusInternalServerError, "SESSION_ENCODING_FAILED", "Session could not be established")
)

// Storage. Every store outage surfaces as ErrCredentialStoreUnavailable so
// callers never mistake it for an authentication failure.
var (
	ErrCredentialStoreUnavailable = define(http.StatusServiceUnavailable, "CREDENTIAL_STORE_UNAVAILABLE", "Session storage is temporarily unavailable")
	ErrInvalidRecord              = define(http.StatusBadRequest, "INVALID_RECORD", "Record is missing required information")
)

var ErrInternalError = define(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")

// StoreError is a failed statement against the identity or credential store.
// It matches ErrCredentialStoreUnavailable and unwraps to the driver error.
type StoreError struct {
	op  string
	err error
}

// NewStoreError records that op failed with err.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{op: op, err: err}
}

func (e *StoreError) Error() string {
	return errors.Wrap(e.err, e.op).Error()
}

func (e *StoreError) HTTPCode() int { return ErrCredentialStoreUnavailable.status }
func (e *StoreError) ErrorCode() string { return ErrCredentialStoreUnavailable.code }
func (e *StoreError) Message() string { return ErrCredentialStoreUnavailable.message }

func (e *StoreError) Unwrap() error { return e.err }

// Is lets errors.Is(err, ErrCredentialStoreUnavailable) hold for raw store failures.
func (e *StoreError) Is(target error) bool {
	return target == ErrCredentialStoreUnavailable
}
