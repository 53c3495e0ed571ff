package context

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
)

const (
	// KeyPrincipal is the key for storing the authenticated principal.
	KeyPrincipal ContextKey = "principal"

	// KeySessionID is the key for storing the login family of the current request.
	KeySessionID ContextKey = "session_id"

	// KeySessionEnded marks a request whose carrier the gate rejected and cleared.
	KeySessionEnded ContextKey = "session_ended"
)

// SetPrincipal stores the authenticated principal and its session in both echo.Context and the request context.
func SetPrincipal(c echo.Context, principal *entity.PrincipalSnapshot, sessionID uuid.UUID) {
	c.Set(string(KeyPrincipal), principal)
	c.Set(string(KeySessionID), sessionID)

	ctx := WithPrincipal(c.Request().Context(), principal, sessionID)
	c.SetRequest(c.Request().WithContext(ctx))
}

// GetPrincipal extracts the authenticated principal from echo.Context.
func GetPrincipal(c echo.Context) (*entity.PrincipalSnapshot, bool) {
	principal, ok := c.Get(string(KeyPrincipal)).(*entity.PrincipalSnapshot)

	return principal, ok && principal != nil
}

// GetSessionID extracts the session of the authenticated request from echo.Context.
func GetSessionID(c echo.Context) (uuid.UUID, bool) {
	sessionID, ok := c.Get(string(KeySessionID)).(uuid.UUID)

	return sessionID, ok && sessionID != uuid.Nil
}

// MarkSessionEnded records that the request presented a carrier that no longer authenticates.
func MarkSessionEnded(c echo.Context) {
	c.Set(string(KeySessionEnded), true)
}

// SessionEnded reports whether MarkSessionEnded was called for the request.
func SessionEnded(c echo.Context) bool {
	ended, _ := c.Get(string(KeySessionEnded)).(bool)

	return ended
}

// WithPrincipal returns a new context carrying the principal and its session.
func WithPrincipal(ctx context.Context, principal *entity.PrincipalSnapshot, sessionID uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, KeyPrincipal, principal)

	return context.WithValue(ctx, KeySessionID, sessionID)
}

// PrincipalFromContext extracts the principal from context.Context.
// If not found, returns nil.
func PrincipalFromContext(ctx context.Context) *entity.PrincipalSnapshot {
	if principal, ok := ctx.Value(KeyPrincipal).(*entity.PrincipalSnapshot); ok {
		return principal
	}

	return nil
}

// SessionIDFromContext extracts the session id from context.Context.
func SessionIDFromContext(ctx context.Context) uuid.UUID {
	if sessionID, ok := ctx.Value(KeySessionID).(uuid.UUID); ok {
		return sessionID
	}

	return uuid.Nil
}
