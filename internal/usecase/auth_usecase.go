// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
)

// LoginInput holds the credentials and client details of a login attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	RemoteIP  string
}

// LoginOutput is the result of a successful login.
type LoginOutput struct {
	// Carrier is the sealed session value to hand to the client.
	Carrier   string
	Principal entity.PrincipalSnapshot
	SessionID uuid.UUID
	ExpiresAt time.Time
}

// AuthUsecase establishes and ends sessions.
type AuthUsecase interface {
	// Login fails with ErrInvalidCredentials for an unknown email and a wrong password alike.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// Logout revokes the credential behind a carrier. Unusable carriers are ignored.
	Logout(ctx context.Context, carrier string) error

	// LogoutEverywhere revokes every session of the principal and reports how many were active.
	LogoutEverywhere(ctx context.Context, principalID uuid.UUID) (int, error)
}
