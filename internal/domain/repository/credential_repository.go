// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for credential persistence.
var (
	// ErrCredentialNotFound is returned when no usable record matches the lookup.
	ErrCredentialNotFound = errors.New("credential record not found")
	// ErrCredentialSuperseded is returned when a record was already rotated or revoked.
	ErrCredentialSuperseded = errors.New("credential record already superseded")
	// ErrCredentialDuplicate is returned when a fingerprint is stored twice.
	ErrCredentialDuplicate = errors.New("credential fingerprint already exists")
	// ErrSessionLimitReached is returned when a principal already holds the maximum number of sessions.
	ErrSessionLimitReached = errors.New("active session limit reached")
)

// CredentialRepository stores refresh token records keyed by fingerprint.
// Every operation is atomic with respect to concurrent callers; in particular
// Rotate lets exactly one of several concurrent callers succeed for the same record.
type CredentialRepository interface {
	// Create persists a new record. A zero ID is replaced by a generated one.
	Create(ctx context.Context, record *entity.CredentialRecord) error

	// CreateWithLimit persists a new record unless the principal already holds
	// maxActive active records. A non-positive maxActive disables the limit.
	CreateWithLimit(ctx context.Context, record *entity.CredentialRecord, maxActive int) error

	// FindActive returns the unrevoked, unexpired record for the fingerprint.
	FindActive(ctx context.Context, fingerprint string) (*entity.CredentialRecord, error)

	// Rotate marks oldID as replaced by next and persists next in one step.
	// It fails with ErrCredentialSuperseded when oldID is no longer active.
	Rotate(ctx context.Context, oldID uuid.UUID, next *entity.CredentialRecord) error

	// Revoke marks a record revoked. Revoking a revoked record is a no-op.
	Revoke(ctx context.Context, id uuid.UUID) error

	// RevokeSession revokes the active records of one login family owned by the principal.
	RevokeSession(ctx context.Context, principalID, sessionID uuid.UUID) (int, error)

	// RevokeAllForPrincipal revokes every active record of the principal.
	RevokeAllForPrincipal(ctx context.Context, principalID uuid.UUID) (int, error)

	// RevokeAllForPrincipalExcept revokes every active record of the principal outside keepSessionID.
	RevokeAllForPrincipalExcept(ctx context.Context, principalID, keepSessionID uuid.UUID) (int, error)

	// ListActiveByPrincipal returns the active records of the principal, newest first.
	ListActiveByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*entity.CredentialRecord, error)

	// DeleteExpired removes records that expired or were revoked before the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
