package repository

import (
	"context"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrPrincipalNotFound is returned when a principal is not found.
var ErrPrincipalNotFound = errors.New("principal not found")

// PrincipalRepository reads the identity store.
type PrincipalRepository interface {
	// FindByID retrieves a principal by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Principal, error)

	// FindByEmail retrieves a principal by login email, compared case-insensitively.
	FindByEmail(ctx context.Context, email string) (*entity.Principal, error)
}

// RoleRepository reads stored role definitions.
type RoleRepository interface {
	// List returns every stored role ordered by slug.
	List(ctx context.Context) ([]*entity.RoleDefinition, error)
}
