package entity

import (
	"time"

	"github.com/google/uuid"
)

// Principal is an authenticated identity: an employee, a customer or an administrator.
type Principal struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot returns the subset of the principal that travels inside the session.
func (p *Principal) Snapshot() PrincipalSnapshot {
	return PrincipalSnapshot{
		ID:    p.ID,
		Role:  p.Role,
		Name:  p.Name,
		Email: p.Email,
	}
}
