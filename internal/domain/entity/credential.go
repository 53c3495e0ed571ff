package entity

import (
	"time"

	"github.com/google/uuid"
)

// CredentialRecord is the persisted form of one issued refresh token.
// Only the fingerprint of the token is stored, never the token itself.
type CredentialRecord struct {
	ID          uuid.UUID
	PrincipalID uuid.UUID
	// SessionID groups every record produced by rotating the same login.
	SessionID   uuid.UUID
	Fingerprint string
	UserAgent   string
	RemoteIP    string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	ReplacedBy  *uuid.UUID
}

// IsRevoked reports whether the record was explicitly revoked or superseded.
func (c *CredentialRecord) IsRevoked() bool {
	return c.RevokedAt != nil
}

// IsActiveAt reports whether the record can still be used at the given instant.
func (c *CredentialRecord) IsActiveAt(now time.Time) bool {
	return !c.IsRevoked() && now.Before(c.ExpiresAt)
}

// SessionInfo is the user facing view of an active login.
type SessionInfo struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"sessionId"`
	UserAgent string    `json:"userAgent,omitempty"`
	RemoteIP  string    `json:"remoteIp,omitempty"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Current   bool      `json:"current"`
}

// SessionStatistics summarises the active logins of one principal.
type SessionStatistics struct {
	ActiveSessions int        `json:"activeSessions"`
	MaxSessions    int        `json:"maxSessions"`
	OldestIssuedAt *time.Time `json:"oldestIssuedAt,omitempty"`
	NewestIssuedAt *time.Time `json:"newestIssuedAt,omitempty"`
	NextExpiry     *time.Time `json:"nextExpiry,omitempty"`
}
