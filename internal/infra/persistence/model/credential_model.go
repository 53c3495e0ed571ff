package model

import (
	"time"

	"github.com/google/uuid"
)

// CredentialModel mirrors the 'credential_records' table. IDs are assigned by the application.
type CredentialModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PrincipalID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SessionID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Fingerprint string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	UserAgent   string     `gorm:"type:varchar(512)"`
	RemoteIP    string     `gorm:"type:varchar(64)"`
	IssuedAt    time.Time  `gorm:"not null"`
	ExpiresAt   time.Time  `gorm:"not null;index"`
	RevokedAt   *time.Time `gorm:"index"`
	ReplacedBy  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (CredentialModel) TableName() string {
	return "credential_records"
}
