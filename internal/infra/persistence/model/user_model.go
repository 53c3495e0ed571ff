package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table of the identity store.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v7()"`
	Email        string    `gorm:"type:varchar(255);unique;not null"`
	Name         string    `gorm:"type:varchar(100)"`
	RoleSlug     string    `gorm:"type:varchar(32);not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time `gorm:"index"`

	Role *RoleModel `gorm:"foreignKey:RoleSlug;references:Slug"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// RoleModel mirrors the 'roles' table.
type RoleModel struct {
	Slug      string `gorm:"type:varchar(32);primaryKey"`
	Name      string `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (RoleModel) TableName() string {
	return "roles"
}
