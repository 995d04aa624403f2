package users

import (
	"time"
)

// Roles
const (
	RoleOwner  = "owner" // store owner (tenant)
	RoleSeller = "seller"
	RoleAdmin  = "admin" // platform admin
)

type User struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Lastname     string
	Tel          string
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email"`
	Password     *string `gorm:""`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub"`
	Role         string  `gorm:"type:varchar(10);not null;default:'owner'"`
	IsVerified   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
