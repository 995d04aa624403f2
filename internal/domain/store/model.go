package store

import "time"

// Profile is the tenant's storefront identity: the thin CRUD record behind
// the store settings screen.
type Profile struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;uniqueIndex:idx_store_profiles_user_id"`

	Name        string `gorm:"not null"`
	Slug        string `gorm:"not null;uniqueIndex:idx_store_profiles_slug"`
	Description string `gorm:"type:text"`

	ContactEmail string
	ContactPhone string

	CreatedAt time.Time
	UpdatedAt time.Time
}
