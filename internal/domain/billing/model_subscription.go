package billing

import (
	"time"

	"vitrine-app/internal/domain/plans"
	"vitrine-app/internal/domain/users"
)

// Subscription statuses
const (
	StatusTrialing  = "trialing"
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusSuspended = "suspended"
	StatusCanceled  = "canceled"
)

const GatewayEfi = "efi"

// Subscription is the single entitlement record for a tenant. The unique
// index on user_id enforces one row per tenant; every write goes through
// the state machine as an upsert or a conditional update, never an
// "order by created_at, take first" query.
type Subscription struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;uniqueIndex:idx_subscriptions_user_id"`
	User   users.User

	PlanID *uint
	Plan   *plans.Plan

	BillingCycle string `gorm:"type:varchar(16);not null;default:'monthly'"`
	Status       string `gorm:"type:varchar(16);not null;default:'suspended';index"`

	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time

	AutoRenew         bool `gorm:"default:true"`
	CancelAtPeriodEnd bool `gorm:"default:false"`

	Gateway string `gorm:"type:varchar(20);not null;default:'efi'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
