package billing

import "time"

// Invoice statuses
const (
	InvoicePending  = "pending"
	InvoicePaid     = "paid"
	InvoiceExpired  = "expired"
	InvoiceCanceled = "canceled"
	InvoiceRefunded = "refunded"
)

// Invoice is one billing attempt. Plan and cycle are snapshotted at creation
// time so later plan edits never alter an already-issued invoice. Immutable
// once status leaves pending; never deleted.
type Invoice struct {
	ID             uint `gorm:"primaryKey"`
	SubscriptionID uint `gorm:"not null;index"`
	Subscription   Subscription

	AmountBRL float64
	Status    string `gorm:"type:varchar(16);not null;default:'pending';index"`

	DueAt  time.Time
	PaidAt *time.Time

	PaymentMethod string `gorm:"type:varchar(16);not null;default:'pix'"`

	// Provider correlation: the charge exists provider-side, mirrored here.
	GatewayChargeID *string `gorm:"uniqueIndex:idx_invoices_gateway_charge_id"`
	PixLocationID   *int
	PixCopyPaste    *string `gorm:"type:text"`
	PixQRCode       *string `gorm:"column:pix_qrcode;type:text"` // base64 data URI

	// Snapshot of the plan/cycle at invoice time
	PlanID       uint
	BillingCycle string `gorm:"type:varchar(16)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
