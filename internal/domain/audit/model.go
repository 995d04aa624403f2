package audit

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Administrative/system actions recorded in the audit trail
const (
	ActionGenerateInvoice    = "generate_invoice"
	ActionCreateCharge       = "create_charge"
	ActionSuspendSystem      = "suspend_system"
	ActionReactivateSystem   = "reactivate_system"
	ActionChangeBillingCycle = "change_billing_cycle"
	ActionPaymentConfirmed   = "payment_confirmed"
)

const (
	ActorOwner  = "owner"
	ActorSystem = "system"
)

// Entry is append-only: rows are never mutated or deleted.
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	Action    string `gorm:"type:varchar(40);not null;index"`
	ActorType string `gorm:"type:varchar(10);not null"`
	ActorID   *uint
	Meta      string `gorm:"type:text"`
	CreatedAt time.Time
}

func (Entry) TableName() string {
	return "audit_log_entries"
}

// Record appends one audit entry. Meta is stored as JSON text.
func Record(db *gorm.DB, action, actorType string, actorID *uint, meta map[string]interface{}) error {
	raw := ""
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		raw = string(b)
	}
	return db.Create(&Entry{
		Action:    action,
		ActorType: actorType,
		ActorID:   actorID,
		Meta:      raw,
	}).Error
}
