package billing

import (
	"errors"
	"time"

	"vitrine-app/internal/domain/audit"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const trialDays = 14

// Statuses a payment confirmation (or manual reactivation) may start from.
// Canceled subscriptions require a fresh acquisition, not a reactivation.
var reactivatableStatuses = []string{StatusTrialing, StatusActive, StatusPastDue, StatusSuspended}

// StartTrial creates the tenant's subscription in trialing state. Called once
// at registration; the unique index on user_id makes a second call a no-op.
func StartTrial(db *gorm.DB, userID uint, planID *uint) (*Subscription, error) {
	now := time.Now()
	end := now.AddDate(0, 0, trialDays)

	sub := Subscription{
		UserID:             userID,
		PlanID:             planID,
		BillingCycle:       CycleMonthly,
		Status:             StatusTrialing,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &end,
		AutoRenew:          true,
		Gateway:            GatewayEfi,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&sub).Error
	if err != nil {
		return nil, err
	}
	return ForUser(db, userID)
}

// ForUser loads the tenant's subscription. Never creates one as a side effect.
func ForUser(db *gorm.DB, userID uint) (*Subscription, error) {
	var sub Subscription
	if err := db.Preload("Plan").Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// EnsureForUser returns the tenant's subscription, creating a suspended
// placeholder when none exists yet. A placeholder grants no access: the owner
// only becomes active through a confirmed payment. Upsert is keyed on user_id,
// so two concurrent calls converge on the same single row.
func EnsureForUser(db *gorm.DB, userID uint, planID uint, cycle string) (*Subscription, error) {
	if !IsValidCycle(cycle) {
		return nil, ErrInvalidCycle
	}
	sub := Subscription{
		UserID:       userID,
		PlanID:       &planID,
		BillingCycle: cycle,
		Status:       StatusSuspended,
		AutoRenew:    false,
		Gateway:      GatewayEfi,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&sub).Error
	if err != nil {
		return nil, err
	}
	return ForUser(db, userID)
}

// ChangeCycle updates the tenant's plan and billing cycle, inserting the
// single subscription row when missing. While active, the period end is
// recomputed from now using the new cycle length.
func ChangeCycle(db *gorm.DB, userID uint, planID uint, cycle string) (*Subscription, error) {
	if !IsValidCycle(cycle) {
		return nil, ErrInvalidCycle
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var sub Subscription
		err := tx.Where("user_id = ?", userID).First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sub = Subscription{
				UserID:       userID,
				PlanID:       &planID,
				BillingCycle: cycle,
				Status:       StatusSuspended,
				AutoRenew:    false,
				Gateway:      GatewayEfi,
			}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"plan_id", "billing_cycle"}),
			}).Create(&sub).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"plan_id":       planID,
			"billing_cycle": cycle,
		}
		if sub.Status == StatusActive {
			length, err := CycleLength(cycle)
			if err != nil {
				return err
			}
			now := time.Now()
			end := now.Add(length)
			updates["current_period_end"] = &end
		}
		return tx.Model(&Subscription{}).Where("id = ?", sub.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return ForUser(db, userID)
}

// Suspend cuts off the tenant's back office. Used both for owner-initiated
// cancellation and for unpaid invoices past the grace window.
func Suspend(db *gorm.DB, userID uint, reason string, actorType string, actorID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		sub, err := ForUser(tx, userID)
		if err != nil {
			return err
		}

		res := tx.Model(&Subscription{}).
			Where("id = ? AND status IN ?", sub.ID, []string{StatusTrialing, StatusActive, StatusPastDue}).
			Updates(map[string]interface{}{
				"status":               StatusSuspended,
				"auto_renew":           false,
				"cancel_at_period_end": true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}

		return audit.Record(tx, audit.ActionSuspendSystem, actorType, actorID, map[string]interface{}{
			"subscription_id": sub.ID,
			"reason":          reason,
		})
	})
}

// Reactivate restores access with a fresh paid period. This is the manual
// counterpart of a webhook confirmation; both converge on the same active
// state because the update is keyed on the expected prior statuses.
func Reactivate(db *gorm.DB, userID uint, actorType string, actorID *uint) (*Subscription, error) {
	var out *Subscription
	err := db.Transaction(func(tx *gorm.DB) error {
		sub, err := ForUser(tx, userID)
		if err != nil {
			return err
		}
		if err := activate(tx, sub.ID, sub.BillingCycle, sub.PlanID); err != nil {
			return err
		}
		if err := audit.Record(tx, audit.ActionReactivateSystem, actorType, actorID, map[string]interface{}{
			"subscription_id": sub.ID,
		}); err != nil {
			return err
		}
		out, err = ForUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyPayment is the reconciler entry point: atomically marks the invoice
// paid and activates the owning subscription with a fresh period window
// computed from the invoice's cycle snapshot. Duplicate deliveries for the
// same txid stop at MarkPaid, so the period advances exactly once.
func ApplyPayment(db *gorm.DB, invoiceID uint) (*Invoice, error) {
	var inv Invoice
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := MarkPaid(tx, invoiceID); err != nil {
			return err
		}
		if err := tx.First(&inv, invoiceID).Error; err != nil {
			return err
		}

		planID := inv.PlanID
		if err := activate(tx, inv.SubscriptionID, inv.BillingCycle, &planID); err != nil {
			return err
		}

		return audit.Record(tx, audit.ActionPaymentConfirmed, audit.ActorSystem, nil, map[string]interface{}{
			"invoice_id":      inv.ID,
			"subscription_id": inv.SubscriptionID,
			"amount_brl":      inv.AmountBRL,
			"billing_cycle":   inv.BillingCycle,
		})
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func activate(tx *gorm.DB, subscriptionID uint, cycle string, planID *uint) error {
	length, err := CycleLength(cycle)
	if err != nil {
		return err
	}
	now := time.Now()
	end := now.Add(length)

	updates := map[string]interface{}{
		"status":               StatusActive,
		"billing_cycle":        cycle,
		"current_period_start": &now,
		"current_period_end":   &end,
		"auto_renew":           true,
		"cancel_at_period_end": false,
	}
	if planID != nil {
		updates["plan_id"] = *planID
	}

	res := tx.Model(&Subscription{}).
		Where("id = ? AND status IN ?", subscriptionID, reactivatableStatuses).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&Subscription{}).Where("id = ?", subscriptionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInvalidState
	}
	return nil
}
