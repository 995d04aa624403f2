package billing

import (
	"errors"
	"time"

	"vitrine-app/internal/domain/audit"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ExpireOverdueInvoices is the periodic reconciliation sweep:
//
//  1. pending invoices past due_at become expired (a created PIX charge is
//     never canceled provider-side, it simply lapses);
//  2. active subscriptions whose latest invoice expired drop to past_due;
//  3. past_due subscriptions older than the grace window are suspended.
//
// The grace window length is a product-policy knob, not a billing invariant.
func ExpireOverdueInvoices(db *gorm.DB, graceDays int) {
	now := time.Now()

	var overdue []Invoice
	if err := db.Where("status = ? AND due_at < ?", InvoicePending, now).Find(&overdue).Error; err != nil {
		log.Error().Err(err).Msg("expirer: failed to list overdue invoices")
		return
	}

	for _, inv := range overdue {
		if err := MarkExpired(db, inv.ID); err != nil {
			// A webhook may have paid it between the query and the update.
			if errors.Is(err, ErrInvalidState) {
				continue
			}
			log.Error().Err(err).Uint("invoice_id", inv.ID).Msg("expirer: failed to expire invoice")
			continue
		}
		log.Info().Uint("invoice_id", inv.ID).Msg("expirer: invoice expired")

		res := db.Model(&Subscription{}).
			Where("id = ? AND status = ? AND current_period_end < ?", inv.SubscriptionID, StatusActive, now).
			Update("status", StatusPastDue)
		if res.Error != nil {
			log.Error().Err(res.Error).Uint("subscription_id", inv.SubscriptionID).Msg("expirer: failed to mark past_due")
			continue
		}
		if res.RowsAffected > 0 {
			log.Warn().Uint("subscription_id", inv.SubscriptionID).Msg("expirer: subscription past due")
		}
	}

	suspendLapsedSubscriptions(db, now, graceDays)
}

func suspendLapsedSubscriptions(db *gorm.DB, now time.Time, graceDays int) {
	cutoff := now.AddDate(0, 0, -graceDays)

	var lapsed []Subscription
	err := db.Where("status = ? AND current_period_end < ?", StatusPastDue, cutoff).Find(&lapsed).Error
	if err != nil {
		log.Error().Err(err).Msg("expirer: failed to list lapsed subscriptions")
		return
	}

	for _, sub := range lapsed {
		err := db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&Subscription{}).
				Where("id = ? AND status = ?", sub.ID, StatusPastDue).
				Updates(map[string]interface{}{
					"status":               StatusSuspended,
					"auto_renew":           false,
					"cancel_at_period_end": true,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil // paid or suspended elsewhere in the meantime
			}
			return audit.Record(tx, audit.ActionSuspendSystem, audit.ActorSystem, nil, map[string]interface{}{
				"subscription_id": sub.ID,
				"reason":          "invoice unpaid past grace window",
			})
		})
		if err != nil {
			log.Error().Err(err).Uint("subscription_id", sub.ID).Msg("expirer: failed to suspend subscription")
			continue
		}
		log.Warn().Uint("subscription_id", sub.ID).Msg("expirer: subscription suspended for non-payment")
	}
}

// RunExpirer runs the sweep on a fixed interval until stop is closed.
func RunExpirer(db *gorm.DB, interval time.Duration, graceDays int, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ExpireOverdueInvoices(db, graceDays)
		case <-stop:
			return
		}
	}
}
