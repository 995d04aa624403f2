package billing

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// How long the owner has to pay a freshly issued invoice.
const invoiceDueWindow = 3 * 24 * time.Hour

// GenerateInvoice creates a pending invoice against an existing subscription,
// snapshotting the plan and cycle at this moment.
func GenerateInvoice(db *gorm.DB, subscriptionID uint, amountBRL float64, planID uint, cycle string) (*Invoice, error) {
	if !IsValidCycle(cycle) {
		return nil, ErrInvalidCycle
	}

	var sub Subscription
	if err := db.First(&sub, subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	inv := Invoice{
		SubscriptionID: sub.ID,
		AmountBRL:      amountBRL,
		Status:         InvoicePending,
		DueAt:          time.Now().Add(invoiceDueWindow),
		PaymentMethod:  "pix",
		PlanID:         planID,
		BillingCycle:   cycle,
	}
	if err := db.Create(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// AttachCharge records the provider correlation on a pending invoice.
// Calling it again with the same txid is a no-op (missing payment codes are
// filled in, which is what the "retry fetching code" flow relies on).
// Attaching a different txid to an invoice that already has one is rejected,
// so a provider-side charge can never be silently orphaned.
func AttachCharge(db *gorm.DB, invoiceID uint, txid string, copyPaste, qrImage *string) error {
	var inv Invoice
	if err := db.First(&inv, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if inv.GatewayChargeID != nil {
		if *inv.GatewayChargeID != txid {
			return ErrChargeMismatch
		}
		updates := map[string]interface{}{}
		if inv.PixCopyPaste == nil && copyPaste != nil {
			updates["pix_copy_paste"] = copyPaste
		}
		if inv.PixQRCode == nil && qrImage != nil {
			updates["pix_qrcode"] = qrImage
		}
		if len(updates) == 0 {
			return nil
		}
		return db.Model(&Invoice{}).Where("id = ?", inv.ID).Updates(updates).Error
	}

	if inv.Status != InvoicePending {
		return ErrInvalidState
	}

	res := db.Model(&Invoice{}).
		Where("id = ? AND status = ? AND gateway_charge_id IS NULL", inv.ID, InvoicePending).
		Updates(map[string]interface{}{
			"gateway_charge_id": txid,
			"pix_copy_paste":    copyPaste,
			"pix_qrcode":        qrImage,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Lost a race with another attach; re-check who won.
		return AttachCharge(db, invoiceID, txid, copyPaste, qrImage)
	}
	return nil
}

// HasPendingInvoice reports whether the subscription has at least one
// invoice still awaiting payment.
func HasPendingInvoice(db *gorm.DB, subscriptionID uint) (bool, error) {
	var count int64
	err := db.Model(&Invoice{}).
		Where("subscription_id = ? AND status = ?", subscriptionID, InvoicePending).
		Count(&count).Error
	return count > 0, err
}

// MarkPaid moves an invoice from pending to paid as a single atomic
// conditional update. Two concurrent callers cannot both succeed: the loser
// sees zero affected rows and gets ErrInvalidState. This is what protects
// against double-applying a duplicated webhook.
func MarkPaid(db *gorm.DB, invoiceID uint) error {
	now := time.Now()
	return transition(db, invoiceID, InvoicePaid, map[string]interface{}{
		"status":  InvoicePaid,
		"paid_at": &now,
	})
}

// MarkExpired moves a pending invoice to expired.
func MarkExpired(db *gorm.DB, invoiceID uint) error {
	return transition(db, invoiceID, InvoiceExpired, map[string]interface{}{
		"status": InvoiceExpired,
	})
}

// MarkCanceled moves a pending invoice to canceled.
func MarkCanceled(db *gorm.DB, invoiceID uint) error {
	return transition(db, invoiceID, InvoiceCanceled, map[string]interface{}{
		"status": InvoiceCanceled,
	})
}

// Only pending -> {paid, expired, canceled} is legal.
func transition(db *gorm.DB, invoiceID uint, _ string, updates map[string]interface{}) error {
	res := db.Model(&Invoice{}).
		Where("id = ? AND status = ?", invoiceID, InvoicePending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&Invoice{}).Where("id = ?", invoiceID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInvalidState
	}
	return nil
}
