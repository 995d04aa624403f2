package billing_test

import (
	"testing"
	"time"

	"vitrine-app/internal/domain/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpireOverdueInvoices(t *testing.T) {
	db := newTestDB(t)
	sub := newTrialSubscription(t, db, 1)

	inv, err := billing.GenerateInvoice(db, sub.ID, 99, 2, billing.CycleMonthly)
	require.NoError(t, err)
	_, err = billing.ApplyPayment(db, inv.ID)
	require.NoError(t, err)

	// Next cycle's invoice went unpaid and the paid period already lapsed.
	renewal, err := billing.GenerateInvoice(db, sub.ID, 99, 2, billing.CycleMonthly)
	require.NoError(t, err)
	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Model(&billing.Invoice{}).
		Where("id = ?", renewal.ID).
		Update("due_at", yesterday).Error)
	require.NoError(t, db.Model(&billing.Subscription{}).
		Where("id = ?", sub.ID).
		Update("current_period_end", yesterday).Error)

	billing.ExpireOverdueInvoices(db, 3)

	var gotInv billing.Invoice
	require.NoError(t, db.First(&gotInv, renewal.ID).Error)
	assert.Equal(t, billing.InvoiceExpired, gotInv.Status)

	got, err := billing.ForUser(db, 1)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPastDue, got.Status)

	// Within the grace window nothing else happens.
	billing.ExpireOverdueInvoices(db, 3)
	got, err = billing.ForUser(db, 1)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPastDue, got.Status)

	// Past the grace window the subscription is suspended.
	lapsed := time.Now().AddDate(0, 0, -4)
	require.NoError(t, db.Model(&billing.Subscription{}).
		Where("id = ?", sub.ID).
		Update("current_period_end", lapsed).Error)

	billing.ExpireOverdueInvoices(db, 3)
	got, err = billing.ForUser(db, 1)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusSuspended, got.Status)
	assert.False(t, got.AutoRenew)
}

func TestExpirerSkipsInvoicesPaidMidSweep(t *testing.T) {
	db := newTestDB(t)
	sub := newTrialSubscription(t, db, 1)

	inv, err := billing.GenerateInvoice(db, sub.ID, 99, 2, billing.CycleMonthly)
	require.NoError(t, err)
	require.NoError(t, db.Model(&billing.Invoice{}).
		Where("id = ?", inv.ID).
		Update("due_at", time.Now().Add(-time.Hour)).Error)

	// Paid before the sweep runs: the expirer must leave it alone.
	_, err = billing.ApplyPayment(db, inv.ID)
	require.NoError(t, err)

	billing.ExpireOverdueInvoices(db, 3)

	var got billing.Invoice
	require.NoError(t, db.First(&got, inv.ID).Error)
	assert.Equal(t, billing.InvoicePaid, got.Status)
}

func TestCycleLength(t *testing.T) {
	for cycle, days := range map[string]int{
		billing.CycleMonthly:    30,
		billing.CycleSemiannual: 180,
		billing.CycleAnnual:     365,
	} {
		d, err := billing.CycleLength(cycle)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(days)*24*time.Hour, d)
	}

	_, err := billing.CycleLength("weekly")
	assert.ErrorIs(t, err, billing.ErrInvalidCycle)

	assert.True(t, billing.IsValidCycle(" Monthly "))
	assert.False(t, billing.IsValidCycle(""))
}
