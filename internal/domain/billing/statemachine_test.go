package billing_test

import (
	"sync"
	"testing"
	"time"

	"vitrine-app/internal/domain/audit"
	"vitrine-app/internal/domain/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPeriodEndAround(t *testing.T, sub *billing.Subscription, want time.Duration) {
	t.Helper()
	require.NotNil(t, sub.CurrentPeriodEnd)
	got := time.Until(*sub.CurrentPeriodEnd)
	assert.InDelta(t, want.Hours(), got.Hours(), 1.0)
}

func TestStartTrialIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	first, err := billing.StartTrial(db, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusTrialing, first.Status)
	assertPeriodEndAround(t, first, 14*24*time.Hour)

	second, err := billing.StartTrial(db, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&billing.Subscription{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestForUserNeverCreates(t *testing.T) {
	db := newTestDB(t)
	_, err := billing.ForUser(db, 42)
	assert.ErrorIs(t, err, billing.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&billing.Subscription{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestEnsureForUserCreatesSuspendedPlaceholder(t *testing.T) {
	db := newTestDB(t)

	sub, err := billing.EnsureForUser(db, 7, 3, billing.CycleAnnual)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusSuspended, sub.Status)
	assert.Equal(t, billing.CycleAnnual, sub.BillingCycle)
	assert.False(t, sub.AutoRenew)

	// An existing subscription is returned untouched.
	again, err := billing.EnsureForUser(db, 7, 9, billing.CycleMonthly)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
	assert.Equal(t, billing.CycleAnnual, again.BillingCycle)
}

func TestChangeCycle(t *testing.T) {
	t.Run("creates the row when missing", func(t *testing.T) {
		db := newTestDB(t)
		sub, err := billing.ChangeCycle(db, 1, 2, billing.CycleSemiannual)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusSuspended, sub.Status)
		assert.Equal(t, billing.CycleSemiannual, sub.BillingCycle)
	})

	t.Run("recomputes the period end while active", func(t *testing.T) {
		db := newTestDB(t)
		trial := newTrialSubscription(t, db, 1)
		inv, err := billing.GenerateInvoice(db, trial.ID, 99, 2, billing.CycleMonthly)
		require.NoError(t, err)
		_, err = billing.ApplyPayment(db, inv.ID)
		require.NoError(t, err)

		sub, err := billing.ChangeCycle(db, 1, 2, billing.CycleAnnual)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusActive, sub.Status)
		assertPeriodEndAround(t, sub, 365*24*time.Hour)
	})

	t.Run("leaves the period alone while not active", func(t *testing.T) {
		db := newTestDB(t)
		trial := newTrialSubscription(t, db, 1)
		initialEnd := *trial.CurrentPeriodEnd

		sub, err := billing.ChangeCycle(db, 1, 2, billing.CycleAnnual)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusTrialing, sub.Status)
		require.NotNil(t, sub.CurrentPeriodEnd)
		assert.WithinDuration(t, initialEnd, *sub.CurrentPeriodEnd, time.Second)
	})

	t.Run("rejects unknown cycle", func(t *testing.T) {
		db := newTestDB(t)
		_, err := billing.ChangeCycle(db, 1, 2, "lifetime")
		assert.ErrorIs(t, err, billing.ErrInvalidCycle)
	})
}

func TestSuspendAndReactivate(t *testing.T) {
	db := newTestDB(t)
	newTrialSubscription(t, db, 1)

	actor := uint(1)
	require.NoError(t, billing.Suspend(db, 1, "owner requested cancellation", audit.ActorOwner, &actor))

	got, err := billing.ForUser(db, 1)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusSuspended, got.Status)
	assert.False(t, got.AutoRenew)
	assert.True(t, got.CancelAtPeriodEnd)

	// Suspending twice is rejected, not silently absorbed.
	assert.ErrorIs(t, billing.Suspend(db, 1, "again", audit.ActorOwner, &actor), billing.ErrInvalidState)

	reactivated, err := billing.Reactivate(db, 1, audit.ActorOwner, &actor)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusActive, reactivated.Status)
	assert.True(t, reactivated.AutoRenew)
	assertPeriodEndAround(t, reactivated, 30*24*time.Hour)

	var entries []audit.Entry
	require.NoError(t, db.Order("id").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionSuspendSystem, entries[0].Action)
	assert.Equal(t, audit.ActionReactivateSystem, entries[1].Action)
}

func TestApplyPayment(t *testing.T) {
	db := newTestDB(t)
	sub := newTrialSubscription(t, db, 1)
	inv, err := billing.GenerateInvoice(db, sub.ID, 499.00, 2, billing.CycleSemiannual)
	require.NoError(t, err)

	paid, err := billing.ApplyPayment(db, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoicePaid, paid.Status)

	got, err := billing.ForUser(db, 1)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusActive, got.Status)
	assert.Equal(t, billing.CycleSemiannual, got.BillingCycle)
	assertPeriodEndAround(t, got, 180*24*time.Hour)
}

func TestApplyPaymentDuplicateLeavesPeriodAlone(t *testing.T) {
	db := newTestDB(t)
	sub := newTrialSubscription(t, db, 1)
	inv, err := billing.GenerateInvoice(db, sub.ID, 99, 2, billing.CycleMonthly)
	require.NoError(t, err)

	_, err = billing.ApplyPayment(db, inv.ID)
	require.NoError(t, err)

	first, err := billing.ForUser(db, 1)
	require.NoError(t, err)
	firstEnd := *first.CurrentPeriodEnd

	_, err = billing.ApplyPayment(db, inv.ID)
	assert.ErrorIs(t, err, billing.ErrInvalidState)

	second, err := billing.ForUser(db, 1)
	require.NoError(t, err)
	assert.WithinDuration(t, firstEnd, *second.CurrentPeriodEnd, time.Second)
}

func TestApplyPaymentConcurrentDeliveries(t *testing.T) {
	db := newTestDB(t)
	sub := newTrialSubscription(t, db, 1)
	inv, err := billing.GenerateInvoice(db, sub.ID, 99, 2, billing.CycleMonthly)
	require.NoError(t, err)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = billing.ApplyPayment(db, inv.ID)
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, err := range errs {
		if err == nil {
			applied++
		} else {
			assert.ErrorIs(t, err, billing.ErrInvalidState)
		}
	}
	assert.Equal(t, 1, applied)
}

func TestApplyPaymentOnCanceledSubscriptionRollsBack(t *testing.T) {
	db := newTestDB(t)
	sub := newTrialSubscription(t, db, 1)
	inv, err := billing.GenerateInvoice(db, sub.ID, 99, 2, billing.CycleMonthly)
	require.NoError(t, err)

	require.NoError(t, db.Model(&billing.Subscription{}).
		Where("id = ?", sub.ID).
		Update("status", billing.StatusCanceled).Error)

	_, err = billing.ApplyPayment(db, inv.ID)
	assert.ErrorIs(t, err, billing.ErrInvalidState)

	// The whole transaction rolled back: the invoice is still payable.
	var got billing.Invoice
	require.NoError(t, db.First(&got, inv.ID).Error)
	assert.Equal(t, billing.InvoicePending, got.Status)
}
