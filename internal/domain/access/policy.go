package access

import "vitrine-app/internal/domain/billing"

// Evaluate is the access gate consumed by every protected admin operation.
// Pure read-side policy: no I/O, no provider calls, safe on every request.
// Status comes from the locally persisted subscription, never fetched live.
// An unknown status denies access; ambiguity must never grant it.
func Evaluate(status string, awaitingPayment bool) Decision {
	d := Decision{Status: status, AwaitingPayment: awaitingPayment}

	switch status {
	case billing.StatusActive, billing.StatusTrialing:
		d.Allowed = true
	case billing.StatusPastDue:
		d.Reason = "subscription payment is overdue"
	case billing.StatusSuspended:
		d.Reason = "subscription is suspended"
	case billing.StatusCanceled:
		d.Reason = "subscription is canceled"
	default:
		d.Reason = "no subscription found"
	}
	return d
}

// EvaluateSubscription evaluates the gate for a possibly missing subscription.
func EvaluateSubscription(sub *billing.Subscription, awaitingPayment bool) Decision {
	if sub == nil {
		return Evaluate("", awaitingPayment)
	}
	return Evaluate(sub.Status, awaitingPayment)
}

func StorefrontModeFor(d Decision) StorefrontMode {
	if d.Allowed {
		return StorefrontOnline
	}
	return StorefrontPaused
}
