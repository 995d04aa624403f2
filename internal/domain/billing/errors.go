package billing

import "errors"

var (
	// ErrNotFound is returned when a subscription or invoice does not exist.
	// Transitions never auto-create the missing record.
	ErrNotFound = errors.New("billing: record not found")

	// ErrInvalidState is returned when a status transition is not legal from
	// the record's current status (e.g. paying an already-paid invoice).
	// Illegal transitions are rejected, never silently coerced.
	ErrInvalidState = errors.New("billing: invalid state transition")

	// ErrChargeMismatch is returned when a different txid is attached to an
	// invoice that already carries one.
	ErrChargeMismatch = errors.New("billing: invoice already linked to another charge")

	ErrInvalidCycle = errors.New("billing: invalid billing cycle")
)
