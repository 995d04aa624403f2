package billing

import (
	"fmt"
	"strings"
	"time"
)

// Billing cycle identifiers (single source of truth)
const (
	CycleMonthly    = "monthly"
	CycleSemiannual = "semiannual"
	CycleAnnual     = "annual"
)

// Fixed-day approximation, not calendar-month arithmetic.
var cycleLengths = map[string]time.Duration{
	CycleMonthly:    30 * 24 * time.Hour,
	CycleSemiannual: 180 * 24 * time.Hour,
	CycleAnnual:     365 * 24 * time.Hour,
}

// CycleLength returns the paid period granted by one invoice of the given cycle.
func CycleLength(cycle string) (time.Duration, error) {
	d, ok := cycleLengths[strings.ToLower(strings.TrimSpace(cycle))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown billing cycle %q", ErrInvalidCycle, cycle)
	}
	return d, nil
}

// IsValidCycle reports whether cycle is one of the supported billing cycles.
func IsValidCycle(cycle string) bool {
	_, ok := cycleLengths[strings.ToLower(strings.TrimSpace(cycle))]
	return ok
}
