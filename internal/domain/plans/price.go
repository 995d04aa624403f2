package plans

import (
	"encoding/json"
	"strings"
)

// PriceFor returns the plan's price for the given billing cycle.
// An unknown cycle falls back to the monthly price so a stale client
// never receives a zero amount.
func PriceFor(p *Plan, cycle string) float64 {
	if p == nil {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(cycle)) {
	case "semiannual":
		return p.PriceSemiannual
	case "annual":
		return p.PriceAnnual
	default:
		return p.PriceMonthly
	}
}

// FeatureList decodes the stored JSON feature array.
func FeatureList(p *Plan) []string {
	if p == nil || p.Features == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(p.Features), &out); err != nil {
		return []string{}
	}
	return out
}
