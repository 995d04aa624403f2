package access

// CapabilitiesFor lists what the back office may do given the gate decision.
// Billing management stays available while denied, otherwise a suspended
// owner could never pay their way back in.
func CapabilitiesFor(d Decision) []string {
	if !d.Allowed {
		return []string{"manage_billing"}
	}
	return []string{
		"manage_billing",
		"manage_store",
		"manage_catalog",
		"manage_orders",
	}
}
