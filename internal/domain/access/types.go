package access

// Decision is what the gate hands back to callers. Denials carry enough
// detail for the UI to render a "regularize payment" call to action instead
// of a bare 403.
type Decision struct {
	Allowed         bool   `json:"allowed"`
	Status          string `json:"status"`
	AwaitingPayment bool   `json:"awaiting_payment"`
	Reason          string `json:"reason,omitempty"`
}

type StorefrontMode string

const (
	StorefrontOnline StorefrontMode = "online"
	StorefrontPaused StorefrontMode = "paused"
)
