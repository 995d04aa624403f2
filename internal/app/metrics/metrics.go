package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents counts reconciler outcomes per PIX webhook event.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vitrine_pix_webhook_events_total",
		Help: "PIX webhook events by reconciliation result.",
	}, []string{"result"})

	// ChargesCreated counts charges accepted by the payment provider.
	ChargesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vitrine_pix_charges_created_total",
		Help: "PIX charges successfully created against the provider.",
	})

	// InvoicesPaid counts invoices confirmed paid.
	InvoicesPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vitrine_invoices_paid_total",
		Help: "Invoices transitioned to paid.",
	})
)
