package pixwebhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"vitrine-app/config"
	"vitrine-app/database"
	"vitrine-app/internal/app/metrics"
	"vitrine-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Payment statuses the provider reports as settled.
var paidStatuses = map[string]bool{
	"paid":      true,
	"concluida": true, // Efí reports CONCLUIDA for settled charges
}

// HandlePixWebhook is the only trusted path by which an external payment
// confirmation becomes a state change. Events may arrive duplicated or out
// of order; correctness rests on the atomic pending->paid invoice update,
// not on delivery ordering. The endpoint answers 2xx once events are
// durably recorded, unknown txids included, so the provider stops retrying;
// 4xx is reserved for malformed or unauthenticated payloads.
func HandlePixWebhook(c *gin.Context) {
	secret := config.PIX_WEBHOOK_SECRET
	if secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "PIX_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readWebhookBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	// Signature travels in a header, or as ?hmac= the way Efí appends it
	// to the registered webhook URL.
	sig := c.GetHeader("X-Webhook-Signature")
	if sig == "" {
		sig = c.Query("hmac")
	}
	if err := VerifySignature(secret, payload, sig); err != nil {
		log.Warn().Err(err).Msg("pix webhook: rejected payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	events, err := parseEvents(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload"})
		return
	}

	for _, ev := range events {
		if ev.Status != "" && !paidStatuses[strings.ToLower(ev.Status)] {
			metrics.WebhookEvents.WithLabelValues("ignored").Inc()
			continue
		}
		if err := reconcile(ev.TxID); err != nil {
			// Not durably recorded: let the provider retry this delivery.
			log.Error().Err(err).Str("txid", ev.TxID).Msg("pix webhook: reconciliation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

type event struct {
	TxID   string
	Status string
}

// parseEvents accepts both the Efí delivery shape ({"pix":[{"txid":...}]})
// and a flat {"txid","status"} payload.
func parseEvents(payload []byte) ([]event, error) {
	var efiShape struct {
		Pix []struct {
			TxID string `json:"txid"`
		} `json:"pix"`
	}
	if err := json.Unmarshal(payload, &efiShape); err == nil && len(efiShape.Pix) > 0 {
		events := make([]event, 0, len(efiShape.Pix))
		for _, p := range efiShape.Pix {
			if p.TxID == "" {
				return nil, errors.New("pix entry missing txid")
			}
			events = append(events, event{TxID: p.TxID})
		}
		return events, nil
	}

	var flat struct {
		TxID   string `json:"txid"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &flat); err != nil || flat.TxID == "" {
		return nil, errors.New("payload has no recognizable txid")
	}
	return []event{{TxID: flat.TxID, Status: flat.Status}}, nil
}

// reconcile correlates one confirmed payment with its invoice and applies it.
// Unknown txids are logged and dropped: provider retries and test pings are
// expected, and answering success is what stops them.
func reconcile(txid string) error {
	var inv billing.Invoice
	err := database.DB.Where("gateway_charge_id = ?", txid).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info().Str("txid", txid).Msg("pix webhook: no invoice for txid, dropping event")
		metrics.WebhookEvents.WithLabelValues("unmatched").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	if inv.Status == billing.InvoicePaid {
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		return nil
	}

	if _, err := billing.ApplyPayment(database.DB, inv.ID); err != nil {
		// Lost the race against a concurrent delivery of the same txid:
		// the payment is applied, nothing left to do.
		if errors.Is(err, billing.ErrInvalidState) {
			metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
			return nil
		}
		return err
	}

	metrics.WebhookEvents.WithLabelValues("applied").Inc()
	metrics.InvoicesPaid.Inc()
	log.Info().Str("txid", txid).Uint("invoice_id", inv.ID).Msg("pix webhook: payment applied")
	return nil
}

func readWebhookBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
