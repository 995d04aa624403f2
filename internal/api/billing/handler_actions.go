package billing

import (
	"errors"
	"net/http"

	"vitrine-app/database"
	"vitrine-app/internal/app/metrics"
	"vitrine-app/internal/domain/audit"
	billingdomain "vitrine-app/internal/domain/billing"
	"vitrine-app/internal/domain/plans"
	"vitrine-app/internal/infra/efi"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// newEfiClient builds the provider client from the loaded configuration.
// Package-level so tests can point the handlers at a fake provider.
var newEfiClient = func() (*efi.Client, error) {
	return efi.NewClient(efi.FromAppConfig())
}

type actionRequest struct {
	Action string `json:"action" binding:"required"`

	// generate_invoice / change_cycle
	Amount       float64 `json:"amount"`
	PlanID       uint    `json:"plan_id"`
	BillingCycle string  `json:"billing_cycle"`

	// create_charge
	Description string `json:"description"`
	InvoiceID   uint   `json:"invoice_id"`

	// suspend_system
	Reason string `json:"reason"`
}

// HandleAction dispatches the owner-facing billing operations. The route is
// guarded by RequireRole(owner, admin); any other caller never reaches here.
func HandleAction(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var body actionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid action"})
		return
	}

	switch body.Action {
	case "test_connection":
		testConnection(c)
	case "generate_invoice":
		generateInvoice(c, userID, body)
	case "create_charge":
		createCharge(c, userID, body)
	case "suspend_system":
		suspendSystem(c, userID, body)
	case "reactivate_system":
		reactivateSystem(c, userID)
	case "change_cycle":
		changeCycle(c, userID, body)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action: " + body.Action})
	}
}

// testConnection validates the provider credentials without side effects.
// Failures come back as actionable text, never as an opaque status code.
func testConnection(c *gin.Context) {
	client, err := newEfiClient()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err := client.TestConnection(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func generateInvoice(c *gin.Context, userID uint, body actionRequest) {
	if body.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return
	}
	if !billingdomain.IsValidCycle(body.BillingCycle) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid billing_cycle"})
		return
	}

	var plan plans.Plan
	if err := database.DB.First(&plan, body.PlanID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan_id"})
		return
	}

	// The amount comes from the client, but the catalog price wins: an owner
	// cannot invoice themselves below the plan's price for the cycle.
	if expected := plans.PriceFor(&plan, body.BillingCycle); expected > 0 && body.Amount != expected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount does not match the plan price for this cycle"})
		return
	}

	// Invoicing never changes entitlement: an owner with no subscription
	// gets a suspended placeholder row, activated only by payment.
	sub, err := billingdomain.EnsureForUser(database.DB, userID, plan.ID, body.BillingCycle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve subscription"})
		return
	}

	inv, err := billingdomain.GenerateInvoice(database.DB, sub.ID, body.Amount, plan.ID, body.BillingCycle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invoice"})
		return
	}

	_ = audit.Record(database.DB, audit.ActionGenerateInvoice, audit.ActorOwner, &userID, map[string]interface{}{
		"invoice_id":    inv.ID,
		"amount_brl":    inv.AmountBRL,
		"plan_id":       plan.ID,
		"billing_cycle": body.BillingCycle,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "invoice": inv})
}

// createCharge creates the provider-side charge for a pending invoice.
// Exactly-once charge creation, at-least-once code retrieval: an invoice
// that already carries a txid only retries the payment-code round trip.
func createCharge(c *gin.Context, userID uint, body actionRequest) {
	var inv billingdomain.Invoice
	if err := database.DB.Preload("Subscription").First(&inv, body.InvoiceID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}
	if inv.Subscription.UserID != userID && c.GetString("role") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invoice belongs to another account"})
		return
	}
	if inv.Status != billingdomain.InvoicePending {
		c.JSON(http.StatusConflict, gin.H{"error": "Invoice is not pending"})
		return
	}

	// Already charged with codes in hand: idempotent replay.
	if inv.GatewayChargeID != nil && inv.PixCopyPaste != nil && inv.PixQRCode != nil {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"txid":     *inv.GatewayChargeID,
			"qr_code":  *inv.PixCopyPaste,
			"qr_image": *inv.PixQRCode,
		})
		return
	}

	client, err := newEfiClient()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	txid := ""
	locationID := 0
	if inv.GatewayChargeID != nil {
		// Charge exists provider-side; do not create a second one.
		txid = *inv.GatewayChargeID
		if inv.PixLocationID != nil {
			locationID = *inv.PixLocationID
		}
	} else {
		charge, err := client.CreateCharge(ctx, inv.AmountBRL, body.Description, efi.DefaultChargeExpiry)
		if err != nil {
			// No txid was confirmed, so nothing is recorded: the invoice
			// stays pending and the whole operation is safely retryable.
			log.Error().Err(err).Uint("invoice_id", inv.ID).Msg("billing: charge creation failed")
			c.JSON(providerErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		txid = charge.TxID
		locationID = charge.LocationID

		if err := billingdomain.AttachCharge(database.DB, inv.ID, txid, nil, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record charge"})
			return
		}
		if err := database.DB.Model(&billingdomain.Invoice{}).
			Where("id = ?", inv.ID).
			Update("pix_location_id", locationID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record charge location"})
			return
		}

		metrics.ChargesCreated.Inc()
		_ = audit.Record(database.DB, audit.ActionCreateCharge, audit.ActorOwner, &userID, map[string]interface{}{
			"invoice_id": inv.ID,
			"txid":       txid,
			"amount_brl": inv.AmountBRL,
		})
	}

	code, err := client.FetchPaymentCode(ctx, locationID)
	if err != nil {
		// The charge exists; surface the txid so the UI retries only the
		// code retrieval instead of re-creating the charge.
		log.Warn().Err(err).Str("txid", txid).Msg("billing: payment code retrieval failed")
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"txid":     txid,
			"qr_code":  "",
			"qr_image": "",
		})
		return
	}

	if err := billingdomain.AttachCharge(database.DB, inv.ID, txid, &code.CopyPaste, &code.QRCodeImage); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store payment code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"txid":     txid,
		"qr_code":  code.CopyPaste,
		"qr_image": code.QRCodeImage,
	})
}

func suspendSystem(c *gin.Context, userID uint, body actionRequest) {
	err := billingdomain.Suspend(database.DB, userID, body.Reason, audit.ActorOwner, &userID)
	if err != nil {
		respondTransitionError(c, err, "Failed to suspend subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func reactivateSystem(c *gin.Context, userID uint) {
	sub, err := billingdomain.Reactivate(database.DB, userID, audit.ActorOwner, &userID)
	if err != nil {
		respondTransitionError(c, err, "Failed to reactivate subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

func changeCycle(c *gin.Context, userID uint, body actionRequest) {
	if !billingdomain.IsValidCycle(body.BillingCycle) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid billing_cycle"})
		return
	}
	var plan plans.Plan
	if err := database.DB.First(&plan, body.PlanID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan_id"})
		return
	}

	sub, err := billingdomain.ChangeCycle(database.DB, userID, plan.ID, body.BillingCycle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change billing cycle"})
		return
	}

	_ = audit.Record(database.DB, audit.ActionChangeBillingCycle, audit.ActorOwner, &userID, map[string]interface{}{
		"subscription_id": sub.ID,
		"plan_id":         plan.ID,
		"billing_cycle":   body.BillingCycle,
	})

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func respondTransitionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, billingdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case errors.Is(err, billingdomain.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "Subscription is not in a state that allows this action"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func providerErrorStatus(err error) int {
	var ae *efi.AuthError
	var ce *efi.ConfigError
	if errors.As(err, &ae) || errors.As(err, &ce) {
		return http.StatusBadGateway
	}
	if efi.IsRetryable(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
