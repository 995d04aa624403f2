package billing

import (
	"errors"
	"net/http"

	"vitrine-app/database"
	"vitrine-app/internal/domain/access"
	billingdomain "vitrine-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// GetSubscription returns the tenant's subscription plus the access gate
// decision the UI uses to render the billing banner.
func GetSubscription(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sub, err := billingdomain.ForUser(database.DB, userID)
	if err != nil {
		if errors.Is(err, billingdomain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"subscription": nil,
				"access":       access.EvaluateSubscription(nil, false),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}

	awaiting, _ := billingdomain.HasPendingInvoice(database.DB, sub.ID)
	c.JSON(http.StatusOK, gin.H{
		"subscription": sub,
		"access":       access.EvaluateSubscription(sub, awaiting),
	})
}

// ListInvoices returns the tenant's billing history, newest first.
func ListInvoices(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sub, err := billingdomain.ForUser(database.DB, userID)
	if err != nil {
		if errors.Is(err, billingdomain.ErrNotFound) {
			c.JSON(http.StatusOK, []billingdomain.Invoice{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}

	var invoices []billingdomain.Invoice
	if err := database.DB.
		Where("subscription_id = ?", sub.ID).
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invoices"})
		return
	}

	c.JSON(http.StatusOK, invoices)
}
