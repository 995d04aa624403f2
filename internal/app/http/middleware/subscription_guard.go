package middleware

import (
	"errors"
	"net/http"

	"vitrine-app/database"
	"vitrine-app/internal/domain/access"
	"vitrine-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// RequireActiveSubscription blocks storefront management routes when the
// owner's subscription does not grant access. Billing routes stay reachable
// so the owner can always pay their way back in.
func RequireActiveSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		sub, err := billing.ForUser(database.DB, userID)
		if err != nil {
			if errors.Is(err, billing.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
					"error":  "No subscription found",
					"status": billing.StatusSuspended,
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load subscription"})
			return
		}

		awaiting, err := billing.HasPendingInvoice(database.DB, sub.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load invoices"})
			return
		}

		decision := access.Evaluate(sub.Status, awaiting)
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":            decision.Reason,
				"status":           decision.Status,
				"awaiting_payment": decision.AwaitingPayment,
			})
			return
		}

		c.Next()
	}
}
