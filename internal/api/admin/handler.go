package admin

import (
	"net/http"
	"strconv"
	"time"

	"vitrine-app/database"
	"vitrine-app/internal/domain/audit"
	"vitrine-app/internal/domain/billing"
	"vitrine-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type AdminUser struct {
	ID                 uint       `json:"id"`
	Name               string     `json:"name"`
	Lastname           string     `json:"lastname"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	IsVerified         bool       `json:"is_verified"`
	SubscriptionStatus *string    `json:"subscription_status,omitempty"`
	BillingCycle       *string    `json:"billing_cycle,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
}

type AdminInvoice struct {
	ID           uint    `json:"id"`
	OwnerEmail   string  `json:"owner_email"`
	AmountBRL    float64 `json:"amount_brl"`
	Status       string  `json:"status"`
	BillingCycle string  `json:"billing_cycle"`
	TxID         *string `json:"txid,omitempty"`
	DueAt        string  `json:"due_at"`
	CreatedAt    string  `json:"created_at"`
}

type AdminStats struct {
	TotalUsers      int            `json:"total_users"`
	TotalRevenue    float64        `json:"total_revenue"`
	RecentRevenue   float64        `json:"recent_revenue"`
	SubsPerStatus   map[string]int `json:"subscriptions_per_status"`
	PendingInvoices int            `json:"pending_invoices"`
	OverdueInvoices int            `json:"overdue_invoices"`
}

func AdminDashboard(c *gin.Context) {
	var stats AdminStats

	var totalUsers int64
	var totalRevenue float64
	var recentRevenue float64

	database.DB.Model(&users.User{}).Count(&totalUsers)
	database.DB.Model(&billing.Invoice{}).
		Where("status = ?", billing.InvoicePaid).
		Select("COALESCE(SUM(amount_brl), 0)").Scan(&totalRevenue)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&billing.Invoice{}).
		Where("status = ? AND paid_at >= ?", billing.InvoicePaid, thirtyDaysAgo).
		Select("COALESCE(SUM(amount_brl), 0)").Scan(&recentRevenue)

	stats.TotalUsers = int(totalUsers)
	stats.TotalRevenue = totalRevenue
	stats.RecentRevenue = recentRevenue

	type statusCount struct {
		Status string
		Count  int
	}
	var counts []statusCount
	database.DB.Model(&billing.Subscription{}).
		Select("status, COUNT(id) as count").
		Group("status").
		Scan(&counts)

	stats.SubsPerStatus = map[string]int{}
	for _, sc := range counts {
		stats.SubsPerStatus[sc.Status] = sc.Count
	}

	var pending, overdue int64
	database.DB.Model(&billing.Invoice{}).Where("status = ?", billing.InvoicePending).Count(&pending)
	database.DB.Model(&billing.Invoice{}).
		Where("status = ? AND due_at < ?", billing.InvoicePending, time.Now()).Count(&overdue)
	stats.PendingInvoices = int(pending)
	stats.OverdueInvoices = int(overdue)

	c.JSON(http.StatusOK, stats)
}

func ListAllUsers(c *gin.Context) {
	var all []users.User
	if err := database.DB.Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	var subs []billing.Subscription
	database.DB.Find(&subs)
	byUser := map[uint]*billing.Subscription{}
	for i := range subs {
		byUser[subs[i].UserID] = &subs[i]
	}

	var out []AdminUser
	for _, u := range all {
		au := AdminUser{
			ID:         u.ID,
			Name:       u.Name,
			Lastname:   u.Lastname,
			Email:      u.Email,
			Role:       u.Role,
			IsVerified: u.IsVerified,
		}
		if sub, ok := byUser[u.ID]; ok {
			au.SubscriptionStatus = &sub.Status
			au.BillingCycle = &sub.BillingCycle
			au.CurrentPeriodEnd = sub.CurrentPeriodEnd
		}
		out = append(out, au)
	}

	c.JSON(http.StatusOK, out)
}

func ListAllInvoices(c *gin.Context) {
	var invoices []billing.Invoice
	err := database.DB.
		Preload("Subscription").
		Preload("Subscription.User").
		Order("created_at DESC").
		Find(&invoices).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invoices"})
		return
	}

	var out []AdminInvoice
	for _, inv := range invoices {
		out = append(out, AdminInvoice{
			ID:           inv.ID,
			OwnerEmail:   inv.Subscription.User.Email,
			AmountBRL:    inv.AmountBRL,
			Status:       inv.Status,
			BillingCycle: inv.BillingCycle,
			TxID:         inv.GatewayChargeID,
			DueAt:        inv.DueAt.Format("2006-01-02 15:04"),
			CreatedAt:    inv.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	c.JSON(http.StatusOK, out)
}

// ListAuditLog pages the append-only audit trail, newest first.
func ListAuditLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []audit.Entry
	if err := database.DB.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit log"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func GetUserDetails(c *gin.Context) {
	userID := c.Param("id")

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var sub billing.Subscription
	var invoices []billing.Invoice
	if err := database.DB.Preload("Plan").Where("user_id = ?", user.ID).First(&sub).Error; err == nil {
		database.DB.Where("subscription_id = ?", sub.ID).Order("created_at DESC").Find(&invoices)
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"subscription": sub,
		"invoices":     invoices,
	})
}
