package routes

import (
	adminapi "vitrine-app/internal/api/admin"
	authapi "vitrine-app/internal/api/auth"
	"vitrine-app/internal/api/billing"
	"vitrine-app/internal/api/pixwebhook"
	"vitrine-app/internal/api/plans"
	storeapi "vitrine-app/internal/api/store"
	"vitrine-app/internal/api/users"
	"vitrine-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine) {
	r.POST("/webhook/pix", pixwebhook.HandlePixWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)
	public.GET("/plans", plans.ListPlans)
	public.GET("/verify", users.VerifyEmail)
	public.POST("/resend-verification", authapi.ResendVerification)
	public.POST("/request-password-reset", authapi.RequestPasswordReset)
	public.POST("/reset-password", authapi.ResetPassword)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", users.GetCurrentUser)
	auth.POST("/change-password", authapi.ChangePassword)

	auth.GET("/billing/subscription", billing.GetSubscription)
	auth.GET("/billing/invoices", billing.ListInvoices)
	auth.POST("/billing/actions", middleware.RequireRole("owner", "admin"), billing.HandleAction)

	// Subscribed owners
	subscribed := auth.Group("/")
	subscribed.Use(middleware.RequireActiveSubscription())
	subscribed.GET("/store/profile", storeapi.GetProfile)
	subscribed.PUT("/store/profile", storeapi.UpdateProfile)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/dashboard", adminapi.AdminDashboard)
	admin.GET("/users", adminapi.ListAllUsers)
	admin.GET("/invoices", adminapi.ListAllInvoices)
	admin.GET("/audit-log", adminapi.ListAuditLog)
	admin.GET("/user/:id", adminapi.GetUserDetails)
	admin.POST("/plans", plans.UpsertPlan)
}
