package store

import (
	"net/http"

	"vitrine-app/database"
	"vitrine-app/internal/domain/store"

	"github.com/gin-gonic/gin"
)

// GetProfile returns the tenant's storefront settings.
func GetProfile(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := store.EnsureProfile(database.DB, userID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load store profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":    profile,
		"public_url": store.BuildPublicURL(profile.Slug),
	})
}

// UpdateProfile edits the storefront settings form. The slug is derived
// once at creation and never changes here, so public URLs stay stable.
func UpdateProfile(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		ContactEmail string `json:"contact_email"`
		ContactPhone string `json:"contact_phone"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	profile, err := store.EnsureProfile(database.DB, userID, body.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load store profile"})
		return
	}

	updates := map[string]interface{}{
		"description":   body.Description,
		"contact_email": body.ContactEmail,
		"contact_phone": body.ContactPhone,
	}
	if body.Name != "" {
		updates["name"] = body.Name
	}

	if err := database.DB.Model(profile).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Store profile updated"})
}
