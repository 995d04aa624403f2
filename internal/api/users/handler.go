package users

import (
	"errors"
	"net/http"

	"vitrine-app/config"
	"vitrine-app/database"
	"vitrine-app/internal/domain/access"
	"vitrine-app/internal/domain/billing"
	"vitrine-app/internal/domain/store"
	"vitrine-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type UserDTO struct {
	ID         uint    `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Lastname   string  `json:"lastname"`
	Tel        *string `json:"tel,omitempty"`
	Role       string  `json:"role"`
	IsVerified bool    `json:"is_verified"`
}

type StoreDTO struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PublicURL string `json:"public_url"`
	Mode      string `json:"mode"`
}

type MeResponse struct {
	User         UserDTO               `json:"user"`
	Subscription *billing.Subscription `json:"subscription"`
	Access       access.Decision       `json:"access"`
	Capabilities []string              `json:"capabilities"`
	Store        *StoreDTO             `json:"store,omitempty"`
}

// GetCurrentUser powers the account screen: identity, subscription state and
// the access decision every admin screen keys off.
func GetCurrentUser(c *gin.Context) {
	email := c.GetString("email")
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user users.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var sub *billing.Subscription
	awaiting := false
	s, err := billing.ForUser(database.DB, user.ID)
	if err == nil {
		sub = s
		awaiting, _ = billing.HasPendingInvoice(database.DB, s.ID)
	} else if !errors.Is(err, billing.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}

	decision := access.EvaluateSubscription(sub, awaiting)

	var storeDTO *StoreDTO
	if profile, err := store.EnsureProfile(database.DB, user.ID, user.Name); err == nil {
		storeDTO = &StoreDTO{
			Name:      profile.Name,
			Slug:      profile.Slug,
			PublicURL: store.BuildPublicURL(profile.Slug),
			Mode:      string(access.StorefrontModeFor(decision)),
		}
	}

	resp := MeResponse{
		User: UserDTO{
			ID:         user.ID,
			Email:      user.Email,
			Name:       user.Name,
			Lastname:   user.Lastname,
			Tel:        stringPtrIfNotEmpty(user.Tel),
			Role:       user.Role,
			IsVerified: user.IsVerified,
		},
		Subscription: sub,
		Access:       decision,
		Capabilities: access.CapabilitiesFor(decision),
		Store:        storeDTO,
	}

	c.JSON(http.StatusOK, resp)
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	type Token struct {
		UserID int
	}
	var t Token
	if err := database.DB.Table("verification_tokens").Where("token = ?", token).First(&t).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := database.DB.Model(&users.User{}).Where("id = ?", t.UserID).Update("is_verified", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify user"})
		return
	}

	_ = database.DB.Exec("DELETE FROM verification_tokens WHERE token = ?", token)

	c.Redirect(http.StatusTemporaryRedirect, config.FRONTEND_URL+"/signin")
}
