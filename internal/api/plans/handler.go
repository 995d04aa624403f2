package plans

import (
	"encoding/json"
	"net/http"

	"vitrine-app/database"
	"vitrine-app/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

type PlanDTO struct {
	ID              uint     `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	PriceMonthly    float64  `json:"price_monthly"`
	PriceSemiannual float64  `json:"price_semiannual"`
	PriceAnnual     float64  `json:"price_annual"`
	Features        []string `json:"features"`
}

// ListPlans is the public plan catalog backing the plan cards.
func ListPlans(c *gin.Context) {
	var all []plans.Plan
	if err := database.DB.Where("active = ?", true).Order("price_monthly ASC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}

	out := make([]PlanDTO, 0, len(all))
	for i := range all {
		p := &all[i]
		out = append(out, PlanDTO{
			ID:              p.ID,
			Name:            p.Name,
			Description:     p.Description,
			PriceMonthly:    p.PriceMonthly,
			PriceSemiannual: p.PriceSemiannual,
			PriceAnnual:     p.PriceAnnual,
			Features:        plans.FeatureList(p),
		})
	}
	c.JSON(http.StatusOK, out)
}

type upsertPlanRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	PriceMonthly    float64  `json:"price_monthly"`
	PriceSemiannual float64  `json:"price_semiannual"`
	PriceAnnual     float64  `json:"price_annual"`
	Features        []string `json:"features"`
	Active          *bool    `json:"active"`
}

// UpsertPlan creates or updates a catalog entry (admin only). Price edits
// never touch already-issued invoices: those carry their own snapshot.
func UpsertPlan(c *gin.Context) {
	var body upsertPlanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	features := "[]"
	if len(body.Features) > 0 {
		raw, err := json.Marshal(body.Features)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid features list"})
			return
		}
		features = string(raw)
	}

	active := true
	if body.Active != nil {
		active = *body.Active
	}

	var plan plans.Plan
	err := database.DB.Where("name = ?", body.Name).First(&plan).Error
	if err == nil {
		updates := map[string]interface{}{
			"description":      body.Description,
			"price_monthly":    body.PriceMonthly,
			"price_semiannual": body.PriceSemiannual,
			"price_annual":     body.PriceAnnual,
			"features":         features,
			"active":           active,
		}
		if err := database.DB.Model(&plan).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Plan updated", "plan_id": plan.ID})
		return
	}

	plan = plans.Plan{
		Name:            body.Name,
		Description:     body.Description,
		PriceMonthly:    body.PriceMonthly,
		PriceSemiannual: body.PriceSemiannual,
		PriceAnnual:     body.PriceAnnual,
		Features:        features,
		Active:          active,
	}
	if err := database.DB.Create(&plan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plan created", "plan_id": plan.ID})
}
