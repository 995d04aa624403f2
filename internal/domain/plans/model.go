package plans

import "time"

type Plan struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null;uniqueIndex:idx_plans_name"`
	Description string

	// Price per billing cycle, in BRL
	PriceMonthly    float64 `gorm:"column:price_monthly"`
	PriceSemiannual float64 `gorm:"column:price_semiannual"`
	PriceAnnual     float64 `gorm:"column:price_annual"`

	// JSON array of feature strings, rendered by the plan cards
	Features string `gorm:"type:text"`

	Active bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
