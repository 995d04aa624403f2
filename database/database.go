package database

import (
	"os"

	"vitrine-app/internal/domain/audit"
	"vitrine-app/internal/domain/billing"
	"vitrine-app/internal/domain/plans"
	"vitrine-app/internal/domain/store"
	"vitrine-app/internal/domain/users"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal().Msg("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatal().Err(err).Msg("automigrate failed")
	}

	log.Info().Msg("connected and migrated successfully")
}

// Migrate runs schema migration for every domain model. Tests reuse it
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&users.VerificationToken{},
		&plans.Plan{},

		&billing.Subscription{},
		&billing.Invoice{},

		&store.Profile{},
		&audit.Entry{},
	)
}
