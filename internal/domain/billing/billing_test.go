package billing_test

import (
	"testing"

	"vitrine-app/database"
	"vitrine-app/internal/domain/billing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTrialSubscription(t *testing.T, db *gorm.DB, userID uint) *billing.Subscription {
	t.Helper()
	sub, err := billing.StartTrial(db, userID, nil)
	require.NoError(t, err)
	return sub
}
