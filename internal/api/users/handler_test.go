package users

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"vitrine-app/config"
	"vitrine-app/database"
	"vitrine-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupVerifyTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	prevDB, prevURL := database.DB, config.FRONTEND_URL
	database.DB = db
	config.FRONTEND_URL = "https://app.vitrine.test"
	t.Cleanup(func() {
		database.DB = prevDB
		config.FRONTEND_URL = prevURL
	})

	r := gin.New()
	r.GET("/verify", VerifyEmail)
	return r
}

func TestVerifyEmail(t *testing.T) {
	r := setupVerifyTest(t)

	user := users.User{Name: "Maria", Email: "maria@example.com"}
	require.NoError(t, database.DB.Create(&user).Error)
	require.NoError(t, database.DB.Create(&users.VerificationToken{
		UserID: user.ID,
		Token:  "tok-verify",
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/verify?token=tok-verify", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Redirects to the configured frontend, not a hard-coded host.
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://app.vitrine.test/signin", w.Header().Get("Location"))

	var got users.User
	require.NoError(t, database.DB.First(&got, user.ID).Error)
	assert.True(t, got.IsVerified)

	// The token is single-use.
	var count int64
	require.NoError(t, database.DB.Model(&users.VerificationToken{}).
		Where("token = ?", "tok-verify").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestVerifyEmailRejectsBadToken(t *testing.T) {
	r := setupVerifyTest(t)

	req := httptest.NewRequest(http.MethodGet, "/verify?token=nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/verify", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
