package pixwebhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"vitrine-app/config"
	"vitrine-app/database"
	"vitrine-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "whsec-test"

func setupWebhookTest(t *testing.T) *gin.Engine {
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

	prevDB, prevSecret := database.DB, config.PIX_WEBHOOK_SECRET
	database.DB = db
	config.PIX_WEBHOOK_SECRET = testSecret
	t.Cleanup(func() {
		database.DB = prevDB
		config.PIX_WEBHOOK_SECRET = prevSecret
	})

	r := gin.New()
	r.POST("/webhook/pix", HandlePixWebhook)
	return r
}

func sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func deliver(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/pix", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createPendingInvoice(t *testing.T, txid string) *billing.Invoice {
	t.Helper()
	sub, err := billing.StartTrial(database.DB, 1, nil)
	require.NoError(t, err)
	inv, err := billing.GenerateInvoice(database.DB, sub.ID, 199.90, 2, billing.CycleMonthly)
	require.NoError(t, err)
	require.NoError(t, billing.AttachCharge(database.DB, inv.ID, txid, nil, nil))
	return inv
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	r := setupWebhookTest(t)
	w := deliver(r, []byte(`{"txid":"abc"}`), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r := setupWebhookTest(t)
	w := deliver(r, []byte(`{"txid":"abc"}`), "deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookAcceptsSignatureInQuery(t *testing.T) {
	r := setupWebhookTest(t)
	payload := []byte(`{"txid":"unknown-txid"}`)

	req := httptest.NewRequest(http.MethodPost, "/webhook/pix?hmac="+sign(payload), bytes.NewReader(payload))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	r := setupWebhookTest(t)

	for _, payload := range [][]byte{
		[]byte(`not json`),
		[]byte(`{}`),
		[]byte(`{"pix":[{"e2eid":"no-txid-here"}]}`),
	} {
		w := deliver(r, payload, sign(payload))
		assert.Equal(t, http.StatusBadRequest, w.Code, "payload: %s", payload)
	}
}

func TestWebhookUnknownTxidStillSucceeds(t *testing.T) {
	r := setupWebhookTest(t)
	payload := []byte(`{"pix":[{"txid":"never-seen"}]}`)
	w := deliver(r, payload, sign(payload))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookAppliesPayment(t *testing.T) {
	r := setupWebhookTest(t)
	inv := createPendingInvoice(t, "txid-pay-me")

	payload := []byte(`{"pix":[{"txid":"txid-pay-me"}]}`)
	w := deliver(r, payload, sign(payload))
	require.Equal(t, http.StatusOK, w.Code)

	var got billing.Invoice
	require.NoError(t, database.DB.First(&got, inv.ID).Error)
	assert.Equal(t, billing.InvoicePaid, got.Status)

	sub, err := billing.ForUser(database.DB, 1)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusActive, sub.Status)
}

func TestWebhookDuplicateDeliveryExtendsOnce(t *testing.T) {
	r := setupWebhookTest(t)
	createPendingInvoice(t, "txid-dup")

	payload := []byte(`{"pix":[{"txid":"txid-dup"}]}`)
	require.Equal(t, http.StatusOK, deliver(r, payload, sign(payload)).Code)

	first, err := billing.ForUser(database.DB, 1)
	require.NoError(t, err)
	firstEnd := *first.CurrentPeriodEnd

	require.Equal(t, http.StatusOK, deliver(r, payload, sign(payload)).Code)

	second, err := billing.ForUser(database.DB, 1)
	require.NoError(t, err)
	assert.Equal(t, firstEnd, *second.CurrentPeriodEnd)
}

func TestWebhookIgnoresNonPaidStatus(t *testing.T) {
	r := setupWebhookTest(t)
	inv := createPendingInvoice(t, "txid-waiting")

	payload := []byte(`{"txid":"txid-waiting","status":"ATIVA"}`)
	w := deliver(r, payload, sign(payload))
	require.Equal(t, http.StatusOK, w.Code)

	var got billing.Invoice
	require.NoError(t, database.DB.First(&got, inv.ID).Error)
	assert.Equal(t, billing.InvoicePending, got.Status)
}

func TestWebhookWithoutSecretConfigured(t *testing.T) {
	r := setupWebhookTest(t)
	config.PIX_WEBHOOK_SECRET = ""

	w := deliver(r, []byte(`{"txid":"abc"}`), "anything")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"txid":"abc"}`)

	require.NoError(t, VerifySignature(testSecret, payload, sign(payload)))
	assert.ErrorIs(t, VerifySignature(testSecret, payload, ""), ErrMissingSignature)
	assert.ErrorIs(t, VerifySignature(testSecret, payload, "deadbeef"), ErrBadSignature)
	assert.ErrorIs(t, VerifySignature("other-secret", payload, sign(payload)), ErrBadSignature)
}
