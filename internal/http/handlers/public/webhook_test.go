package public

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/provider"
	"github.com/affiliate-next/internal/repository"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const webhookTestSecret = "handler-webhook-test-secret"

func setupWebhookHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:webhook_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Affiliate{}, &models.Referral{}, &models.WebhookLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{Webhook: config.WebhookConfig{Secret: webhookTestSecret}}
	affiliateRepo := repository.NewAffiliateRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	webhookLogRepo := repository.NewWebhookLogRepository(db)
	container := &provider.Container{
		Config:         cfg,
		AffiliateRepo:  affiliateRepo,
		ReferralRepo:   referralRepo,
		WebhookLogRepo: webhookLogRepo,
		WebhookService: service.NewWebhookService(cfg, affiliateRepo, referralRepo, webhookLogRepo),
	}
	return New(container), db
}

func postWebhook(t *testing.T, h *Handler, handle gin.HandlerFunc, path, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	c.Request = req
	handle(c)
	return w
}

func signWebhookBody(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]interface{}) {
	t.Helper()
	var resp struct {
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode, resp.Data
}

func TestSignupWebhookRejectsBadSignature(t *testing.T) {
	h, db := setupWebhookHandlerTest(t)

	body := `{"ref_code":"HANDLE2A","user_id":"u-1"}`
	w := postWebhook(t, h, h.SignupWebhook, "/api/v1/webhooks/signup", body, "deadbeef")
	if w.Code != http.StatusOK {
		t.Fatalf("envelope status want 200 got %d", w.Code)
	}
	code, _ := decodeEnvelope(t, w)
	if code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}

	var logRow models.WebhookLog
	if err := db.First(&logRow).Error; err != nil {
		t.Fatalf("load webhook log failed: %v", err)
	}
	if logRow.Status != constants.WebhookLogStatusFailed {
		t.Fatalf("log status want failed got %s", logRow.Status)
	}
}

func TestSignupWebhookUnknownCode(t *testing.T) {
	h, _ := setupWebhookHandlerTest(t)

	body := `{"ref_code":"NOSUCH99","user_id":"u-1"}`
	w := postWebhook(t, h, h.SignupWebhook, "/api/v1/webhooks/signup", body, signWebhookBody(body))
	code, _ := decodeEnvelope(t, w)
	if code != 404 {
		t.Fatalf("status_code want 404 got %d", code)
	}
}

func TestSignupWebhookSuccess(t *testing.T) {
	h, db := setupWebhookHandlerTest(t)
	affiliate := models.Affiliate{
		Name:         "tester",
		Email:        "handler@example.com",
		PasswordHash: "hash",
		ReferralCode: "HANDLE2B",
		Status:       constants.AffiliateStatusApproved,
	}
	if err := db.Create(&affiliate).Error; err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}

	body := `{"ref_code":"HANDLE2B","user_id":"u-10","email":"buyer@example.com"}`
	w := postWebhook(t, h, h.SignupWebhook, "/api/v1/webhooks/signup", body, signWebhookBody(body))
	code, data := decodeEnvelope(t, w)
	if code != 0 {
		t.Fatalf("status_code want 0 got %d", code)
	}
	if data["duplicate"] != false {
		t.Fatalf("duplicate want false got %v", data["duplicate"])
	}

	var logRow models.WebhookLog
	if err := db.Where("status = ?", constants.WebhookLogStatusProcessed).First(&logRow).Error; err != nil {
		t.Fatalf("processed webhook log missing: %v", err)
	}
	if logRow.EventType != constants.WebhookEventSignup {
		t.Fatalf("event type want signup got %s", logRow.EventType)
	}
}

func TestPaymentWebhookInvalidAmount(t *testing.T) {
	h, _ := setupWebhookHandlerTest(t)

	body := `{"user_id":"u-10","amount":"-5.00"}`
	w := postWebhook(t, h, h.PaymentWebhook, "/api/v1/webhooks/payment", body, signWebhookBody(body))
	code, _ := decodeEnvelope(t, w)
	if code != 400 {
		t.Fatalf("status_code want 400 got %d", code)
	}
}

func TestPaymentWebhookMissingTransactionID(t *testing.T) {
	h, _ := setupWebhookHandlerTest(t)

	body := `{"user_id":"u-10","amount":"5.00"}`
	w := postWebhook(t, h, h.PaymentWebhook, "/api/v1/webhooks/payment", body, signWebhookBody(body))
	code, _ := decodeEnvelope(t, w)
	if code != 400 {
		t.Fatalf("status_code want 400 got %d", code)
	}
}

func TestPaymentWebhookCommission(t *testing.T) {
	h, db := setupWebhookHandlerTest(t)
	affiliate := models.Affiliate{
		Name:         "tester",
		Email:        "payment@example.com",
		PasswordHash: "hash",
		ReferralCode: "HANDLE2C",
		Status:       constants.AffiliateStatusApproved,
	}
	if err := db.Create(&affiliate).Error; err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}

	signupBody := `{"ref_code":"HANDLE2C","user_id":"u-20"}`
	if w := postWebhook(t, h, h.SignupWebhook, "/api/v1/webhooks/signup", signupBody, signWebhookBody(signupBody)); w.Code != http.StatusOK {
		t.Fatalf("signup webhook failed: %d", w.Code)
	}

	paymentBody := `{"user_id":"u-20","amount":"100.00","transaction_id":"tx-20"}`
	w := postWebhook(t, h, h.PaymentWebhook, "/api/v1/webhooks/payment", paymentBody, signWebhookBody(paymentBody))
	code, data := decodeEnvelope(t, w)
	if code != 0 {
		t.Fatalf("status_code want 0 got %d", code)
	}
	if data["commissioned"] != true {
		t.Fatalf("commissioned want true got %v", data["commissioned"])
	}
	if data["commission"] != "10" {
		t.Fatalf("commission want 10 got %v", data["commission"])
	}
}
