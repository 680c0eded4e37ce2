package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/fatflowers/vipclub/internal/app/service/gateway"
	"github.com/fatflowers/vipclub/internal/app/service/memberlog"
	"github.com/fatflowers/vipclub/internal/app/service/memberstore"
	notificationlog "github.com/fatflowers/vipclub/internal/app/service/notification_log"
	"github.com/fatflowers/vipclub/internal/app/service/reconcile"
	"github.com/fatflowers/vipclub/internal/app/service/signing"
	"github.com/fatflowers/vipclub/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type webhookEnv struct {
	router *gin.Engine
	store  memberstore.Store
	signer *signing.Signer
}

func newWebhookEnv(t *testing.T) *webhookEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{
		Gateway: config.GatewayConfig{SecretKey: "flk3409refn54t54t*FNJRET", SigningScheme: "wayforpay-hmac-md5"},
		Billing: config.BillingConfig{Price: 100, Currency: "UAH", PeriodDays: 30, GraceDays: 4},
	}
	signer, err := signing.New(cfg)
	require.NoError(t, err)
	store, err := memberstore.NewMemoryStore("", log)
	require.NoError(t, err)
	engine := reconcile.NewEngine(cfg, store, memberlog.New(nil, log), log)

	r := gin.New()
	RegisterPaymentWebhookRoutes(r.Group("/api/v1/payment/webhook"), engine, signer, notificationlog.New(nil, log), log)
	return &webhookEnv{router: r, store: store, signer: signer}
}

func (e *webhookEnv) notification(orderRef, status, recToken string) map[string]any {
	n := map[string]any{
		"merchantAccount":   "test_merch",
		"orderReference":    orderRef,
		"amount":            "100",
		"currency":          "UAH",
		"authCode":          "123456",
		"cardPan":           "41****1111",
		"transactionStatus": status,
		"reasonCode":        "1100",
	}
	if recToken != "" {
		n["recToken"] = recToken
	}
	n["merchantSignature"] = e.signer.Sign(
		"test_merch", orderRef, "100", "UAH", "123456", "41****1111", status, "1100")
	return n
}

func (e *webhookEnv) post(t *testing.T, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook/wayforpay", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestWebhook_AppliesPaymentAndAcks(t *testing.T) {
	env := newWebhookEnv(t)

	w := env.post(t, env.notification("sub_42_1700000000", "Approved", "tok-42"))
	require.Equal(t, http.StatusOK, w.Code)

	var ack gateway.Ack
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, "sub_42_1700000000", ack.OrderReference)
	assert.Equal(t, "accept", ack.Status)
	require.NoError(t, env.signer.Verify(ack.Signature,
		ack.OrderReference, ack.Status, strconv.FormatInt(ack.Time, 10)))

	rec, err := env.store.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.PaymentsCount)
	assert.Equal(t, 1, rec.Level)
	require.NotNil(t, rec.RecurringToken)
	assert.Equal(t, "tok-42", *rec.RecurringToken)
}

func TestWebhook_DuplicateDeliveryAcksWithoutMutation(t *testing.T) {
	env := newWebhookEnv(t)
	n := env.notification("sub_42_1700000000", "Approved", "")

	require.Equal(t, http.StatusOK, env.post(t, n).Code)
	require.Equal(t, http.StatusOK, env.post(t, n).Code)

	rec, err := env.store.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.PaymentsCount)
}

func TestWebhook_TamperedSignatureRejected(t *testing.T) {
	env := newWebhookEnv(t)
	n := env.notification("sub_42_1700000000", "Approved", "")
	n["amount"] = "999"

	w := env.post(t, n)
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, err := env.store.Get(context.Background(), "42")
	assert.ErrorIs(t, err, memberstore.ErrNotFound)
}

func TestWebhook_MissingFieldsRejected(t *testing.T) {
	env := newWebhookEnv(t)

	w := env.post(t, map[string]any{"merchantAccount": "test_merch"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_UnknownPurposeRejected(t *testing.T) {
	env := newWebhookEnv(t)

	w := env.post(t, env.notification("refund_42_1700000000", "Approved", ""))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_DeclinedStatusAckedWithoutMutation(t *testing.T) {
	env := newWebhookEnv(t)

	w := env.post(t, env.notification("sub_42_1700000000", "Declined", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var ack gateway.Ack
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, "accept", ack.Status)

	_, err := env.store.Get(context.Background(), "42")
	assert.ErrorIs(t, err, memberstore.ErrNotFound)
}
