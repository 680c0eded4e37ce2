package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/signing"
	"github.com/fatflowers/vipclub/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gatewayConfig(apiURL string) *config.Config {
	return &config.Config{
		Gateway: config.GatewayConfig{
			MerchantAccount: "test_merch",
			MerchantDomain:  "club.example.com",
			SecretKey:       "flatline",
			APIURL:          apiURL,
			CallbackURL:     "https://club.example.com/api/v1/payment/webhook/wayforpay",
			SigningScheme:   signing.SchemeHMACMD5,
			Timeout:         5 * time.Second,
		},
		Billing: config.BillingConfig{
			Price:       100,
			Currency:    "UAH",
			ProductName: "VIP subscription",
			PeriodDays:  30,
			GraceDays:   4,
		},
	}
}

func newTestClient(t *testing.T, cfg *config.Config) (*Client, *signing.Signer) {
	t.Helper()
	signer, err := signing.New(cfg)
	require.NoError(t, err)
	c := NewClient(cfg, signer, zap.NewNop().Sugar())
	c.clock = func() time.Time { return time.Unix(1700000000, 0) }
	return c, signer
}

func TestCreateInvoice(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"invoiceUrl": "https://pay.example/i/abc"})
	}))
	defer srv.Close()

	cfg := gatewayConfig(srv.URL)
	c, signer := newTestClient(t, cfg)

	inv, err := c.CreateInvoice(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/i/abc", inv.InvoiceURL)
	assert.Equal(t, "sub_42_1700000000", inv.OrderReference)

	assert.Equal(t, "CREATE_INVOICE", got["requestType"])
	assert.Equal(t, "test_merch", got["merchantAccount"])
	assert.Equal(t, "100", got["amount"])
	assert.Equal(t, "UAH", got["currency"])
	assert.Equal(t, cfg.Gateway.CallbackURL, got["serviceUrl"])

	// the request signature covers the canonical purchase fields
	wantSig := signer.Sign("test_merch", "club.example.com", "sub_42_1700000000", "1700000000", "100", "UAH")
	assert.Equal(t, wantSig, got["merchantSignature"])
}

func TestCreateInvoice_GatewayRefuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"reason": "Merchant not found", "reasonCode": 1101})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, gatewayConfig(srv.URL))
	_, err := c.CreateInvoice(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Merchant not found")
}

func TestChargeRecurring_Approved(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"transactionStatus": "Approved"})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, gatewayConfig(srv.URL))
	res, err := c.ChargeRecurring(context.Background(), "42", "tok-123")
	require.NoError(t, err)
	assert.True(t, res.TransactionStatus.Success())
	assert.Equal(t, "recur_42_1700000000", res.OrderReference)
	assert.Equal(t, "RECURRING", got["transactionType"])
	assert.Equal(t, "tok-123", got["recToken"])
}

func TestChargeRecurring_FallsBackToOrderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"orderStatus": "Declined", "reason": "Insufficient funds"})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, gatewayConfig(srv.URL))
	res, err := c.ChargeRecurring(context.Background(), "42", "tok-123")
	require.NoError(t, err)
	assert.False(t, res.TransactionStatus.Success())
	assert.Equal(t, "Insufficient funds", res.Reason)
}

func TestChargeRecurring_RequiresToken(t *testing.T) {
	c, _ := newTestClient(t, gatewayConfig("http://127.0.0.1:0"))
	_, err := c.ChargeRecurring(context.Background(), "42", "")
	require.Error(t, err)
}

func TestPost_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, gatewayConfig(srv.URL))
	_, err := c.CreateInvoice(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestNotification_SignatureRoundTrip(t *testing.T) {
	cfg := gatewayConfig("")
	signer, err := signing.New(cfg)
	require.NoError(t, err)

	n := &Notification{
		MerchantAccount:   "test_merch",
		OrderReference:    "sub_42_1000",
		Amount:            json.Number("100"),
		Currency:          "UAH",
		AuthCode:          "123456",
		CardPan:           "41****1111",
		TransactionStatus: "Approved",
		ReasonCode:        json.Number("1100"),
	}
	n.MerchantSignature = signer.Sign(n.CanonicalFields()...)
	require.NoError(t, signer.Verify(n.MerchantSignature, n.CanonicalFields()...))

	n.Amount = json.Number("101")
	assert.ErrorIs(t, signer.Verify(n.MerchantSignature, n.CanonicalFields()...), signing.ErrSignatureMismatch)
}

func TestNewAck_IsSigned(t *testing.T) {
	cfg := gatewayConfig("")
	signer, err := signing.New(cfg)
	require.NoError(t, err)

	at := time.Unix(1700000000, 0)
	ack := NewAck(signer, "sub_42_1000", at)
	assert.Equal(t, "accept", ack.Status)
	assert.Equal(t, int64(1700000000), ack.Time)
	require.NoError(t, signer.Verify(ack.Signature, "sub_42_1000", "accept", "1700000000"))
}
