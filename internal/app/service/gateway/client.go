package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/signing"
	"github.com/fatflowers/vipclub/pkg/config"
	"github.com/fatflowers/vipclub/pkg/logctx"
	"github.com/fatflowers/vipclub/pkg/types"

	"go.uber.org/zap"
)

const apiVersion = 1

// Client is the outbound side of the payment gateway: it requests invoice
// links for one-time purchases and submits token-based recurring charges.
// Every call carries the configured bounded timeout; a timeout or transport
// error surfaces as a failed attempt, never a crash.
type Client struct {
	cfg    *config.Config
	signer *signing.Signer
	http   *http.Client
	log    *zap.SugaredLogger
	clock  func() time.Time
}

func NewClient(cfg *config.Config, signer *signing.Signer, log *zap.SugaredLogger) *Client {
	timeout := cfg.Gateway.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		signer: signer,
		http:   &http.Client{Timeout: timeout},
		log:    log,
		clock:  time.Now,
	}
}

// Invoice is the one-time purchase result: a hosted payment page URL.
type Invoice struct {
	OrderReference string `json:"order_reference"`
	InvoiceURL     string `json:"invoice_url"`
}

// ChargeResult is the outcome of a recurring charge attempt.
type ChargeResult struct {
	OrderReference    string                  `json:"order_reference"`
	TransactionStatus types.TransactionStatus `json:"transaction_status"`
	Reason            string                  `json:"reason,omitempty"`
}

type invoiceResponse struct {
	InvoiceURL string      `json:"invoiceUrl"`
	Reason     string      `json:"reason"`
	ReasonCode json.Number `json:"reasonCode"`
}

type chargeResponse struct {
	TransactionStatus types.TransactionStatus `json:"transactionStatus"`
	OrderStatus       types.TransactionStatus `json:"orderStatus"`
	Reason            string                  `json:"reason"`
	ReasonCode        json.Number             `json:"reasonCode"`
}

// CreateInvoice asks the gateway for a hosted invoice URL for one
// subscription period.
func (c *Client) CreateInvoice(ctx context.Context, memberID string) (*Invoice, error) {
	now := c.clock()
	orderRef := BuildOrderReference(types.OrderPurposeSubscription, memberID, now)
	price := c.cfg.Billing.Price

	payload := c.basePayload(orderRef, now, price)
	payload["requestType"] = "CREATE_INVOICE"
	payload["language"] = "UA"
	payload["serviceUrl"] = c.cfg.Gateway.CallbackURL

	var res invoiceResponse
	if err := c.post(ctx, payload, &res); err != nil {
		return nil, fmt.Errorf("create invoice for member %s: %w", memberID, err)
	}
	if res.InvoiceURL == "" {
		return nil, fmt.Errorf("gateway refused invoice for member %s: %s (code %s)", memberID, res.Reason, res.ReasonCode)
	}
	logctx.FromCtx(ctx, c.log).Infow("invoice_created", "member_id", memberID, "order_reference", orderRef)
	return &Invoice{OrderReference: orderRef, InvoiceURL: res.InvoiceURL}, nil
}

// ChargeRecurring submits a token-based charge for one subscription period.
// The returned status is the provider's verdict; callers feed it to the
// reconciliation engine unchanged.
func (c *Client) ChargeRecurring(ctx context.Context, memberID, recToken string) (*ChargeResult, error) {
	if recToken == "" {
		return nil, fmt.Errorf("recurring charge for member %s: no recurring token", memberID)
	}
	now := c.clock()
	orderRef := BuildOrderReference(types.OrderPurposeRecurring, memberID, now)

	payload := c.basePayload(orderRef, now, c.cfg.Billing.Price)
	payload["transactionType"] = "RECURRING"
	payload["recToken"] = recToken

	var res chargeResponse
	if err := c.post(ctx, payload, &res); err != nil {
		return nil, fmt.Errorf("recurring charge for member %s: %w", memberID, err)
	}

	status := res.TransactionStatus
	if status == "" {
		status = res.OrderStatus
	}
	logctx.FromCtx(ctx, c.log).Infow("recurring_charge_result",
		"member_id", memberID, "order_reference", orderRef, "status", status, "reason", res.Reason)
	return &ChargeResult{OrderReference: orderRef, TransactionStatus: status, Reason: res.Reason}, nil
}

// basePayload assembles the canonical field set shared by every request
// type, signed in the provider's purchase field order.
func (c *Client) basePayload(orderRef string, at time.Time, price int64) map[string]any {
	amount := strconv.FormatInt(price, 10)
	orderDate := at.Unix()
	payload := map[string]any{
		"apiVersion":         apiVersion,
		"merchantAccount":    c.cfg.Gateway.MerchantAccount,
		"merchantDomainName": c.cfg.Gateway.MerchantDomain,
		"orderReference":     orderRef,
		"orderDate":          orderDate,
		"amount":             amount,
		"currency":           c.cfg.Billing.Currency,
		"productName":        []string{c.cfg.Billing.ProductName},
		"productPrice":       []int64{price},
		"productCount":       []int{1},
	}
	payload["merchantSignature"] = c.signer.Sign(
		c.cfg.Gateway.MerchantAccount,
		c.cfg.Gateway.MerchantDomain,
		orderRef,
		formatUnix(orderDate),
		amount,
		c.cfg.Billing.Currency,
	)
	return payload
}

func (c *Client) post(ctx context.Context, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Gateway.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned HTTP %d: %s", resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse gateway response: %w", err)
	}
	return nil
}

func formatUnix(ts int64) string {
	return strconv.FormatInt(ts, 10)
}
