package gateway

import (
	"encoding/json"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/signing"
	"github.com/fatflowers/vipclub/pkg/types"
)

// Notification is the field map the gateway POSTs to the service URL after
// a payment attempt.
type Notification struct {
	MerchantAccount   string                  `json:"merchantAccount"`
	OrderReference    string                  `json:"orderReference"`
	Amount            json.Number             `json:"amount"`
	Currency          string                  `json:"currency"`
	AuthCode          string                  `json:"authCode"`
	CardPan           string                  `json:"cardPan"`
	TransactionStatus types.TransactionStatus `json:"transactionStatus"`
	ReasonCode        json.Number             `json:"reasonCode"`
	RecToken          string                  `json:"recToken"`
	MerchantSignature string                  `json:"merchantSignature"`
}

// CanonicalFields is the provider's fixed signing order for inbound
// notifications.
func (n *Notification) CanonicalFields() []string {
	return []string{
		n.MerchantAccount,
		n.OrderReference,
		n.Amount.String(),
		n.Currency,
		n.AuthCode,
		n.CardPan,
		string(n.TransactionStatus),
		n.ReasonCode.String(),
	}
}

// MissingRequired reports whether fields the reconciliation path depends on
// are absent. Such notifications are rejected before verification.
func (n *Notification) MissingRequired() bool {
	return n.OrderReference == "" || n.TransactionStatus == "" || n.MerchantSignature == ""
}

// Ack is the acknowledgment the provider expects back; it is signed so the
// provider can authenticate it and stop redelivering.
type Ack struct {
	OrderReference string `json:"orderReference"`
	Status         string `json:"status"`
	Time           int64  `json:"time"`
	Signature      string `json:"signature"`
}

const ackStatusAccept = "accept"

// NewAck builds a signed accept acknowledgment for an order reference.
func NewAck(signer *signing.Signer, orderRef string, at time.Time) *Ack {
	ack := &Ack{OrderReference: orderRef, Status: ackStatusAccept, Time: at.Unix()}
	ack.Signature = signer.Sign(ack.OrderReference, ack.Status, formatUnix(ack.Time))
	return ack
}
