package types

import "strings"

// OrderPurpose is the first segment of an order reference. The gateway
// round-trips the reference verbatim, so reconciliation extracts the member
// from it by position.
type OrderPurpose string

const (
	// OrderPurposeSubscription marks a one-time subscription purchase.
	OrderPurposeSubscription OrderPurpose = "sub"
	// OrderPurposeRecurring marks a token-based recurring charge.
	OrderPurposeRecurring OrderPurpose = "recur"
	// OrderPurposeAdmin marks an administrative payment credit grant.
	OrderPurposeAdmin OrderPurpose = "admin"
)

// TransactionStatus is the provider-reported status of one billing attempt.
type TransactionStatus string

// TransactionStatusApproved is the status stamped on internally originated
// credits, matching the provider's success vocabulary.
const TransactionStatusApproved TransactionStatus = "Approved"

// Statuses the provider reports as money collected. Everything else is
// authoritative-but-unsuccessful and must not mutate member state.
var successStatuses = map[string]struct{}{
	"approved": {},
	"success":  {},
	"settled":  {},
}

// Success reports whether the status belongs to the provider's success
// vocabulary. Comparison is case-insensitive.
func (s TransactionStatus) Success() bool {
	_, ok := successStatuses[strings.ToLower(string(s))]
	return ok
}
