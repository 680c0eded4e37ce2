package models

import (
	"time"

	"github.com/fatflowers/vipclub/pkg/types"
)

// MemberSubscription is the per-member record the reconciliation engine and
// the overdue sweep contend on. Level is derived from PaymentsCount (minus
// decay); no code path sets it independently.
type MemberSubscription struct {
	ID       string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	MemberID string `gorm:"column:member_id;type:varchar(64);not null;uniqueIndex" json:"member_id"`
	// PaymentsCount is monotonically non-decreasing outside administrative
	// correction.
	PaymentsCount int `gorm:"column:payments_count;not null;default:0" json:"payments_count"`
	Level         int `gorm:"column:level;not null;default:0" json:"level"`
	// RecurringToken is the reusable charge credential returned by the
	// gateway after the first successful card payment.
	RecurringToken *string    `gorm:"column:recurring_token;type:varchar(256)" json:"recurring_token,omitempty"`
	LastPaymentAt  *time.Time `gorm:"column:last_payment_at;default:null" json:"last_payment_at"`
	// NextDueAt only ever advances forward, and only on a successful payment.
	NextDueAt *time.Time         `gorm:"column:next_due_at;default:null" json:"next_due_at"`
	Status    types.MemberStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	// LastAppliedPaymentRef is the idempotency key: a payment reference equal
	// to it is never applied a second time.
	LastAppliedPaymentRef *string   `gorm:"column:last_applied_payment_ref;type:varchar(128)" json:"last_applied_payment_ref,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (MemberSubscription) TableName() string { return "member_subscription" }

// Due reports whether the member is past the billing due date at now.
func (m *MemberSubscription) Due(now time.Time) bool {
	return m != nil && m.NextDueAt != nil && !now.Before(*m.NextDueAt)
}

// Applied reports whether ref has already been applied to this record.
func (m *MemberSubscription) Applied(ref string) bool {
	return m != nil && m.LastAppliedPaymentRef != nil && *m.LastAppliedPaymentRef == ref
}

// Clone returns a deep copy, so store callers can mutate freely.
func (m *MemberSubscription) Clone() *MemberSubscription {
	if m == nil {
		return nil
	}
	cp := *m
	if m.RecurringToken != nil {
		v := *m.RecurringToken
		cp.RecurringToken = &v
	}
	if m.LastPaymentAt != nil {
		v := *m.LastPaymentAt
		cp.LastPaymentAt = &v
	}
	if m.NextDueAt != nil {
		v := *m.NextDueAt
		cp.NextDueAt = &v
	}
	if m.LastAppliedPaymentRef != nil {
		v := *m.LastAppliedPaymentRef
		cp.LastAppliedPaymentRef = &v
	}
	return &cp
}
