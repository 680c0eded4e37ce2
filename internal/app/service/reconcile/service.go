package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/memberlog"
	"github.com/fatflowers/vipclub/internal/app/service/memberstore"
	"github.com/fatflowers/vipclub/internal/app/service/tier"
	"github.com/fatflowers/vipclub/internal/models"
	"github.com/fatflowers/vipclub/pkg/config"
	"github.com/fatflowers/vipclub/pkg/logctx"
	"github.com/fatflowers/vipclub/pkg/types"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ApplyOutcome describes what a payment confirmation did to member state.
type ApplyOutcome string

const (
	// OutcomeApplied: first delivery of this reference, state advanced.
	OutcomeApplied ApplyOutcome = "applied"
	// OutcomeDuplicate: reference already applied, benign no-op.
	OutcomeDuplicate ApplyOutcome = "duplicate"
	// OutcomeIgnoredStatus: authentic but non-success status, no mutation.
	OutcomeIgnoredStatus ApplyOutcome = "ignored_status"
)

type ApplyPaymentRequest struct {
	MemberID   string
	PaymentRef string
	Amount     string
	Status     types.TransactionStatus
	// RecurringToken is stored on first sight and never overwritten.
	RecurringToken string
	Reason         types.MemberChangeReason
}

type ApplyResult struct {
	Outcome ApplyOutcome
	Record  *models.MemberSubscription
}

// LevelInfo is the member-facing read model the chat frontend renders.
type LevelInfo struct {
	MemberID        string             `json:"member_id"`
	Level           int                `json:"level"`
	DiscountPercent int                `json:"discount_percent"`
	Bonus           string             `json:"bonus"`
	PaymentsCount   int                `json:"payments_count"`
	Status          types.MemberStatus `json:"status"`
	NextDueAt       *time.Time         `json:"next_due_at"`
}

// errDuplicateRef aborts the atomic update without persisting anything when
// the idempotency check hits.
var errDuplicateRef = errors.New("payment reference already applied")

// Engine applies confirmed payments to member records exactly once per
// payment reference. The webhook handler and the overdue sweep both
// converge on ApplyPayment; the store's per-key atomic update is the only
// concurrency control they need.
type Engine struct {
	cfg   *config.Config
	store memberstore.Store
	mlog  *memberlog.Service
	log   *zap.SugaredLogger
	clock func() time.Time
}

func NewEngine(cfg *config.Config, store memberstore.Store, mlog *memberlog.Service, log *zap.SugaredLogger) *Engine {
	return &Engine{cfg: cfg, store: store, mlog: mlog, log: log, clock: time.Now}
}

// ApplyPayment applies one billing confirmation. Idempotent per
// req.PaymentRef: redelivery returns the current record unchanged. The
// idempotency check and the mutation run inside one AtomicUpdate, so
// concurrent deliveries of the same confirmation cannot double-increment.
func (e *Engine) ApplyPayment(ctx context.Context, req *ApplyPaymentRequest) (*ApplyResult, error) {
	if req == nil || req.MemberID == "" || req.PaymentRef == "" {
		return nil, fmt.Errorf("member id and payment ref are required")
	}
	reason := req.Reason
	if reason == "" {
		reason = types.MemberChangeReasonPayment
	}

	if !req.Status.Success() {
		// The provider is authoritative: log and leave state alone.
		logctx.FromCtx(ctx, e.log).Infow("payment_status_ignored",
			"member_id", req.MemberID, "payment_ref", req.PaymentRef, "status", req.Status)
		rec, err := e.store.Get(ctx, req.MemberID)
		if err != nil && !errors.Is(err, memberstore.ErrNotFound) {
			return nil, err
		}
		return &ApplyResult{Outcome: OutcomeIgnoredStatus, Record: rec}, nil
	}

	var before *models.MemberSubscription
	rec, err := e.store.AtomicUpdate(ctx, req.MemberID, func(m *models.MemberSubscription) error {
		if m.Applied(req.PaymentRef) {
			return errDuplicateRef
		}
		before = m.Clone()

		now := e.clock()
		m.PaymentsCount++
		m.Level = tier.Calculate(m.PaymentsCount).Level
		m.LastPaymentAt = &now
		due := now.Add(e.cfg.Billing.Period())
		m.NextDueAt = &due
		m.Status = types.MemberStatusActive
		m.LastAppliedPaymentRef = lo.ToPtr(req.PaymentRef)
		if req.RecurringToken != "" && m.RecurringToken == nil {
			m.RecurringToken = lo.ToPtr(req.RecurringToken)
		}
		return nil
	})
	if errors.Is(err, errDuplicateRef) {
		logctx.FromCtx(ctx, e.log).Infow("payment_duplicate",
			"member_id", req.MemberID, "payment_ref", req.PaymentRef)
		cur, gerr := e.store.Get(ctx, req.MemberID)
		if gerr != nil {
			return nil, gerr
		}
		return &ApplyResult{Outcome: OutcomeDuplicate, Record: cur}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply payment %s for member %s: %w", req.PaymentRef, req.MemberID, err)
	}

	logctx.FromCtx(ctx, e.log).Infow("payment_applied",
		"member_id", req.MemberID, "payment_ref", req.PaymentRef,
		"payments_count", rec.PaymentsCount, "level", rec.Level)

	e.mlog.Save(ctx, &models.MemberSubscriptionLog{
		MemberID:   req.MemberID,
		PaymentRef: lo.ToPtr(req.PaymentRef),
		Reason:     reason,
		Before:     datatypes.NewJSONType(before),
		After:      datatypes.NewJSONType(rec.Clone()),
		Extra:      datatypes.JSONMap{"amount": req.Amount},
	})

	return &ApplyResult{Outcome: OutcomeApplied, Record: rec}, nil
}

// Ensure registers a member on first contact with the default record.
func (e *Engine) Ensure(ctx context.Context, memberID string) (*models.MemberSubscription, error) {
	if memberID == "" {
		return nil, fmt.Errorf("member id is required")
	}
	return e.store.Ensure(ctx, memberID)
}

// LevelInfo is the read path. The discount and bonus follow the stored
// (possibly decayed) level, not the raw payment count.
func (e *Engine) LevelInfo(ctx context.Context, memberID string) (*LevelInfo, error) {
	rec, err := e.Ensure(ctx, memberID)
	if err != nil {
		return nil, err
	}
	t := tier.ForLevel(rec.Level)
	return &LevelInfo{
		MemberID:        rec.MemberID,
		Level:           t.Level,
		DiscountPercent: t.DiscountPercent,
		Bonus:           t.Bonus,
		PaymentsCount:   rec.PaymentsCount,
		Status:          rec.Status,
		NextDueAt:       rec.NextDueAt,
	}, nil
}
