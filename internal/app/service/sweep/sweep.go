package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/gateway"
	"github.com/fatflowers/vipclub/internal/app/service/memberlog"
	"github.com/fatflowers/vipclub/internal/app/service/memberstore"
	"github.com/fatflowers/vipclub/internal/app/service/reconcile"
	"github.com/fatflowers/vipclub/internal/app/service/statistics"
	"github.com/fatflowers/vipclub/internal/app/service/tier"
	"github.com/fatflowers/vipclub/internal/models"
	"github.com/fatflowers/vipclub/pkg/config"
	"github.com/fatflowers/vipclub/pkg/types"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Charger is the outbound recurring-charge capability the sweep needs from
// the gateway client.
type Charger interface {
	ChargeRecurring(ctx context.Context, memberID, recToken string) (*gateway.ChargeResult, error)
}

// errNothingToDecay aborts a decay update without persisting.
var errNothingToDecay = errors.New("nothing to decay")

// Sweeper is the periodic pass over due members. Each tick it (a) charges
// members holding a recurring token through the same idempotent payment
// path the webhook uses and (b) decays tiers of members lapsed past the
// grace window. A gateway failure on one member is logged and retried next
// tick; it never decays a tier by itself and never stops the pass.
type Sweeper struct {
	cfg    *config.Config
	store  memberstore.Store
	engine *reconcile.Engine
	gw     Charger
	mlog   *memberlog.Service
	stats  *statistics.Service
	log    *zap.SugaredLogger
	clock  func() time.Time
}

func NewSweeper(cfg *config.Config, store memberstore.Store, engine *reconcile.Engine, gw Charger, mlog *memberlog.Service, stats *statistics.Service, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{
		cfg:    cfg,
		store:  store,
		engine: engine,
		gw:     gw,
		mlog:   mlog,
		stats:  stats,
		log:    log,
		clock:  time.Now,
	}
}

// Tick runs one full sweep pass. Exported so the tick boundary is explicit
// and unit-testable without wall-clock sleeping.
func (s *Sweeper) Tick(ctx context.Context) {
	now := s.clock()
	due, err := s.store.ListDue(ctx, now)
	if err != nil {
		s.log.Errorw("sweep_list_due_failed", "error", err)
		return
	}
	s.log.Infow("sweep_tick", "due_members", len(due))

	for _, m := range due {
		select {
		case <-ctx.Done():
			s.log.Warnw("sweep_tick_interrupted", "remaining", len(due))
			return
		default:
		}
		s.sweepMember(ctx, m, now)
	}

	if err := s.stats.SnapshotLevels(ctx); err != nil {
		s.log.Warnw("sweep_snapshot_failed", "error", err)
	}
}

// sweepMember handles one due member under the per-member timeout so one
// slow gateway call cannot starve the rest of the pass.
func (s *Sweeper) sweepMember(ctx context.Context, m *models.MemberSubscription, now time.Time) {
	timeout := s.cfg.Sweep.MemberTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	mctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if m.RecurringToken != nil && *m.RecurringToken != "" {
		res, err := s.gw.ChargeRecurring(mctx, m.MemberID, *m.RecurringToken)
		switch {
		case err != nil:
			// transient: retried on the next tick
			s.log.Warnw("sweep_recurring_charge_failed", "member_id", m.MemberID, "error", err)
		case res.TransactionStatus.Success():
			if _, err := s.engine.ApplyPayment(mctx, &reconcile.ApplyPaymentRequest{
				MemberID:   m.MemberID,
				PaymentRef: res.OrderReference,
				Status:     res.TransactionStatus,
				Reason:     types.MemberChangeReasonPayment,
			}); err != nil {
				s.log.Errorw("sweep_apply_payment_failed",
					"member_id", m.MemberID, "payment_ref", res.OrderReference, "error", err)
				break
			}
			// paid up: no decay this tick
			return
		default:
			s.log.Infow("sweep_recurring_not_approved",
				"member_id", m.MemberID, "status", res.TransactionStatus, "reason", res.Reason)
		}
	}

	s.decay(mctx, m.MemberID, now)
}

// decay lowers the tier of a member lapsed past the grace window. The
// policy is proportional and idempotent per tick: the effective level is
// derived as tier(payments_count) minus elapsed grace periods, so a
// long-unattended process converges to the same level a continuously
// running one would, and repeated ticks within the same grace period do
// not decay twice. Decay never touches payments_count, recurring_token or
// last_applied_payment_ref.
func (s *Sweeper) decay(ctx context.Context, memberID string, now time.Time) {
	var before *models.MemberSubscription
	rec, err := s.store.AtomicUpdate(ctx, memberID, func(m *models.MemberSubscription) error {
		if m.NextDueAt == nil {
			return errNothingToDecay
		}
		grace := s.cfg.Billing.Grace()
		if grace <= 0 {
			return errNothingToDecay
		}
		steps := int(now.Sub(*m.NextDueAt) / grace)
		if steps < 1 {
			return errNothingToDecay
		}

		target := tier.Calculate(m.PaymentsCount).Level - steps
		if target < 0 {
			target = 0
		}

		changed := false
		if target < m.Level {
			before = m.Clone()
			m.Level = target
			changed = true
		}
		if m.Status != types.MemberStatusInactive {
			if before == nil {
				before = m.Clone()
			}
			m.Status = types.MemberStatusInactive
			changed = true
		}
		if !changed {
			return errNothingToDecay
		}
		return nil
	})
	if errors.Is(err, errNothingToDecay) {
		return
	}
	if err != nil {
		s.log.Errorw("sweep_decay_failed", "member_id", memberID, "error", err)
		return
	}

	s.log.Infow("member_decayed", "member_id", memberID, "level", rec.Level)
	s.mlog.Save(ctx, &models.MemberSubscriptionLog{
		MemberID: memberID,
		Reason:   types.MemberChangeReasonDecay,
		Before:   datatypes.NewJSONType(before),
		After:    datatypes.NewJSONType(rec.Clone()),
		Extra:    datatypes.JSONMap{"swept_at": now},
	})
}
