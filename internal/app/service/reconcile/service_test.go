package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/memberlog"
	"github.com/fatflowers/vipclub/internal/app/service/memberstore"
	"github.com/fatflowers/vipclub/pkg/config"
	"github.com/fatflowers/vipclub/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Billing: config.BillingConfig{
			Price:       100,
			Currency:    "UAH",
			ProductName: "VIP subscription",
			PeriodDays:  30,
			GraceDays:   4,
		},
	}
}

func newTestEngine(t *testing.T, at time.Time) (*Engine, memberstore.Store) {
	t.Helper()
	log := zap.NewNop().Sugar()
	store, err := memberstore.NewMemoryStore("", log)
	require.NoError(t, err)
	e := NewEngine(testConfig(), store, memberlog.New(nil, log), log)
	e.clock = func() time.Time { return at }
	return e, store
}

func TestApplyPayment_FirstPayment(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, now)
	ctx := context.Background()

	res, err := e.ApplyPayment(ctx, &ApplyPaymentRequest{
		MemberID:   "42",
		PaymentRef: "sub_42_1000",
		Amount:     "100",
		Status:     "Approved",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, res.Outcome)

	rec := res.Record
	assert.Equal(t, 1, rec.PaymentsCount)
	assert.Equal(t, 1, rec.Level)
	assert.Equal(t, types.MemberStatusActive, rec.Status)
	require.NotNil(t, rec.LastPaymentAt)
	assert.Equal(t, now, *rec.LastPaymentAt)
	require.NotNil(t, rec.NextDueAt)
	assert.Equal(t, now.Add(30*24*time.Hour), *rec.NextDueAt)
	require.NotNil(t, rec.LastAppliedPaymentRef)
	assert.Equal(t, "sub_42_1000", *rec.LastAppliedPaymentRef)

	info, err := e.LevelInfo(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 20, info.DiscountPercent)
}

func TestApplyPayment_EleventhPaymentReachesTopTier(t *testing.T) {
	now := time.Now()
	e, _ := newTestEngine(t, now)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := e.ApplyPayment(ctx, &ApplyPaymentRequest{
			MemberID:   "42",
			PaymentRef: "sub_42_" + string(rune('a'+i)),
			Status:     "approved",
		})
		require.NoError(t, err)
	}

	res, err := e.ApplyPayment(ctx, &ApplyPaymentRequest{
		MemberID:   "42",
		PaymentRef: "sub_42_final",
		Status:     "settled",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, res.Record.PaymentsCount)
	assert.Equal(t, 6, res.Record.Level)

	info, err := e.LevelInfo(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 45, info.DiscountPercent)
	assert.Equal(t, "two coffees + shake", info.Bonus)
}

func TestApplyPayment_DuplicateReferenceIsNoOp(t *testing.T) {
	now := time.Now()
	e, _ := newTestEngine(t, now)
	ctx := context.Background()

	first, err := e.ApplyPayment(ctx, &ApplyPaymentRequest{
		MemberID: "42", PaymentRef: "sub_42_1000", Status: "approved",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, first.Outcome)

	second, err := e.ApplyPayment(ctx, &ApplyPaymentRequest{
		MemberID: "42", PaymentRef: "sub_42_1000", Status: "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	assert.Equal(t, 1, second.Record.PaymentsCount)
	assert.Equal(t, 1, second.Record.Level)
	assert.Equal(t, first.Record.NextDueAt.Unix(), second.Record.NextDueAt.Unix())
}

func TestApplyPayment_OrderingIndependence(t *testing.T) {
	now := time.Now()
	ctx := context.Background()

	run := func(refs []string) (int, int) {
		e, _ := newTestEngine(t, now)
		for _, ref := range refs {
			_, err := e.ApplyPayment(ctx, &ApplyPaymentRequest{
				MemberID: "42", PaymentRef: ref, Status: "approved",
			})
			require.NoError(t, err)
		}
		info, err := e.LevelInfo(ctx, "42")
		require.NoError(t, err)
		return info.PaymentsCount, info.Level
	}

	p1, l1 := run([]string{"sub_42_1", "sub_42_2"})
	p2, l2 := run([]string{"sub_42_2", "sub_42_1"})
	assert.Equal(t, p1, p2)
	assert.Equal(t, l1, l2)
}

func TestApplyPayment_NonSuccessStatusDoesNotMutate(t *testing.T) {
	now := time.Now()
	e, store := newTestEngine(t, now)
	ctx := context.Background()

	res, err := e.ApplyPayment(ctx, &ApplyPaymentRequest{
		MemberID: "42", PaymentRef: "sub_42_1000", Status: "Declined",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnoredStatus, res.Outcome)
	assert.Nil(t, res.Record)

	_, err = store.Get(ctx, "42")
	assert.ErrorIs(t, err, memberstore.ErrNotFound)
}

func TestApplyPayment_RecurringTokenStoredFirstSeenOnly(t *testing.T) {
	now := time.Now()
	e, _ := newTestEngine(t, now)
	ctx := context.Background()

	res, err := e.ApplyPayment(ctx, &ApplyPaymentRequest{
		MemberID: "42", PaymentRef: "sub_42_1", Status: "approved", RecurringToken: "tok-original",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Record.RecurringToken)
	assert.Equal(t, "tok-original", *res.Record.RecurringToken)

	res, err = e.ApplyPayment(ctx, &ApplyPaymentRequest{
		MemberID: "42", PaymentRef: "recur_42_2", Status: "approved", RecurringToken: "tok-other",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Record.RecurringToken)
	assert.Equal(t, "tok-original", *res.Record.RecurringToken)
}

func TestApplyPayment_RequiresMemberAndRef(t *testing.T) {
	e, _ := newTestEngine(t, time.Now())
	ctx := context.Background()

	_, err := e.ApplyPayment(ctx, &ApplyPaymentRequest{PaymentRef: "sub_42_1", Status: "approved"})
	require.Error(t, err)
	_, err = e.ApplyPayment(ctx, &ApplyPaymentRequest{MemberID: "42", Status: "approved"})
	require.Error(t, err)
}

func TestLevelInfo_RegistersNewMember(t *testing.T) {
	e, _ := newTestEngine(t, time.Now())
	ctx := context.Background()

	info, err := e.LevelInfo(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Level)
	assert.Equal(t, 0, info.DiscountPercent)
	assert.Equal(t, 0, info.PaymentsCount)
	assert.Equal(t, types.MemberStatusInactive, info.Status)
	assert.Nil(t, info.NextDueAt)
}
