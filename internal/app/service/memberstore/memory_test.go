package memberstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fatflowers/vipclub/internal/models"
	"github.com/fatflowers/vipclub/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore("", zap.NewNop().Sugar())
	require.NoError(t, err)
	return s
}

func TestMemoryStore_EnsureCreatesDefaultRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "42")
	require.ErrorIs(t, err, ErrNotFound)

	rec, err := s.Ensure(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", rec.MemberID)
	assert.Equal(t, 0, rec.PaymentsCount)
	assert.Equal(t, 0, rec.Level)
	assert.Equal(t, types.MemberStatusInactive, rec.Status)
	require.NotEmpty(t, rec.ID)

	// idempotent: second ensure keeps the same record
	again, err := s.Ensure(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
}

func TestMemoryStore_AtomicUpdate_AbortKeepsOldState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AtomicUpdate(ctx, "42", func(m *models.MemberSubscription) error {
		m.PaymentsCount = 1
		return nil
	})
	require.NoError(t, err)

	_, err = s.AtomicUpdate(ctx, "42", func(m *models.MemberSubscription) error {
		m.PaymentsCount = 99
		return assert.AnError
	})
	require.Error(t, err)

	rec, err := s.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.PaymentsCount)
}

func TestMemoryStore_AtomicUpdate_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := s.AtomicUpdate(ctx, "42", func(m *models.MemberSubscription) error {
				m.PaymentsCount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := s.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, n, rec.PaymentsCount)
}

func TestMemoryStore_SnapshotSurvivesRestart(t *testing.T) {
	file := filepath.Join(t.TempDir(), "members.json")
	ctx := context.Background()

	s1, err := NewMemoryStore(file, zap.NewNop().Sugar())
	require.NoError(t, err)
	_, err = s1.AtomicUpdate(ctx, "42", func(m *models.MemberSubscription) error {
		m.PaymentsCount = 3
		m.Level = 2
		m.Status = types.MemberStatusActive
		return nil
	})
	require.NoError(t, err)

	s2, err := NewMemoryStore(file, zap.NewNop().Sugar())
	require.NoError(t, err)
	rec, err := s2.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.PaymentsCount)
	assert.Equal(t, 2, rec.Level)
	assert.Equal(t, types.MemberStatusActive, rec.Status)
}

func TestMemoryStore_ListDue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	set := func(id string, due *time.Time) {
		_, err := s.AtomicUpdate(ctx, id, func(m *models.MemberSubscription) error {
			m.NextDueAt = due
			return nil
		})
		require.NoError(t, err)
	}

	past := now.Add(-24 * time.Hour)
	farPast := now.Add(-72 * time.Hour)
	future := now.Add(24 * time.Hour)
	set("overdue", &past)
	set("very-overdue", &farPast)
	set("current", &future)
	set("never-paid", nil)

	due, err := s.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	// ordered by next_due_at ascending
	assert.Equal(t, "very-overdue", due[0].MemberID)
	assert.Equal(t, "overdue", due[1].MemberID)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Ensure(ctx, "42")
	require.NoError(t, err)

	rec, err := s.Get(ctx, "42")
	require.NoError(t, err)
	rec.PaymentsCount = 1000

	fresh, err := s.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.PaymentsCount)
}
