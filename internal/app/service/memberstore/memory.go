package memberstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fatflowers/vipclub/internal/models"

	"go.uber.org/zap"
)

// MemoryStore is a mutex-guarded map with an optional durable JSON snapshot
// flushed on every mutation. One lock serializes all updates, which is
// stricter than the per-key contract requires but correct. Dev and test
// use only.
type MemoryStore struct {
	mu       sync.RWMutex
	members  map[string]*models.MemberSubscription
	snapshot string
	log      *zap.SugaredLogger
}

func NewMemoryStore(snapshotFile string, log *zap.SugaredLogger) (*MemoryStore, error) {
	s := &MemoryStore{
		members:  make(map[string]*models.MemberSubscription),
		snapshot: snapshotFile,
		log:      log,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) Get(ctx context.Context, memberID string) (*models.MemberSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.members[memberID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Ensure(ctx context.Context, memberID string) (*models.MemberSubscription, error) {
	return s.AtomicUpdate(ctx, memberID, func(*models.MemberSubscription) error { return nil })
}

func (s *MemoryStore) AtomicUpdate(ctx context.Context, memberID string, fn func(*models.MemberSubscription) error) (*models.MemberSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.members[memberID]
	if !ok {
		rec = newRecord(memberID)
		rec.CreatedAt = time.Now()
	}
	next := rec.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now()
	s.members[memberID] = next

	if err := s.flush(); err != nil {
		// keep the in-memory write; durability failure is the caller's signal
		return nil, err
	}
	return next.Clone(), nil
}

func (s *MemoryStore) ListDue(ctx context.Context, before time.Time) ([]*models.MemberSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.MemberSubscription
	for _, rec := range s.members {
		if rec.NextDueAt != nil && !rec.NextDueAt.After(before) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueAt.Before(*out[j].NextDueAt) })
	return out, nil
}

func (s *MemoryStore) load() error {
	if s.snapshot == "" {
		return nil
	}
	data, err := os.ReadFile(s.snapshot)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", s.snapshot, err)
	}
	if err := json.Unmarshal(data, &s.members); err != nil {
		return fmt.Errorf("failed to parse snapshot %s: %w", s.snapshot, err)
	}
	if s.log != nil {
		s.log.Infow("loaded member snapshot", "file", s.snapshot, "members", len(s.members))
	}
	return nil
}

// flush writes the snapshot atomically (temp file + rename) so a crash
// mid-write never truncates the previous state.
func (s *MemoryStore) flush() error {
	if s.snapshot == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.members, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	tmp := s.snapshot + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.snapshot), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.snapshot); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
