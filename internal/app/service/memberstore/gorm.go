package memberstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatflowers/vipclub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormStore keeps member records in postgres. Per-key serialization comes
// from a SELECT ... FOR UPDATE row lock inside one transaction, so two
// concurrent deliveries of the same confirmation queue behind each other.
type gormStore struct {
	db *gorm.DB
}

func newGormStore(db *gorm.DB) *gormStore { return &gormStore{db: db} }

func (s *gormStore) Get(ctx context.Context, memberID string) (*models.MemberSubscription, error) {
	var rec models.MemberSubscription
	err := s.db.WithContext(ctx).Where("member_id = ?", memberID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load member %s: %w", memberID, err)
	}
	return &rec, nil
}

func (s *gormStore) Ensure(ctx context.Context, memberID string) (*models.MemberSubscription, error) {
	return s.AtomicUpdate(ctx, memberID, func(*models.MemberSubscription) error { return nil })
}

func (s *gormStore) AtomicUpdate(ctx context.Context, memberID string, fn func(*models.MemberSubscription) error) (*models.MemberSubscription, error) {
	var out *models.MemberSubscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockOrCreate(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		if err := tx.Save(rec).Error; err != nil {
			return fmt.Errorf("failed to save member %s: %w", memberID, err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockOrCreate takes the row lock, inserting the default record first when
// the member is new. The insert tolerates a concurrent creator via
// ON CONFLICT DO NOTHING, then re-selects FOR UPDATE so the caller always
// holds the lock on the surviving row.
func (s *gormStore) lockOrCreate(ctx context.Context, tx *gorm.DB, memberID string) (*models.MemberSubscription, error) {
	var rec models.MemberSubscription
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("member_id = ?", memberID).
		First(&rec).Error
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lock member %s: %w", memberID, err)
	}

	fresh := newRecord(memberID)
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "member_id"}}, DoNothing: true}).
		Create(fresh).Error; err != nil {
		return nil, fmt.Errorf("failed to create member %s: %w", memberID, err)
	}

	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("member_id = ?", memberID).
		First(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to lock member %s after create: %w", memberID, err)
	}
	return &rec, nil
}

func (s *gormStore) ListDue(ctx context.Context, before time.Time) ([]*models.MemberSubscription, error) {
	var rows []*models.MemberSubscription
	if err := s.db.WithContext(ctx).
		Where("next_due_at IS NOT NULL AND next_due_at <= ?", before).
		Order("next_due_at asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list due members: %w", err)
	}
	return rows, nil
}
