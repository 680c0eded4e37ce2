package statistics

import (
	"context"
	"fmt"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/tier"
	"github.com/fatflowers/vipclub/internal/models"
	"github.com/fatflowers/vipclub/pkg/tool"
	"github.com/fatflowers/vipclub/pkg/types"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service aggregates the member base per loyalty level for the admin
// surface and writes daily level snapshots after each sweep pass.
// Aggregation queries need the postgres driver; with the memory driver the
// service degrades to a logged no-op.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

type LevelStat struct {
	Level           int    `json:"level"`
	DiscountPercent int    `json:"discount_percent"`
	Bonus           string `json:"bonus"`
	MemberCount     int64  `json:"member_count"`
	ActiveCount     int64  `json:"active_count"`
}

type Overview struct {
	TotalMembers  int64       `json:"total_members"`
	ActiveMembers int64       `json:"active_members"`
	TotalPayments int64       `json:"total_payments"`
	Levels        []LevelStat `json:"levels"`
}

type levelRow struct {
	Level       int
	MemberCount int64
	ActiveCount int64
}

func (s *Service) levelRows(ctx context.Context) ([]levelRow, error) {
	var rows []levelRow
	err := s.db.WithContext(ctx).
		Model(&models.MemberSubscription{}).
		Select("level, count(*) as member_count, count(*) filter (where status = ?) as active_count", types.MemberStatusActive).
		Group("level").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate member levels: %w", err)
	}
	return rows, nil
}

// Overview returns the full tier ladder with member counts, plus totals.
// Levels with no members are present with zero counts.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	if s.db == nil {
		return nil, fmt.Errorf("statistics require the postgres driver")
	}

	rows, err := s.levelRows(ctx)
	if err != nil {
		return nil, err
	}

	byLevel := make(map[int]levelRow, len(rows))
	for _, r := range rows {
		byLevel[r.Level] = r
	}

	out := &Overview{}
	for _, t := range tier.Table() {
		r := byLevel[t.Level]
		out.Levels = append(out.Levels, LevelStat{
			Level:           t.Level,
			DiscountPercent: t.DiscountPercent,
			Bonus:           t.Bonus,
			MemberCount:     r.MemberCount,
			ActiveCount:     r.ActiveCount,
		})
		out.TotalMembers += r.MemberCount
		out.ActiveMembers += r.ActiveCount
	}

	if err := s.db.WithContext(ctx).
		Model(&models.MemberSubscription{}).
		Select("coalesce(sum(payments_count), 0)").
		Scan(&out.TotalPayments).Error; err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}
	return out, nil
}

// SnapshotLevels upserts today's per-level member counts. Called after each
// sweep tick; a missing database makes it a no-op so the sweep stays
// functional on the memory driver.
func (s *Service) SnapshotLevels(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	rows, err := s.levelRows(ctx)
	if err != nil {
		return err
	}

	day := time.Now().UTC().Format("2006-01-02")
	for _, r := range rows {
		snap := &models.MemberLevelDailySnapshot{
			ID:          tool.GenerateUUIDV7(),
			Day:         day,
			Level:       r.Level,
			MemberCount: r.MemberCount,
			ActiveCount: r.ActiveCount,
		}
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "day"}, {Name: "level"}},
				DoUpdates: clause.AssignmentColumns([]string{"member_count", "active_count"}),
			}).
			Create(snap).Error; err != nil {
			return fmt.Errorf("failed to snapshot level %d: %w", r.Level, err)
		}
	}
	s.log.Infow("level_snapshot_written", "day", day, "levels", len(rows))
	return nil
}
