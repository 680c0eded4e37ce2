package memberstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fatflowers/vipclub/internal/models"
	"github.com/fatflowers/vipclub/pkg/types"

	"gorm.io/gorm/clause"
)

// ScanRequest is the admin listing query: filters combine with AND,
// pagination is offset based.
type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResult struct {
	Items []*models.MemberSubscription `json:"items"`
	Total int64                        `json:"total"`
}

const (
	defaultScanSize = 100
	maxScanSize     = 1000
)

// sortableColumns whitelists order-by targets; SortBy is interpolated into
// SQL so it must never pass through unchecked.
var sortableColumns = map[string]struct{}{
	"member_id":       {},
	"level":           {},
	"payments_count":  {},
	"status":          {},
	"last_payment_at": {},
	"next_due_at":     {},
	"created_at":      {},
	"updated_at":      {},
}

func (r *ScanRequest) normalize() error {
	if r.Size <= 0 {
		r.Size = defaultScanSize
	}
	if r.Size > maxScanSize {
		r.Size = maxScanSize
	}
	if r.From < 0 {
		r.From = 0
	}
	if r.SortBy == "" {
		r.SortBy = "created_at"
	}
	if _, ok := sortableColumns[r.SortBy]; !ok {
		return fmt.Errorf("unsupported sort column: %q", r.SortBy)
	}
	if r.SortOrder != "asc" {
		r.SortOrder = "desc"
	}
	return nil
}

// filtersWhere joins the filters into a single AND expression.
type filtersWhere struct{ filters []*types.CommonFilter }

func (w filtersWhere) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, f := range w.filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		f.Build(builder)
	}
}

func (s *gormStore) Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Model(&models.MemberSubscription{}).
		Where(filtersWhere{filters: req.Filters})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	var items []*models.MemberSubscription
	if err := q.
		Order(fmt.Sprintf("%s %s", req.SortBy, req.SortOrder)).
		Offset(req.From).
		Limit(req.Size).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}
	return &ScanResult{Items: items, Total: total}, nil
}

// Scan on the memory store interprets a useful subset of the filter
// vocabulary (eq, in) in Go. The dev driver does not need the full SQL
// surface.
func (s *MemoryStore) Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.MemberSubscription
	for _, rec := range s.members {
		ok, err := matchFilters(rec, req.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, rec.Clone())
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		less := memberFieldLess(matched[i], matched[j], req.SortBy)
		if req.SortOrder == "desc" {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	if req.From >= len(matched) {
		return &ScanResult{Items: nil, Total: total}, nil
	}
	end := req.From + req.Size
	if end > len(matched) {
		end = len(matched)
	}
	return &ScanResult{Items: matched[req.From:end], Total: total}, nil
}

func matchFilters(rec *models.MemberSubscription, filters []*types.CommonFilter) (bool, error) {
	for _, f := range filters {
		if f == nil || len(f.Values) == 0 {
			continue
		}
		val, err := memberFieldValue(rec, f.Field)
		if err != nil {
			return false, err
		}
		switch f.Operator {
		case types.CommonFilterOperatorEq:
			if fmt.Sprint(f.Values[0]) != val {
				return false, nil
			}
		case types.CommonFilterOperatorIn:
			found := false
			for _, v := range f.Values {
				if fmt.Sprint(v) == val {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("operator %q not supported by the memory driver", f.Operator)
		}
	}
	return true, nil
}

func memberFieldValue(rec *models.MemberSubscription, field string) (string, error) {
	switch field {
	case "member_id":
		return rec.MemberID, nil
	case "level":
		return fmt.Sprint(rec.Level), nil
	case "payments_count":
		return fmt.Sprint(rec.PaymentsCount), nil
	case "status":
		return string(rec.Status), nil
	default:
		return "", fmt.Errorf("unsupported filter field: %q", field)
	}
}

func memberFieldLess(a, b *models.MemberSubscription, field string) bool {
	switch field {
	case "member_id":
		return a.MemberID < b.MemberID
	case "level":
		return a.Level < b.Level
	case "payments_count":
		return a.PaymentsCount < b.PaymentsCount
	case "status":
		return a.Status < b.Status
	case "last_payment_at":
		return timePtrLess(a.LastPaymentAt, b.LastPaymentAt)
	case "next_due_at":
		return timePtrLess(a.NextDueAt, b.NextDueAt)
	case "updated_at":
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func timePtrLess(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}
