package memberstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatflowers/vipclub/internal/models"
	"github.com/fatflowers/vipclub/pkg/config"
	"github.com/fatflowers/vipclub/pkg/tool"
	"github.com/fatflowers/vipclub/pkg/types"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("member not found")

// Store is the durable mapping from member id to subscription record.
//
// AtomicUpdate is the store's single most important guarantee: the whole
// read-modify-write is serialized per member id against every other
// AtomicUpdate on the same id. The reconciliation engine's idempotency
// check is race-free only because of it.
type Store interface {
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, memberID string) (*models.MemberSubscription, error)
	// Ensure creates the default record if absent and returns the current one.
	Ensure(ctx context.Context, memberID string) (*models.MemberSubscription, error)
	// AtomicUpdate runs fn against the current record (or a freshly created
	// default) and persists the result. fn returning an error aborts the
	// update without persisting.
	AtomicUpdate(ctx context.Context, memberID string, fn func(*models.MemberSubscription) error) (*models.MemberSubscription, error)
	// ListDue returns records whose next_due_at is set and not after the
	// given time.
	ListDue(ctx context.Context, before time.Time) ([]*models.MemberSubscription, error)
	// Scan is the filtered, paginated admin listing.
	Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error)
}

// newRecord is the lifecycle entry point: zero payments, level 0, inactive.
func newRecord(memberID string) *models.MemberSubscription {
	return &models.MemberSubscription{
		ID:       tool.GenerateUUIDV7(),
		MemberID: memberID,
		Status:   types.MemberStatusInactive,
	}
}

// New selects the store implementation from config.
func New(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) (Store, error) {
	switch cfg.Database.Driver {
	case config.DBDriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres driver selected but no database connection")
		}
		return newGormStore(db), nil
	case config.DBDriverMemory:
		return NewMemoryStore(cfg.Database.SnapshotFile, log)
	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}
}
