package memberlog

import (
	"context"

	"github.com/fatflowers/vipclub/internal/models"
	"github.com/fatflowers/vipclub/pkg/logctx"
	"github.com/fatflowers/vipclub/pkg/tool"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service persists member subscription change logs. Writes are async and
// best-effort; a failed audit write never fails the mutation it describes.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a change log entry. Nil input is ignored;
// without a database (memory driver) entries go to the process log only.
func (s *Service) Save(ctx context.Context, entry *models.MemberSubscriptionLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if s.db == nil {
		logctx.FromCtx(ctx, s.log).Infow("member_change",
			"member_id", entry.MemberID, "reason", entry.Reason, "payment_ref", entry.PaymentRef)
		return
	}
	go func() {
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save member subscription log: %v", err)
		}
	}()
}

var Module = fx.Options(
	fx.Provide(New),
)
