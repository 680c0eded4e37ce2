package notification_log

import (
	"context"

	"github.com/fatflowers/vipclub/internal/models"
	"github.com/fatflowers/vipclub/pkg/logctx"
	"github.com/fatflowers/vipclub/pkg/tool"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service persists the audit trail of inbound payment notifications,
// including rejected ones: an authentication failure is logged with the raw
// reference so operators can reconcile manually.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a payment notification log. Nil input is
// ignored; without a database the entry goes to the process log only.
func (s *Service) Save(ctx context.Context, entry *models.PaymentNotificationLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if s.db == nil {
		logctx.FromCtx(ctx, s.log).Infow("payment_notification",
			"order_reference", entry.OrderReference, "status", entry.Status)
		return
	}
	go func() {
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save notification log: %v", err)
		}
	}()
}
