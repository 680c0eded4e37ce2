package models

import (
	"time"

	"github.com/fatflowers/vipclub/pkg/types"

	"gorm.io/datatypes"
)

// MemberSubscriptionLog records before/after snapshots of every member
// record mutation for manual reconciliation.
type MemberSubscriptionLog struct {
	ID         string                                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	MemberID   string                                       `gorm:"column:member_id;type:varchar(64);not null;index" json:"member_id"`
	PaymentRef *string                                      `gorm:"column:payment_ref;type:varchar(128)" json:"payment_ref,omitempty"`
	Reason     types.MemberChangeReason                     `gorm:"column:reason;type:varchar(64);not null" json:"reason"`
	Before     datatypes.JSONType[*MemberSubscription]      `gorm:"column:before;type:jsonb" json:"before"`
	After      datatypes.JSONType[*MemberSubscription]      `gorm:"column:after;type:jsonb" json:"after"`
	Extra      datatypes.JSONMap                            `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt  time.Time                                    `json:"created_at"`
}

func (MemberSubscriptionLog) TableName() string { return "member_subscription_log" }
