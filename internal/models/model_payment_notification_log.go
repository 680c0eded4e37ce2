package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentNotificationLogStatus string

const (
	PaymentNotificationLogStatusReceived PaymentNotificationLogStatus = "received"
	PaymentNotificationLogStatusApplied  PaymentNotificationLogStatus = "applied"
	// rejected: signature verification failed or required fields missing.
	PaymentNotificationLogStatusRejected PaymentNotificationLogStatus = "rejected"
	// ignored: authentic notification that did not mutate state (non-success
	// status or duplicate reference).
	PaymentNotificationLogStatusIgnored      PaymentNotificationLogStatus = "ignored"
	PaymentNotificationLogStatusHandleFailed PaymentNotificationLogStatus = "handle_failed"
)

// PaymentNotificationLog is the audit trail of inbound gateway
// notifications, including the ones that were rejected or ignored.
type PaymentNotificationLog struct {
	ID               string                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	MemberID         *string                      `gorm:"column:member_id;type:varchar(64)" json:"member_id"`
	TraceID          string                       `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	OrderReference   string                       `gorm:"column:order_reference;type:varchar(128)" json:"order_reference"`
	NotificationTime time.Time                    `gorm:"column:notification_time" json:"notification_time"`
	Data             datatypes.JSON               `gorm:"column:data;type:jsonb" json:"data"`
	Result           *datatypes.JSON              `gorm:"column:result;type:jsonb" json:"result"`
	Status           PaymentNotificationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

func (PaymentNotificationLog) TableName() string { return "payment_notification_log" }
