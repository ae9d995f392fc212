package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentEventLogStatus string

const (
	PaymentEventLogStatusReceived     PaymentEventLogStatus = "received"
	PaymentEventLogStatusHandled      PaymentEventLogStatus = "handled"
	PaymentEventLogStatusIgnored      PaymentEventLogStatus = "ignored"
	PaymentEventLogStatusHandleFailed PaymentEventLogStatus = "handle_failed"
)

// PaymentEventLog records each webhook delivery and what came of it.
type PaymentEventLog struct {
	ID            string                `gorm:"column:id;type:uuid;primary_key" bson:"_id" json:"id"`
	ProviderID    string                `gorm:"column:provider_id;type:varchar(64);not null" bson:"provider_id" json:"provider_id"`
	EventID       string                `gorm:"column:event_id;type:varchar(128);index" bson:"event_id" json:"event_id"`
	EventType     string                `gorm:"column:event_type;type:varchar(128)" bson:"event_type" json:"event_type"`
	TraceID       string                `gorm:"column:trace_id;type:varchar(128)" bson:"trace_id" json:"trace_id"`
	SessionID     string                `gorm:"column:session_id;type:varchar(128)" bson:"session_id" json:"session_id"`
	MembershipKey *string               `gorm:"column:membership_key;type:varchar(128)" bson:"membership_key,omitempty" json:"membership_key"`
	Flow          string                `gorm:"column:flow;type:varchar(32)" bson:"flow" json:"flow"`
	EventTime     time.Time             `gorm:"column:event_time" bson:"event_time" json:"event_time"`
	Data          datatypes.JSON        `gorm:"column:data;type:jsonb" bson:"data" json:"data"`
	Result        *datatypes.JSON       `gorm:"column:result;type:jsonb" bson:"result,omitempty" json:"result"`
	Status        PaymentEventLogStatus `gorm:"column:status;type:varchar(64);not null" bson:"status" json:"status"`
	CreatedAt     time.Time             `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time             `bson:"updated_at" json:"updated_at"`
}

func (PaymentEventLog) TableName() string { return "payment_event_log" }
