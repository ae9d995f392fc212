package models

import (
	"time"

	"github.com/clubhouse/membership/pkg/types"
)

// MemberRenewal is one applied renewal payment. The unique payment key is
// what keeps a redelivered payment from extending a membership twice.
type MemberRenewal struct {
	ID             string               `gorm:"column:id;type:uuid;primaryKey"`
	MemberID       string               `gorm:"column:member_id;type:uuid;not null;index:idx_member_renewals_member"`
	PaymentKey     string               `gorm:"column:payment_key;type:varchar(128);not null;uniqueIndex:uniq_member_renewals_payment_key"`
	MembershipType types.MembershipType `gorm:"column:membership_type;type:varchar(32);not null"`
	PaymentMethod  types.PaymentMethod  `gorm:"column:payment_method;type:varchar(32);not null"`
	PaymentAmount  types.Cents          `gorm:"column:payment_amount;type:bigint;not null"`
	PaymentDate    time.Time            `gorm:"column:payment_date;not null"`
	ExpiryDate     time.Time            `gorm:"column:expiry_date;not null"`
	CreatedAt      time.Time
}

func (MemberRenewal) TableName() string {
	return "member_renewals"
}
