package models

import (
	"strings"
	"time"

	"github.com/clubhouse/membership/pkg/types"
)

// Member is a club membership record. One document per paid registration;
// renewals and check-ins mutate it in place.
type Member struct {
	ID string `gorm:"column:id;type:uuid;primaryKey" bson:"_id" json:"id"`
	// MembershipKey is the idempotency token of the payment that created the record.
	MembershipKey string `gorm:"column:membership_key;type:varchar(128);not null;uniqueIndex:uniq_members_membership_key" bson:"membership_key" json:"membershipKey"`

	Name                     string `gorm:"column:name;type:varchar(255);not null" bson:"name" json:"name"`
	Email                    string `gorm:"column:email;type:varchar(255);not null;index:idx_members_email" bson:"email" json:"email"`
	StudentNumber            string `gorm:"column:student_number;type:varchar(64)" bson:"student_number" json:"studentNumber"`
	EmergencyContactName     string `gorm:"column:emergency_contact_name;type:varchar(255);not null" bson:"emergency_contact_name" json:"emergencyContactName"`
	EmergencyContactPhone    string `gorm:"column:emergency_contact_phone;type:varchar(64);not null" bson:"emergency_contact_phone" json:"emergencyContactPhone"`
	EmergencyContactRelation string `gorm:"column:emergency_contact_relation;type:varchar(64);not null" bson:"emergency_contact_relation" json:"emergencyContactRelation"`
	WaiverSigned             bool   `gorm:"column:waiver_signed;not null" bson:"waiver_signed" json:"waiverSigned"`

	MembershipType types.MembershipType `gorm:"column:membership_type;type:varchar(32);not null" bson:"membership_type" json:"membershipType"`
	PaymentMethod  types.PaymentMethod  `gorm:"column:payment_method;type:varchar(32);not null" bson:"payment_method" json:"paymentMethod"`
	// CashReceiver is the staff member who accepted a cash payment.
	CashReceiver  string      `gorm:"column:cash_receiver;type:varchar(255)" bson:"cash_receiver,omitempty" json:"cashReceiver,omitempty"`
	PaymentAmount types.Cents `gorm:"column:payment_amount;type:bigint;not null" bson:"payment_amount" json:"paymentAmount"`
	PaymentDate   time.Time   `gorm:"column:payment_date" bson:"payment_date" json:"paymentDate"`
	// AppliedPaymentKeys holds every renewal payment key applied to the
	// document. The relational store keeps them in member_renewals.
	AppliedPaymentKeys []string `gorm:"-" bson:"applied_payment_keys,omitempty" json:"-"`

	StartDate  time.Time          `gorm:"column:start_date;not null" bson:"start_date" json:"startDate"`
	ExpiryDate time.Time          `gorm:"column:expiry_date;not null;index:idx_members_expiry_date" bson:"expiry_date" json:"expiryDate"`
	Status     types.MemberStatus `gorm:"column:status;type:varchar(32);not null" bson:"status" json:"status"`

	// Attendance lives in member_attendance for the relational store and is
	// embedded for the document store.
	Attendance []time.Time `gorm:"-" bson:"attendance" json:"attendance"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (Member) TableName() string {
	return "members"
}

// IsActive reports whether the membership has not expired at now.
func (m *Member) IsActive(now time.Time) bool {
	return m != nil && m.ExpiryDate.After(now)
}

// RefreshStatus recomputes active/expired against now. Suspended and trial
// members keep their manual status.
func (m *Member) RefreshStatus(now time.Time) {
	if m == nil || !m.Status.Computed() {
		return
	}
	if m.IsActive(now) {
		m.Status = types.MemberStatusActive
	} else {
		m.Status = types.MemberStatusExpired
	}
}

// NormalizeEmail lower-cases and trims an address. Every write and lookup by
// email goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
