package membership

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/pkg/types"
)

// PendingField fills identity fields missing from a paid checkout.
const PendingField = "(pending)"

// MemberFields are the identity fields shared by every registration path.
type MemberFields struct {
	Name                     string `json:"name" binding:"required,max=255"`
	Email                    string `json:"email" binding:"required,email,max=255"`
	StudentNumber            string `json:"studentNumber" binding:"max=64"`
	EmergencyContactName     string `json:"emergencyContactName" binding:"required,max=255"`
	EmergencyContactPhone    string `json:"emergencyContactPhone" binding:"required,max=64"`
	EmergencyContactRelation string `json:"emergencyContactRelation" binding:"required,max=64"`
	WaiverSigned             bool   `json:"waiverSigned"`
}

func (f *MemberFields) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = models.NormalizeEmail(f.Email)
	f.StudentNumber = strings.TrimSpace(f.StudentNumber)
	f.EmergencyContactName = strings.TrimSpace(f.EmergencyContactName)
	f.EmergencyContactPhone = strings.TrimSpace(f.EmergencyContactPhone)
	f.EmergencyContactRelation = strings.TrimSpace(f.EmergencyContactRelation)
}

func (f *MemberFields) validate(t types.MembershipType) error {
	missing := make([]string, 0)
	for name, v := range map[string]string{
		"name":                     f.Name,
		"email":                    f.Email,
		"emergencyContactName":     f.EmergencyContactName,
		"emergencyContactPhone":    f.EmergencyContactPhone,
		"emergencyContactRelation": f.EmergencyContactRelation,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if t.IsStudent() && f.StudentNumber == "" {
		missing = append(missing, "studentNumber")
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !strings.Contains(f.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

// CashRegistration is submitted by staff who took a cash payment at the door.
type CashRegistration struct {
	MemberFields
	MembershipType types.MembershipType `json:"membershipType" binding:"required"`
	CashReceiver   string               `json:"cashReceiver" binding:"required,max=255"`
}

// OnlineConfirmation is built from a paid checkout session's metadata.
type OnlineConfirmation struct {
	MembershipKey  string
	MembershipType types.MembershipType
	MemberFields
	// AmountPaid is what the provider charged. Zero means unknown.
	AmountPaid types.Cents
	PaidAt     time.Time
}

// RenewalRequest extends the membership found by Email.
type RenewalRequest struct {
	Email          string               `json:"email" binding:"required,email"`
	MembershipType types.MembershipType `json:"membershipType" binding:"required"`
	PaymentMethod  types.PaymentMethod  `json:"paymentMethod" binding:"required"`
	CashReceiver   string               `json:"cashReceiver" binding:"max=255"`
	// PaymentAmount is informational; the stored amount always comes from the price table.
	PaymentAmount *types.Cents `json:"paymentAmount,omitempty"`
	// NewExpiryDate may shorten the computed expiry but never extend it.
	NewExpiryDate *time.Time `json:"newExpiryDate,omitempty"`
	// PaymentKey makes webhook renewals idempotent. Empty for staff renewals.
	PaymentKey string `json:"-"`
}

// CheckInRequest identifies a member by id, email, or a name/email fragment.
type CheckInRequest struct {
	Identifier string `json:"identifier" binding:"required,max=255"`
}

type VerifyResult struct {
	Found  bool `json:"found"`
	Active bool `json:"active"`
}

type CheckInResult struct {
	MemberID        string    `json:"memberId"`
	MemberName      string    `json:"memberName"`
	TotalAttendance int       `json:"totalAttendance"`
	CheckedInAt     time.Time `json:"checkedInAt"`
	Active          bool      `json:"active"`
}

// ListRequest is the admin member listing query.
type ListRequest struct {
	Filters  []*types.CommonFilter `json:"filters"`
	From     int                   `json:"from" binding:"min=0"`
	Size     int                   `json:"size" binding:"min=0,max=500"`
	SortBy   string                `json:"sort_by"`
	SortDesc bool                  `json:"sort_desc"`
}

type ListResult struct {
	Items []*models.Member `json:"items"`
	Total int64            `json:"total"`
}

// ValidateFields normalizes f in place and checks the fields required for plan t.
func ValidateFields(f *MemberFields, t types.MembershipType) error {
	f.normalize()
	return f.validate(t)
}
