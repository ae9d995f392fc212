package types

type MembershipType string

const (
	MembershipTypeTerm       MembershipType = "term"
	MembershipTypeYear       MembershipType = "year"
	MembershipTypeNonStudent MembershipType = "nonstudent"
)

func (t MembershipType) Valid() bool {
	switch t {
	case MembershipTypeTerm, MembershipTypeYear, MembershipTypeNonStudent:
		return true
	}
	return false
}

// IsStudent reports whether the plan is only sold to students.
func (t MembershipType) IsStudent() bool {
	return t == MembershipTypeTerm || t == MembershipTypeYear
}

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodOnline
}

type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusExpired   MemberStatus = "expired"
	MemberStatusSuspended MemberStatus = "suspended"
	MemberStatusTrial     MemberStatus = "trial"
)

// Computed reports whether the status is derived from the expiry date.
// Suspended and trial are set by hand and never recomputed.
func (s MemberStatus) Computed() bool {
	return s == "" || s == MemberStatusActive || s == MemberStatusExpired
}

// CheckoutFlow tells the webhook what to do once a checkout session is paid.
type CheckoutFlow string

const (
	CheckoutFlowRegister CheckoutFlow = "register"
	CheckoutFlowRenew    CheckoutFlow = "renew"
	CheckoutFlowDropIn   CheckoutFlow = "dropin"
)

func (f CheckoutFlow) Valid() bool {
	switch f {
	case CheckoutFlowRegister, CheckoutFlowRenew, CheckoutFlowDropIn:
		return true
	}
	return false
}

// PlanDropIn is the checkout plan key for a single class pass.
const PlanDropIn = "dropin"

type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "stripe"
	PaymentProviderCash   PaymentProvider = "cash"
)
