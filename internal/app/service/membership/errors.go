package membership

import (
	"errors"

	"github.com/clubhouse/membership/internal/app/service/pricing"
)

var (
	// ErrInvalidPlan is the pricing error re-exported for callers of this package.
	ErrInvalidPlan          = pricing.ErrInvalidPlan
	ErrValidation           = errors.New("validation failed")
	ErrMemberNotFound       = errors.New("member not found")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidExpiry        = errors.New("invalid expiry date")
	// ErrAmbiguousMember is returned when a fuzzy check-in matches more than one member.
	ErrAmbiguousMember = errors.New("identifier matches more than one member")
)
