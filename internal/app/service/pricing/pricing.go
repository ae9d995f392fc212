// Package pricing holds the authoritative plan table: what each membership
// costs per payment method and how long it lasts. Client supplied prices are
// never used.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/clubhouse/membership/pkg/types"
)

// ErrInvalidPlan is returned for an unknown membership type or payment method.
var ErrInvalidPlan = errors.New("invalid plan")

type plan struct {
	months int
	prices map[types.PaymentMethod]types.Cents
}

var plans = map[types.MembershipType]plan{
	types.MembershipTypeTerm: {
		months: 4,
		prices: map[types.PaymentMethod]types.Cents{types.PaymentMethodCash: 5000, types.PaymentMethodOnline: 5155},
	},
	types.MembershipTypeYear: {
		months: 12,
		prices: map[types.PaymentMethod]types.Cents{types.PaymentMethodCash: 10000, types.PaymentMethodOnline: 10310},
	},
	types.MembershipTypeNonStudent: {
		months: 4,
		prices: map[types.PaymentMethod]types.Cents{types.PaymentMethodCash: 8000, types.PaymentMethodOnline: 8250},
	},
}

// dropInPrice is a single class pass, sold online only.
const dropInPrice types.Cents = 1000

// Price returns the amount charged for a membership type paid with method.
func Price(t types.MembershipType, m types.PaymentMethod) (types.Cents, error) {
	p, ok := plans[t]
	if !ok {
		return 0, fmt.Errorf("%w: unknown membership type %q", ErrInvalidPlan, t)
	}
	price, ok := p.prices[m]
	if !ok {
		return 0, fmt.Errorf("%w: unknown payment method %q", ErrInvalidPlan, m)
	}
	return price, nil
}

// Months returns how many calendar months a membership type lasts.
func Months(t types.MembershipType) (int, error) {
	p, ok := plans[t]
	if !ok {
		return 0, fmt.Errorf("%w: unknown membership type %q", ErrInvalidPlan, t)
	}
	return p.months, nil
}

// Expiry adds the plan's month count to start in UTC. Day overflow follows
// time.AddDate normalization: Oct 31 + 4 months is Mar 3 of the next year
// in a non-leap year, not the last day of February.
func Expiry(start time.Time, t types.MembershipType) (time.Time, error) {
	months, err := Months(t)
	if err != nil {
		return time.Time{}, err
	}
	return start.UTC().AddDate(0, months, 0), nil
}

// DropInPrice returns the price of a single class pass.
func DropInPrice() types.Cents { return dropInPrice }

// CheckoutPrice resolves the online price for a checkout plan key, which is
// either a membership type or the drop-in pass.
func CheckoutPrice(planKey string) (types.Cents, error) {
	if planKey == types.PlanDropIn {
		return dropInPrice, nil
	}
	return Price(types.MembershipType(planKey), types.PaymentMethodOnline)
}
