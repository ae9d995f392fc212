// Package store defines the persistence contract for members and payment
// events. gormstore backs it with PostgreSQL (or SQLite), mongostore with a
// MongoDB collection. Both enforce a unique index on membership_key.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/pkg/types"
)

var (
	// ErrNotFound is returned when a lookup matches no member.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by ApplyRenewal when the member's expiry is no
	// longer the one the renewal was computed from.
	ErrConflict = errors.New("member changed concurrently")
)

// Renewal carries the fields a renewal overwrites. PaymentKey makes the
// update idempotent: a renewal whose key was ever applied to the member is
// skipped. PrevExpiry is the expiry ExpiryDate was computed from; when set,
// the update only happens while the stored expiry still equals it.
type Renewal struct {
	MembershipType types.MembershipType
	PaymentMethod  types.PaymentMethod
	CashReceiver   string
	PaymentAmount  types.Cents
	PaymentDate    time.Time
	ExpiryDate     time.Time
	Status         types.MemberStatus
	PaymentKey     string
	PrevExpiry     time.Time
}

// ListQuery is a paginated, filtered member scan. Filters and SortBy must use
// names from MemberColumns.
type ListQuery struct {
	Filters  []*types.CommonFilter
	From     int
	Size     int
	SortBy   string
	SortDesc bool
}

type MemberStore interface {
	// InsertIfAbsent stores m unless a member with the same membership key
	// exists. It returns the stored record and whether this call created it.
	InsertIfAbsent(ctx context.Context, m *models.Member) (*models.Member, bool, error)
	// Create inserts m unconditionally.
	Create(ctx context.Context, m *models.Member) error
	GetByID(ctx context.Context, id string) (*models.Member, error)
	// GetByEmail returns the member with the latest expiry for a normalized email.
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
	// Search matches query case-insensitively against name, email and student number.
	Search(ctx context.Context, query string, limit int) ([]*models.Member, error)
	List(ctx context.Context, q *ListQuery) ([]*models.Member, int64, error)
	// ApplyRenewal updates payment and expiry fields and records the payment
	// key. applied is false when the key was already recorded. ErrConflict
	// means the expiry moved since r.PrevExpiry and nothing was written.
	ApplyRenewal(ctx context.Context, id string, r *Renewal) (m *models.Member, applied bool, err error)
	// AppendAttendance records a check-in and returns the new attendance count.
	AppendAttendance(ctx context.Context, id string, at time.Time) (int, error)
}

type EventLogStore interface {
	SavePaymentEvent(ctx context.Context, log *models.PaymentEventLog) error
}

// Store is what a backend provides to the rest of the service.
type Store interface {
	MemberStore
	EventLogStore
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// MemberColumns lists the fields that may be filtered and sorted on. The
// names are shared by the SQL columns and the BSON keys.
var MemberColumns = []string{
	"id", "name", "email", "student_number", "membership_type", "payment_method",
	"cash_receiver", "payment_amount", "payment_date", "start_date", "expiry_date",
	"status", "created_at", "updated_at",
}

var timeColumns = []string{"payment_date", "start_date", "expiry_date", "created_at", "updated_at"}

// NormalizeFilters rejects unknown fields and turns RFC 3339 strings on time
// columns into time.Time so both backends compare instants.
func NormalizeFilters(filters []*types.CommonFilter) ([]*types.CommonFilter, error) {
	out := make([]*types.CommonFilter, 0, len(filters))
	for _, f := range filters {
		if f == nil {
			continue
		}
		if !lo.Contains(MemberColumns, f.Field) {
			return nil, fmt.Errorf("unsupported filter field: %s", f.Field)
		}
		cp := *f
		if lo.Contains(timeColumns, f.Field) {
			values := make([]any, 0, len(f.Values))
			for _, v := range f.Values {
				s, ok := v.(string)
				if !ok {
					values = append(values, v)
					continue
				}
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					return nil, fmt.Errorf("invalid time value for %s: %w", f.Field, err)
				}
				values = append(values, t.UTC())
			}
			cp.Values = values
		}
		out = append(out, &cp)
	}
	return out, nil
}
