// Package membership registers, renews, verifies and checks in club members.
//
// Online registrations are keyed on the membership key minted at checkout, so
// a paid session produces at most one member no matter how often the payment
// provider redelivers its confirmation. Prices and expiry dates always come
// from the pricing tables, never from the caller.
package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/clubhouse/membership/internal/app/service/pricing"
	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/store"
	"github.com/clubhouse/membership/pkg/logctx"
	"github.com/clubhouse/membership/pkg/metrics"
	"github.com/clubhouse/membership/pkg/tool"
	"github.com/clubhouse/membership/pkg/types"
)

const (
	CashKeyPrefix   = "cash:"
	manualKeyPrefix = "manual:"

	defaultSearchLimit = 20
	maxSearchLimit     = 100
	defaultPageSize    = 20

	// renewals computed from an expiry that moved underneath them are
	// recomputed this many times before giving up.
	maxRenewAttempts = 3
)

type Service struct {
	store   store.MemberStore
	log     *zap.SugaredLogger
	metrics *metrics.Business
	now     func() time.Time
}

func New(s store.Store, log *zap.SugaredLogger, m *metrics.Business) *Service {
	return &Service{store: s, log: log, metrics: m, now: Now}
}

// Now is the service clock: UTC, truncated to the millisecond so both
// backends store the same instant.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// RegisterOnline creates the member for a paid checkout. A second call with
// the same membership key returns the stored record and created=false.
func (s *Service) RegisterOnline(ctx context.Context, c *OnlineConfirmation) (*models.Member, bool, error) {
	if c == nil {
		return nil, false, fmt.Errorf("%w: empty confirmation", ErrValidation)
	}
	start := time.Now()
	defer s.metrics.ObserveSince("membership", "register_online", start)

	key := strings.TrimSpace(c.MembershipKey)
	c.normalize()
	if key == "" || c.Email == "" {
		return nil, false, fmt.Errorf("%w: membership key and email are required", ErrValidation)
	}
	price, err := pricing.Price(c.MembershipType, types.PaymentMethodOnline)
	if err != nil {
		return nil, false, err
	}

	log := logctx.FromCtx(ctx, s.log)
	amount := price
	if c.AmountPaid > 0 && c.AmountPaid != price {
		log.Warnw("amount paid differs from plan price",
			"membership_key", key, "plan", c.MembershipType, "paid", c.AmountPaid, "price", price)
		amount = c.AmountPaid
	}

	now := s.now()
	paidAt := now
	if !c.PaidAt.IsZero() {
		paidAt = c.PaidAt.UTC().Truncate(time.Millisecond)
	}
	expiry, err := pricing.Expiry(paidAt, c.MembershipType)
	if err != nil {
		return nil, false, err
	}

	m := &models.Member{
		ID:                       tool.GenerateUUIDV7(),
		MembershipKey:            key,
		Name:                     orPending(c.Name),
		Email:                    c.Email,
		StudentNumber:            orPending(c.StudentNumber),
		EmergencyContactName:     orPending(c.EmergencyContactName),
		EmergencyContactPhone:    orPending(c.EmergencyContactPhone),
		EmergencyContactRelation: orPending(c.EmergencyContactRelation),
		WaiverSigned:             c.WaiverSigned,
		MembershipType:           c.MembershipType,
		PaymentMethod:            types.PaymentMethodOnline,
		PaymentAmount:            amount,
		PaymentDate:              paidAt,
		StartDate:                paidAt,
		ExpiryDate:               expiry,
		Status:                   types.MemberStatusActive,
		Attendance:               []time.Time{},
	}
	stored, created, err := s.store.InsertIfAbsent(ctx, m)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.metrics.MembershipWritten("register_online", "created")
		log.Infow("member registered", "member_id", stored.ID, "membership_key", key, "plan", c.MembershipType)
	} else {
		s.metrics.MembershipWritten("register_online", "existing")
		log.Infow("membership key already registered", "member_id", stored.ID, "membership_key", key)
	}
	stored.RefreshStatus(now)
	return stored, created, nil
}

// RegisterCash records a membership paid in cash. Every call inserts a new
// record; a genuine double submission creates two members.
func (s *Service) RegisterCash(ctx context.Context, r *CashRegistration) (*models.Member, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: empty registration", ErrValidation)
	}
	r.normalize()
	r.CashReceiver = strings.TrimSpace(r.CashReceiver)

	price, err := pricing.Price(r.MembershipType, types.PaymentMethodCash)
	if err != nil {
		return nil, err
	}
	if err := r.validate(r.MembershipType); err != nil {
		return nil, err
	}
	if r.CashReceiver == "" {
		return nil, fmt.Errorf("%w: cashReceiver is required for cash payments", ErrValidation)
	}
	if !r.WaiverSigned {
		return nil, fmt.Errorf("%w: waiver must be signed", ErrValidation)
	}

	now := s.now()
	expiry, err := pricing.Expiry(now, r.MembershipType)
	if err != nil {
		return nil, err
	}
	m := &models.Member{
		ID:                       tool.GenerateUUIDV7(),
		MembershipKey:            tool.PrefixedKey(CashKeyPrefix),
		Name:                     r.Name,
		Email:                    r.Email,
		StudentNumber:            r.StudentNumber,
		EmergencyContactName:     r.EmergencyContactName,
		EmergencyContactPhone:    r.EmergencyContactPhone,
		EmergencyContactRelation: r.EmergencyContactRelation,
		WaiverSigned:             true,
		MembershipType:           r.MembershipType,
		PaymentMethod:            types.PaymentMethodCash,
		CashReceiver:             r.CashReceiver,
		PaymentAmount:            price,
		PaymentDate:              now,
		StartDate:                now,
		ExpiryDate:               expiry,
		Status:                   types.MemberStatusActive,
		Attendance:               []time.Time{},
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	s.metrics.MembershipWritten("register_cash", "created")
	logctx.FromCtx(ctx, s.log).Infow("cash member registered",
		"member_id", m.ID, "plan", m.MembershipType, "cash_receiver", m.CashReceiver)
	return m, nil
}

// Renew extends the membership of the member with r.Email. The new expiry is
// the plan length added to the later of now and the current expiry. When
// another renewal moves the expiry first, the new one is recomputed on top.
func (s *Service) Renew(ctx context.Context, r *RenewalRequest) (*models.Member, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: empty renewal", ErrValidation)
	}
	start := time.Now()
	defer s.metrics.ObserveSince("membership", "renew", start)

	email := models.NormalizeEmail(r.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !r.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, r.PaymentMethod)
	}
	price, err := pricing.Price(r.MembershipType, r.PaymentMethod)
	if err != nil {
		return nil, err
	}
	cashReceiver := strings.TrimSpace(r.CashReceiver)
	if r.PaymentMethod == types.PaymentMethodCash && cashReceiver == "" {
		return nil, fmt.Errorf("%w: cashReceiver is required for cash payments", ErrValidation)
	}
	if r.PaymentMethod != types.PaymentMethodCash {
		cashReceiver = ""
	}

	log := logctx.FromCtx(ctx, s.log)
	now := s.now()
	key := r.PaymentKey
	if key == "" {
		key = tool.PrefixedKey(manualKeyPrefix)
	}

	for attempt := 1; ; attempt++ {
		m, err := s.store.GetByEmail(ctx, email)
		if err != nil {
			return nil, notFound(err)
		}
		base := now
		if m.ExpiryDate.After(base) {
			base = m.ExpiryDate
		}
		expiry, err := pricing.Expiry(base, r.MembershipType)
		if err != nil {
			return nil, err
		}
		if r.NewExpiryDate != nil {
			requested := r.NewExpiryDate.UTC().Truncate(time.Millisecond)
			if !requested.After(now) || requested.After(expiry) {
				return nil, fmt.Errorf("%w: %s must be after now and no later than %s",
					ErrInvalidExpiry, requested.Format(time.RFC3339), expiry.Format(time.RFC3339))
			}
			expiry = requested
		}
		if attempt == 1 && r.PaymentAmount != nil && *r.PaymentAmount != price {
			log.Warnw("renewal amount differs from plan price; storing plan price",
				"member_id", m.ID, "submitted", *r.PaymentAmount, "price", price)
		}

		renewed, applied, err := s.store.ApplyRenewal(ctx, m.ID, &store.Renewal{
			MembershipType: r.MembershipType,
			PaymentMethod:  r.PaymentMethod,
			CashReceiver:   cashReceiver,
			PaymentAmount:  price,
			PaymentDate:    now,
			ExpiryDate:     expiry,
			Status:         types.MemberStatusActive,
			PaymentKey:     key,
			PrevExpiry:     m.ExpiryDate,
		})
		if errors.Is(err, store.ErrConflict) && attempt < maxRenewAttempts {
			log.Infow("member changed during renewal, retrying", "member_id", m.ID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, notFound(err)
		}
		if applied {
			s.metrics.MembershipWritten("renew_"+string(r.PaymentMethod), "renewed")
			log.Infow("member renewed", "member_id", m.ID, "plan", r.MembershipType, "expiry", expiry)
		} else {
			s.metrics.MembershipWritten("renew_"+string(r.PaymentMethod), "existing")
			log.Infow("renewal already applied", "member_id", m.ID, "payment_key", key)
		}
		renewed.RefreshStatus(now)
		return renewed, nil
	}
}

// RenewOnline applies a paid renewal checkout. Redelivery of the same
// confirmation does not extend the membership twice.
func (s *Service) RenewOnline(ctx context.Context, c *OnlineConfirmation) (*models.Member, error) {
	if c == nil || strings.TrimSpace(c.MembershipKey) == "" {
		return nil, fmt.Errorf("%w: membership key is required", ErrValidation)
	}
	var paid *types.Cents
	if c.AmountPaid > 0 {
		paid = lo.ToPtr(c.AmountPaid)
	}
	return s.Renew(ctx, &RenewalRequest{
		Email:          c.Email,
		MembershipType: c.MembershipType,
		PaymentMethod:  types.PaymentMethodOnline,
		PaymentAmount:  paid,
		PaymentKey:     strings.TrimSpace(c.MembershipKey),
	})
}

// Verify reports whether email belongs to a member and whether that
// membership is active now. Only an exact normalized email matches.
func (s *Service) Verify(ctx context.Context, email string) (*VerifyResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	m, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return &VerifyResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &VerifyResult{
		Found:  true,
		Active: m.IsActive(s.now()) && m.Status != types.MemberStatusSuspended,
	}, nil
}

// CheckIn records attendance for the member identified by id, then exact
// email, then a name/email fragment that must match exactly one member.
func (s *Service) CheckIn(ctx context.Context, r *CheckInRequest) (*CheckInResult, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: identifier is required", ErrValidation)
	}
	ident := strings.TrimSpace(r.Identifier)
	if ident == "" {
		return nil, fmt.Errorf("%w: identifier is required", ErrValidation)
	}

	m, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	now := s.now()
	total, err := s.store.AppendAttendance(ctx, m.ID, now)
	if err != nil {
		return nil, notFound(err)
	}
	s.metrics.CheckedIn()

	m.RefreshStatus(now)
	active := m.IsActive(now) && m.Status != types.MemberStatusSuspended
	logctx.FromCtx(ctx, s.log).Infow("member checked in", "member_id", m.ID, "total", total, "active", active)
	return &CheckInResult{
		MemberID:        m.ID,
		MemberName:      m.Name,
		TotalAttendance: total,
		CheckedInAt:     now,
		Active:          active,
	}, nil
}

func (s *Service) resolve(ctx context.Context, ident string) (*models.Member, error) {
	if parsed, err := uuid.Parse(ident); err == nil {
		m, err := s.store.GetByID(ctx, parsed.String())
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if strings.Contains(ident, "@") {
		m, err := s.store.GetByEmail(ctx, models.NormalizeEmail(ident))
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	matches, err := s.store.Search(ctx, ident, 2)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, ErrMemberNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousMember, ident)
	}
}

// Search is the explicit fuzzy lookup: case-insensitive substring match on
// name, email and student number.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*models.Member, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	rows, err := s.store.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	s.refresh(rows)
	return rows, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Member, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrMemberNotFound
	}
	m, err := s.store.GetByID(ctx, parsed.String())
	if err != nil {
		return nil, notFound(err)
	}
	m.RefreshStatus(s.now())
	return m, nil
}

func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResult, error) {
	if req == nil {
		req = &ListRequest{}
	}
	filters, err := store.NormalizeFilters(req.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	q := &store.ListQuery{
		Filters:  filters,
		From:     max(req.From, 0),
		Size:     req.Size,
		SortBy:   req.SortBy,
		SortDesc: req.SortDesc,
	}
	if q.Size <= 0 {
		q.Size = defaultPageSize
	}
	if q.SortBy == "" {
		q.SortBy, q.SortDesc = "created_at", true
	}
	if !lo.Contains(store.MemberColumns, q.SortBy) {
		return nil, fmt.Errorf("%w: unsupported sort field %q", ErrValidation, q.SortBy)
	}

	rows, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	s.refresh(rows)
	return &ListResult{Items: rows, Total: total}, nil
}

func (s *Service) refresh(rows []*models.Member) {
	now := s.now()
	for _, m := range rows {
		m.RefreshStatus(now)
	}
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrMemberNotFound
	}
	return err
}

func orPending(v string) string {
	if v == "" {
		return PendingField
	}
	return v
}
