package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/store"
	"github.com/clubhouse/membership/pkg/tool"
)

// Store implements store.Store on a relational database through GORM.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the members, member_attendance,
// member_renewals and payment_event_log tables.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Member{},
		&models.MemberAttendance{},
		&models.MemberRenewal{},
		&models.PaymentEventLog{},
	)
}

func (s *Store) InsertIfAbsent(ctx context.Context, m *models.Member) (*models.Member, bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "membership_key"}}, DoNothing: true}).
		Create(m)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, false, fmt.Errorf("failed to insert member: %w", res.Error)
	}
	created := res.Error == nil && res.RowsAffected > 0

	stored, err := s.first(ctx, s.db.WithContext(ctx).Where("membership_key = ?", m.MembershipKey))
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (s *Store) Create(ctx context.Context, m *models.Member) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Member, error) {
	return s.first(ctx, s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.first(ctx, s.db.WithContext(ctx).Where("email = ?", email).Order("expiry_date desc"))
}

func (s *Store) Search(ctx context.Context, query string, limit int) ([]*models.Member, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var rows []*models.Member
	err := s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR LOWER(student_number) LIKE ? ESCAPE '\'`, pattern, pattern, pattern).
		Order("name asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search members: %w", err)
	}
	if err := s.loadAttendance(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// filtersAnd combines the list filters into a single clause.Expression.
type filtersAnd struct{ q *store.ListQuery }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.q.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.q.Filters))
	for _, f := range w.q.Filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

func (s *Store) List(ctx context.Context, q *store.ListQuery) ([]*models.Member, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Member{})
	if len(q.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{q: q}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count members: %w", err)
	}

	query := tx.Limit(q.Size)
	if q.From > 0 {
		query = query.Offset(q.From)
	}
	if q.SortBy != "" {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: q.SortBy}, Desc: q.SortDesc})
	}

	var rows []*models.Member
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}
	if err := s.loadAttendance(ctx, rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ApplyRenewal inserts the renewal into member_renewals and updates the
// member in one transaction. A payment key already in member_renewals leaves
// the member untouched.
func (s *Store) ApplyRenewal(ctx context.Context, id string, r *store.Renewal) (*models.Member, bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Member{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to load member: %w", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}

		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "payment_key"}}, DoNothing: true}).
			Create(&models.MemberRenewal{
				ID:             tool.GenerateUUIDV7(),
				MemberID:       id,
				PaymentKey:     r.PaymentKey,
				MembershipType: r.MembershipType,
				PaymentMethod:  r.PaymentMethod,
				PaymentAmount:  r.PaymentAmount,
				PaymentDate:    r.PaymentDate,
				ExpiryDate:     r.ExpiryDate,
			})
		if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to record renewal: %w", res.Error)
		}
		if res.Error != nil || res.RowsAffected == 0 {
			return nil
		}

		upd := tx.Model(&models.Member{}).Where("id = ?", id)
		if !r.PrevExpiry.IsZero() {
			upd = upd.Where("expiry_date = ?", r.PrevExpiry)
		}
		res = upd.Updates(map[string]any{
			"membership_type": r.MembershipType,
			"payment_method":  r.PaymentMethod,
			"cash_receiver":   r.CashReceiver,
			"payment_amount":  int64(r.PaymentAmount),
			"payment_date":    r.PaymentDate,
			"expiry_date":     r.ExpiryDate,
			"status":          r.Status,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to renew member: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrConflict
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return m, applied, nil
}

func (s *Store) AppendAttendance(ctx context.Context, id string, at time.Time) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Member{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to load member: %w", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		row := &models.MemberAttendance{ID: tool.GenerateUUIDV7(), MemberID: id, CheckedInAt: at}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to record attendance: %w", err)
		}
		return tx.Model(&models.MemberAttendance{}).Where("member_id = ?", id).Count(&total).Error
	})
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *Store) SavePaymentEvent(ctx context.Context, log *models.PaymentEventLog) error {
	return s.db.WithContext(ctx).Save(log).Error
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) first(ctx context.Context, q *gorm.DB) (*models.Member, error) {
	var m models.Member
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if err := s.loadAttendance(ctx, []*models.Member{&m}); err != nil {
		return nil, err
	}
	return &m, nil
}

// loadAttendance fills Member.Attendance in check-in order with one query.
func (s *Store) loadAttendance(ctx context.Context, members []*models.Member) error {
	if len(members) == 0 {
		return nil
	}
	ids := lo.Map(members, func(m *models.Member, _ int) string { return m.ID })
	var rows []*models.MemberAttendance
	if err := s.db.WithContext(ctx).
		Where("member_id IN ?", ids).
		Order("checked_in_at asc").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load attendance: %w", err)
	}
	byMember := lo.GroupBy(rows, func(r *models.MemberAttendance) string { return r.MemberID })
	for _, m := range members {
		m.Attendance = lo.Map(byMember[m.ID], func(r *models.MemberAttendance, _ int) time.Time { return r.CheckedInAt.UTC() })
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// DB exposes the underlying handle for tests and ad hoc queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}
