package gormstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/store"
	"github.com/clubhouse/membership/pkg/tool"
	"github.com/clubhouse/membership/pkg/types"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", tool.GenerateUUIDV7())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newMember(key, email string, expiry time.Time) *models.Member {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Member{
		ID:                       tool.GenerateUUIDV7(),
		MembershipKey:            key,
		Name:                     "Sam Rivera",
		Email:                    email,
		StudentNumber:            "12345678",
		EmergencyContactName:     "Jo Rivera",
		EmergencyContactPhone:    "604-555-0100",
		EmergencyContactRelation: "parent",
		WaiverSigned:             true,
		MembershipType:           types.MembershipTypeTerm,
		PaymentMethod:            types.PaymentMethodOnline,
		PaymentAmount:            5155,
		PaymentDate:              now,
		StartDate:                now,
		ExpiryDate:               expiry,
		Status:                   types.MemberStatusActive,
	}
}

func TestInsertIfAbsent_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	expiry := time.Now().UTC().AddDate(0, 4, 0).Truncate(time.Millisecond)

	first, created, err := s.InsertIfAbsent(ctx, newMember("key-1", "sam@ubc.ca", expiry))
	require.NoError(t, err)
	require.True(t, created)

	dup := newMember("key-1", "other@ubc.ca", expiry.AddDate(1, 0, 0))
	second, created, err := s.InsertIfAbsent(ctx, dup)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "sam@ubc.ca", second.Email)
	require.True(t, first.ExpiryDate.Equal(second.ExpiryDate))

	_, total, err := s.List(ctx, &store.ListQuery{Size: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestInsertIfAbsent_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	expiry := time.Now().UTC().AddDate(0, 12, 0)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, _, err := s.InsertIfAbsent(ctx, newMember("same-key", "race@ubc.ca", expiry))
			if assert.NoError(t, err) {
				ids[i] = m.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
	_, total, err := s.List(ctx, &store.ListQuery{Size: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestGetByEmail_PrefersLatestExpiry(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.Create(ctx, newMember("a", "dup@ubc.ca", now.AddDate(0, -1, 0))))
	latest := newMember("b", "dup@ubc.ca", now.AddDate(0, 3, 0))
	require.NoError(t, s.Create(ctx, latest))

	got, err := s.GetByEmail(ctx, "dup@ubc.ca")
	require.NoError(t, err)
	require.Equal(t, latest.ID, got.ID)

	_, err = s.GetByEmail(ctx, "nobody@ubc.ca")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAppendAttendance(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	m := newMember("k", "att@ubc.ca", time.Now().UTC().AddDate(0, 4, 0))
	require.NoError(t, s.Create(ctx, m))

	t1 := time.Date(2025, 9, 2, 18, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)
	n, err := s.AppendAttendance(ctx, m.ID, t1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = s.AppendAttendance(ctx, m.ID, t2)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := s.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendance, 2)
	require.True(t, got.Attendance[0].Equal(t1))
	require.True(t, got.Attendance[1].Equal(t2))

	_, err = s.AppendAttendance(ctx, "missing", t1)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyRenewal_SkipsAppliedKey(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	m := newMember("k", "renew@ubc.ca", now.AddDate(0, -1, 0))
	m.Status = types.MemberStatusExpired
	require.NoError(t, s.Create(ctx, m))

	r := &store.Renewal{
		MembershipType: types.MembershipTypeYear,
		PaymentMethod:  types.PaymentMethodOnline,
		PaymentAmount:  10310,
		PaymentDate:    now,
		ExpiryDate:     now.AddDate(0, 12, 0),
		Status:         types.MemberStatusActive,
		PaymentKey:     "pay-1",
	}
	got, applied, err := s.ApplyRenewal(ctx, m.ID, r)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, types.MemberStatusActive, got.Status)
	require.Equal(t, types.Cents(10310), got.PaymentAmount)
	require.True(t, got.ExpiryDate.Equal(r.ExpiryDate))

	again := *r
	again.ExpiryDate = now.AddDate(0, 24, 0)
	got, applied, err = s.ApplyRenewal(ctx, m.ID, &again)
	require.NoError(t, err)
	require.False(t, applied)
	require.True(t, got.ExpiryDate.Equal(r.ExpiryDate))

	_, _, err = s.ApplyRenewal(ctx, "missing", r)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyRenewal_LateRedeliveryAfterNewerPayment(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	m := newMember("k", "late@ubc.ca", now.AddDate(0, 1, 0))
	require.NoError(t, s.Create(ctx, m))

	renewal := func(key string, prev time.Time) *store.Renewal {
		return &store.Renewal{
			MembershipType: types.MembershipTypeTerm,
			PaymentMethod:  types.PaymentMethodOnline,
			PaymentAmount:  5155,
			PaymentDate:    now,
			ExpiryDate:     prev.AddDate(0, 4, 0),
			Status:         types.MemberStatusActive,
			PaymentKey:     key,
			PrevExpiry:     prev,
		}
	}

	got, applied, err := s.ApplyRenewal(ctx, m.ID, renewal("pay-a", m.ExpiryDate))
	require.NoError(t, err)
	require.True(t, applied)
	afterA := got.ExpiryDate

	got, applied, err = s.ApplyRenewal(ctx, m.ID, renewal("pay-b", afterA))
	require.NoError(t, err)
	require.True(t, applied)
	afterB := got.ExpiryDate
	require.True(t, afterB.Equal(afterA.AddDate(0, 4, 0)))

	// payment A redelivered after B, computed from the current expiry
	got, applied, err = s.ApplyRenewal(ctx, m.ID, renewal("pay-a", afterB))
	require.NoError(t, err)
	require.False(t, applied)
	require.True(t, got.ExpiryDate.Equal(afterB))

	var n int64
	require.NoError(t, s.DB().Model(&models.MemberRenewal{}).Where("member_id = ?", m.ID).Count(&n).Error)
	require.EqualValues(t, 2, n)
}

func TestApplyRenewal_StaleExpiryConflicts(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	m := newMember("k", "stale@ubc.ca", now.AddDate(0, 1, 0))
	require.NoError(t, s.Create(ctx, m))

	stale := m.ExpiryDate.Add(-time.Hour)
	_, _, err := s.ApplyRenewal(ctx, m.ID, &store.Renewal{
		MembershipType: types.MembershipTypeTerm,
		PaymentMethod:  types.PaymentMethodCash,
		CashReceiver:   "Dana",
		PaymentAmount:  5000,
		PaymentDate:    now,
		ExpiryDate:     stale.AddDate(0, 4, 0),
		Status:         types.MemberStatusActive,
		PaymentKey:     "cash:1",
		PrevExpiry:     stale,
	})
	require.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, got.ExpiryDate.Equal(m.ExpiryDate))

	// the rolled back key can still be applied
	got, applied, err := s.ApplyRenewal(ctx, m.ID, &store.Renewal{
		MembershipType: types.MembershipTypeTerm,
		PaymentMethod:  types.PaymentMethodCash,
		CashReceiver:   "Dana",
		PaymentAmount:  5000,
		PaymentDate:    now,
		ExpiryDate:     m.ExpiryDate.AddDate(0, 4, 0),
		Status:         types.MemberStatusActive,
		PaymentKey:     "cash:1",
		PrevExpiry:     m.ExpiryDate,
	})
	require.NoError(t, err)
	require.True(t, applied)
	require.True(t, got.ExpiryDate.Equal(m.ExpiryDate.AddDate(0, 4, 0)))
}

func TestSearchAndList(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()

	a := newMember("a", "alex.chan@ubc.ca", now.AddDate(0, 4, 0))
	a.Name = "Alex Chan"
	b := newMember("b", "bea@gmail.com", now.AddDate(0, -2, 0))
	b.Name = "Bea 100%"
	b.Status = types.MemberStatusExpired
	b.MembershipType = types.MembershipTypeNonStudent
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	res, err := s.Search(ctx, "ALEX", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, a.ID, res[0].ID)

	res, err = s.Search(ctx, "%", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, b.ID, res[0].ID)

	rows, total, err := s.List(ctx, &store.ListQuery{
		Filters: []*types.CommonFilter{{Field: "membership_type", Operator: types.CommonFilterOperatorEq, Values: []any{"nonstudent"}}},
		Size:    10,
		SortBy:  "name",
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, b.ID, rows[0].ID)

	rows, total, err = s.List(ctx, &store.ListQuery{Size: 1, From: 1, SortBy: "name"})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, rows, 1)
	require.Equal(t, b.ID, rows[0].ID)
}

func TestPostgresDialect_GetByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	s := New(gdb)

	mock.ExpectQuery(`SELECT \* FROM "members" WHERE email = \$1 ORDER BY expiry_date desc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))
	_, err = s.GetByEmail(context.Background(), "ghost@ubc.ca")
	require.ErrorIs(t, err, store.ErrNotFound)

	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, mock.ExpectationsWereMet())
}
