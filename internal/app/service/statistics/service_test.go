package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clubhouse/membership/internal/app/service/membership"
	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/store"
	"github.com/clubhouse/membership/internal/store/storetest"
	"github.com/clubhouse/membership/pkg/tool"
	"github.com/clubhouse/membership/pkg/types"
)

var now = time.Date(2025, 9, 3, 16, 45, 0, 0, time.UTC)

func seed(t *testing.T, svc *Service, typ types.MembershipType, method types.PaymentMethod, amount types.Cents, expiry time.Time, status types.MemberStatus, attendance ...time.Time) string {
	t.Helper()
	s := svc.store
	m := &models.Member{
		ID:                       tool.GenerateUUIDV7(),
		MembershipKey:            "cash:" + tool.GenerateUUIDV7(),
		Name:                     "Member",
		Email:                    tool.GenerateUUIDV7() + "@ubc.ca",
		EmergencyContactName:     "E",
		EmergencyContactPhone:    "1",
		EmergencyContactRelation: "friend",
		MembershipType:           typ,
		PaymentMethod:            method,
		PaymentAmount:            amount,
		PaymentDate:              now.AddDate(0, 0, -1),
		StartDate:                now.AddDate(0, 0, -1),
		ExpiryDate:               expiry,
		Status:                   status,
	}
	require.NoError(t, s.Create(context.Background(), m))
	for _, at := range attendance {
		_, err := s.AppendAttendance(context.Background(), m.ID, at)
		require.NoError(t, err)
	}
	return m.ID
}

func newService(t *testing.T) *Service {
	svc := New(storetest.NewSQLite(t))
	svc.now = func() time.Time { return now }
	return svc
}

func find(items []StatisticDataItem, label string) int64 {
	for _, it := range items {
		if it.Label == label {
			return it.Value
		}
	}
	return -1
}

func TestGetStatistic_Summary(t *testing.T) {
	svc := newService(t)
	seed(t, svc, types.MembershipTypeTerm, types.PaymentMethodCash, 5000, now.AddDate(0, 4, 0), types.MemberStatusActive,
		now.Add(-2*time.Hour), now.AddDate(0, 0, -1))
	seed(t, svc, types.MembershipTypeYear, types.PaymentMethodOnline, 10310, now.AddDate(1, 0, 0), types.MemberStatusActive,
		now.Add(-time.Hour))
	// stored as active but already past expiry
	seed(t, svc, types.MembershipTypeTerm, types.PaymentMethodOnline, 5155, now.Add(-time.Minute), types.MemberStatusActive)
	seed(t, svc, types.MembershipTypeNonStudent, types.PaymentMethodCash, 8000, now.AddDate(0, 1, 0), types.MemberStatusSuspended)

	res, err := svc.GetStatistic(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.DataItems, len(AllStatisticTypes))

	require.Equal(t, int64(4), res.DataItems[StatisticTypeTotalMembers][0].Value)

	byStatus := res.DataItems[StatisticTypeMembersByStatus]
	require.Equal(t, int64(2), find(byStatus, "active"))
	require.Equal(t, int64(1), find(byStatus, "expired"))
	require.Equal(t, int64(1), find(byStatus, "suspended"))

	byType := res.DataItems[StatisticTypeMembersByType]
	require.Equal(t, int64(2), find(byType, "term"))
	require.Equal(t, int64(1), find(byType, "year"))
	require.Equal(t, int64(1), find(byType, "nonstudent"))

	latest := res.DataItems[StatisticTypeLatestPaymentByMethod]
	require.Equal(t, int64(13000), find(latest, "cash"))
	require.Equal(t, int64(15465), find(latest, "online"))

	today := res.DataItems[StatisticTypeCheckInsToday]
	require.Equal(t, "2025-09-03", today[0].Date)
	require.Equal(t, int64(2), today[0].Value)

	checkins := res.DataItems[StatisticTypeDailyCheckInsAll]
	require.Len(t, checkins, dailyWindow)
	require.Equal(t, "2025-09-03", checkins[0].Date)
	require.Equal(t, int64(2), checkins[0].Value)
	require.Equal(t, "2025-09-02", checkins[1].Date)
	require.Equal(t, int64(1), checkins[1].Value)
}

func TestGetStatistic_FiltersAndItems(t *testing.T) {
	svc := newService(t)
	seed(t, svc, types.MembershipTypeTerm, types.PaymentMethodCash, 5000, now.AddDate(0, 4, 0), types.MemberStatusActive)
	seed(t, svc, types.MembershipTypeYear, types.PaymentMethodOnline, 10310, now.AddDate(1, 0, 0), types.MemberStatusActive)

	res, err := svc.GetStatistic(context.Background(), &StatisticRequest{
		Filters:   []*types.CommonFilter{{Field: "payment_method", Operator: types.CommonFilterOperatorEq, Values: []any{"cash"}}},
		DataItems: []StatisticType{StatisticTypeTotalMembers, StatisticTypeTotalMembers},
	})
	require.NoError(t, err)
	require.Len(t, res.DataItems, 1)
	require.Equal(t, int64(1), res.DataItems[StatisticTypeTotalMembers][0].Value)
}

func TestGetStatistic_Invalid(t *testing.T) {
	svc := newService(t)

	_, err := svc.GetStatistic(context.Background(), &StatisticRequest{DataItems: []StatisticType{"gmv"}})
	require.ErrorIs(t, err, membership.ErrValidation)

	_, err = svc.GetStatistic(context.Background(), &StatisticRequest{
		Filters: []*types.CommonFilter{{Field: "password", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}},
	})
	require.ErrorIs(t, err, membership.ErrValidation)
}

func TestDaily(t *testing.T) {
	items := daily(now, []time.Time{
		now,
		now.AddDate(0, 0, -29),
		now.AddDate(0, 0, -30),
		now.AddDate(0, 0, 1),
	})
	require.Len(t, items, dailyWindow)
	require.Equal(t, int64(1), items[0].Value)
	require.Equal(t, "2025-08-05", items[dailyWindow-1].Date)
	require.Equal(t, int64(1), items[dailyWindow-1].Value)
}

func TestGetStatistic_LatestPaymentAfterRenewal(t *testing.T) {
	svc := newService(t)
	id := seed(t, svc, types.MembershipTypeTerm, types.PaymentMethodCash, 5000, now.AddDate(0, 1, 0), types.MemberStatusActive)
	_, applied, err := svc.store.ApplyRenewal(context.Background(), id, &store.Renewal{
		MembershipType: types.MembershipTypeYear,
		PaymentMethod:  types.PaymentMethodOnline,
		PaymentAmount:  10310,
		PaymentDate:    now,
		ExpiryDate:     now.AddDate(1, 1, 0),
		Status:         types.MemberStatusActive,
		PaymentKey:     "mk_year",
	})
	require.NoError(t, err)
	require.True(t, applied)

	res, err := svc.GetStatistic(context.Background(), &StatisticRequest{
		DataItems: []StatisticType{StatisticTypeLatestPaymentByMethod},
	})
	require.NoError(t, err)
	latest := res.DataItems[StatisticTypeLatestPaymentByMethod]
	require.Equal(t, int64(10310), find(latest, "online"))
	require.Equal(t, int64(-1), find(latest, "cash"))

	_, err = svc.GetStatistic(context.Background(), &StatisticRequest{DataItems: []StatisticType{"revenue_by_method"}})
	require.ErrorIs(t, err, membership.ErrValidation)
}
