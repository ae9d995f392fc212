package statistics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/clubhouse/membership/internal/app/service/membership"
	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/store"
	"github.com/clubhouse/membership/pkg/types"
)

type StatisticType string

const (
	StatisticTypeTotalMembers    StatisticType = "total_members"
	StatisticTypeMembersByStatus StatisticType = "members_by_status"
	StatisticTypeMembersByType   StatisticType = "members_by_type"
	// StatisticTypeLatestPaymentByMethod sums each member's most recent
	// payment. Earlier payments replaced by a renewal are not counted.
	StatisticTypeLatestPaymentByMethod StatisticType = "latest_payment_by_method"
	StatisticTypeCheckInsToday         StatisticType = "checkins_today"
	StatisticTypeDailyNewMembers       StatisticType = "daily_new_members"
	StatisticTypeDailyCheckInsAll      StatisticType = "daily_checkins"
)

// AllStatisticTypes is what a request without data items gets.
var AllStatisticTypes = []StatisticType{
	StatisticTypeTotalMembers,
	StatisticTypeMembersByStatus,
	StatisticTypeMembersByType,
	StatisticTypeLatestPaymentByMethod,
	StatisticTypeCheckInsToday,
	StatisticTypeDailyNewMembers,
	StatisticTypeDailyCheckInsAll,
}

const (
	scanPageSize = 500
	// daily series cover this many days ending today.
	dailyWindow = 30
)

type StatisticRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	DataItems []StatisticType       `json:"data_items"`
}

type StatisticDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type StatisticResponse struct {
	GeneratedAt time.Time                             `json:"generated_at"`
	DataItems   map[StatisticType][]StatisticDataItem `json:"data_items"`
}

type Service struct {
	store store.MemberStore
	now   func() time.Time
}

func New(s store.Store) *Service {
	return &Service{store: s, now: membership.Now}
}

// GetStatistic scans the members matching the request filters once and
// derives every requested item from that snapshot.
func (s *Service) GetStatistic(ctx context.Context, req *StatisticRequest) (*StatisticResponse, error) {
	if req == nil {
		req = &StatisticRequest{}
	}
	items := lo.Uniq(req.DataItems)
	if len(items) == 0 {
		items = AllStatisticTypes
	}
	for _, it := range items {
		if !lo.Contains(AllStatisticTypes, it) {
			return nil, fmt.Errorf("%w: invalid data item id: %s", membership.ErrValidation, it)
		}
	}
	filters, err := store.NormalizeFilters(req.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", membership.ErrValidation, err)
	}

	members, err := s.scan(ctx, filters)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, m := range members {
		m.RefreshStatus(now)
	}

	out := make(map[StatisticType][]StatisticDataItem, len(items))
	for _, it := range items {
		out[it] = s.compute(it, members, now)
	}
	return &StatisticResponse{GeneratedAt: now, DataItems: out}, nil
}

func (s *Service) scan(ctx context.Context, filters []*types.CommonFilter) ([]*models.Member, error) {
	var all []*models.Member
	for from := 0; ; from += scanPageSize {
		page, total, err := s.store.List(ctx, &store.ListQuery{
			Filters: filters,
			From:    from,
			Size:    scanPageSize,
			SortBy:  "id",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan members: %w", err)
		}
		all = append(all, page...)
		if len(page) < scanPageSize || int64(len(all)) >= total {
			return all, nil
		}
	}
}

func (s *Service) compute(it StatisticType, members []*models.Member, now time.Time) []StatisticDataItem {
	switch it {
	case StatisticTypeTotalMembers:
		return []StatisticDataItem{{Value: int64(len(members))}}
	case StatisticTypeMembersByStatus:
		return labelled(lo.CountValuesBy(members, func(m *models.Member) string { return string(m.Status) }))
	case StatisticTypeMembersByType:
		return labelled(lo.CountValuesBy(members, func(m *models.Member) string { return string(m.MembershipType) }))
	case StatisticTypeLatestPaymentByMethod:
		groups := lo.GroupBy(members, func(m *models.Member) string { return string(m.PaymentMethod) })
		sums := lo.MapValues(groups, func(ms []*models.Member, _ string) int64 {
			return lo.SumBy(ms, func(m *models.Member) int64 { return int64(m.PaymentAmount) })
		})
		return labelledInt64(sums)
	case StatisticTypeCheckInsToday:
		start := startOfDay(now)
		n := lo.SumBy(members, func(m *models.Member) int {
			return lo.CountBy(m.Attendance, func(at time.Time) bool { return !at.Before(start) })
		})
		return []StatisticDataItem{{Date: start.Format(time.DateOnly), Value: int64(n)}}
	case StatisticTypeDailyNewMembers:
		return daily(now, lo.Map(members, func(m *models.Member, _ int) time.Time { return m.CreatedAt }))
	case StatisticTypeDailyCheckInsAll:
		return daily(now, lo.FlatMap(members, func(m *models.Member, _ int) []time.Time { return m.Attendance }))
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daily buckets instants by UTC day over the window ending today, newest first.
func daily(now time.Time, instants []time.Time) []StatisticDataItem {
	today := startOfDay(now)
	first := today.AddDate(0, 0, -(dailyWindow - 1))
	counts := lo.CountValuesBy(
		lo.Filter(instants, func(t time.Time, _ int) bool { return !t.Before(first) && t.Before(today.AddDate(0, 0, 1)) }),
		func(t time.Time) string { return t.UTC().Format(time.DateOnly) },
	)
	out := make([]StatisticDataItem, 0, dailyWindow)
	for d := today; !d.Before(first); d = d.AddDate(0, 0, -1) {
		key := d.Format(time.DateOnly)
		out = append(out, StatisticDataItem{Date: key, Value: int64(counts[key])})
	}
	return out
}

func labelled(counts map[string]int) []StatisticDataItem {
	return labelledInt64(lo.MapValues(counts, func(v int, _ string) int64 { return int64(v) }))
}

func labelledInt64(values map[string]int64) []StatisticDataItem {
	out := lo.MapToSlice(values, func(k string, v int64) StatisticDataItem {
		return StatisticDataItem{Label: k, Value: v}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

var Module = fx.Options(
	fx.Provide(New),
)
