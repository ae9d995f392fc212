package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/store"
	"github.com/clubhouse/membership/pkg/types"
)

const ns = "clubhouse.members"

func sampleMember() *models.Member {
	now := time.Date(2025, 9, 1, 17, 30, 0, 0, time.UTC)
	return &models.Member{
		ID:                       "0192a3c4-0000-7000-8000-000000000001",
		MembershipKey:            "key-1",
		Name:                     "Sam Rivera",
		Email:                    "sam@ubc.ca",
		EmergencyContactName:     "Jo Rivera",
		EmergencyContactPhone:    "604-555-0100",
		EmergencyContactRelation: "parent",
		WaiverSigned:             true,
		MembershipType:           types.MembershipTypeTerm,
		PaymentMethod:            types.PaymentMethodOnline,
		PaymentAmount:            5155,
		PaymentDate:              now,
		StartDate:                now,
		ExpiryDate:               now.AddDate(0, 4, 0),
		Status:                   types.MemberStatusActive,
		Attendance:               []time.Time{},
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

func memberDoc(t testing.TB, m *models.Member) bson.D {
	raw, err := bson.Marshal(m)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}
	ctx := context.Background()

	mt.Run("migrate creates indexes", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, s.Migrate(ctx))
	})

	mt.Run("insert if absent creates", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		m := sampleMember()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 1},
				bson.E{Key: "nModified", Value: 0},
				bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: m.ID}}}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, memberDoc(mt, m)),
		)

		got, created, err := s.InsertIfAbsent(ctx, m)
		require.NoError(mt, err)
		require.True(mt, created)
		require.Equal(mt, m.ID, got.ID)
		require.Equal(mt, types.Cents(5155), got.PaymentAmount)
		require.True(mt, got.ExpiryDate.Equal(m.ExpiryDate))
		require.Equal(mt, time.UTC, got.ExpiryDate.Location())
	})

	mt.Run("insert if absent returns existing", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		existing := sampleMember()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, memberDoc(mt, existing)),
		)

		dup := sampleMember()
		dup.ID = "0192a3c4-0000-7000-8000-000000000002"
		got, created, err := s.InsertIfAbsent(ctx, dup)
		require.NoError(mt, err)
		require.False(mt, created)
		require.Equal(mt, existing.ID, got.ID)
	})

	mt.Run("insert if absent tolerates duplicate key race", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		existing := sampleMember()
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, memberDoc(mt, existing)),
		)

		got, created, err := s.InsertIfAbsent(ctx, sampleMember())
		require.NoError(mt, err)
		require.False(mt, created)
		require.Equal(mt, existing.ID, got.ID)
	})

	mt.Run("get by email not found", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := s.GetByEmail(ctx, "ghost@ubc.ca")
		require.ErrorIs(mt, err, store.ErrNotFound)
	})

	mt.Run("append attendance returns count", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		t1 := time.Date(2025, 9, 2, 18, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "m1"},
			{Key: "attendance", Value: bson.A{t1, t1.Add(time.Hour)}},
		}}))

		n, err := s.AppendAttendance(ctx, "m1", t1.Add(time.Hour))
		require.NoError(mt, err)
		require.Equal(mt, 2, n)
	})

	mt.Run("append attendance on missing member", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := s.AppendAttendance(ctx, "missing", time.Now())
		require.ErrorIs(mt, err, store.ErrNotFound)
	})

	mt.Run("renewal with applied key is skipped", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		m := sampleMember()
		m.AppliedPaymentKeys = []string{"pay-a", "pay-b"}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, memberDoc(mt, m)),
		)

		// an older key redelivered after a newer one was applied
		got, applied, err := s.ApplyRenewal(ctx, m.ID, &store.Renewal{PaymentKey: "pay-a", PrevExpiry: m.ExpiryDate})
		require.NoError(mt, err)
		require.False(mt, applied)
		require.Equal(mt, m.ID, got.ID)

		update := mt.GetStartedEvent()
		require.Equal(mt, "update", update.CommandName)
		stmt := update.Command.Lookup("updates").Array().Index(0).Value().Document()
		q := stmt.Lookup("q").Document()
		require.Equal(mt, "pay-a", q.Lookup("applied_payment_keys", "$ne").StringValue())
		require.Equal(mt, m.ExpiryDate.UnixMilli(), q.Lookup("expiry_date").Time().UnixMilli())
		u := stmt.Lookup("u").Document()
		require.Equal(mt, "pay-a", u.Lookup("$addToSet", "applied_payment_keys").StringValue())
	})

	mt.Run("renewal applies new key", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		m := sampleMember()
		m.AppliedPaymentKeys = []string{"pay-a"}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, memberDoc(mt, m)),
		)

		_, applied, err := s.ApplyRenewal(ctx, m.ID, &store.Renewal{PaymentKey: "pay-b", PrevExpiry: m.ExpiryDate})
		require.NoError(mt, err)
		require.True(mt, applied)
	})

	mt.Run("renewal on moved expiry conflicts", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		m := sampleMember()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, memberDoc(mt, m)),
		)

		_, _, err := s.ApplyRenewal(ctx, m.ID, &store.Renewal{PaymentKey: "pay-c", PrevExpiry: m.ExpiryDate.Add(-time.Hour)})
		require.ErrorIs(mt, err, store.ErrConflict)
	})

	mt.Run("list counts and pages", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		a, b := sampleMember(), sampleMember()
		b.ID = "0192a3c4-0000-7000-8000-000000000002"
		b.MembershipKey = "key-2"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(5)}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, memberDoc(mt, a), memberDoc(mt, b)),
		)

		rows, total, err := s.List(ctx, &store.ListQuery{
			Filters: []*types.CommonFilter{{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"active"}}},
			Size:    2,
			SortBy:  "expiry_date",
		})
		require.NoError(mt, err)
		require.EqualValues(mt, 5, total)
		require.Len(mt, rows, 2)
		require.Equal(mt, b.ID, rows[1].ID)
	})
}

func TestListFilter(t *testing.T) {
	require.Equal(t, bson.M{}, listFilter(&store.ListQuery{}))

	f := listFilter(&store.ListQuery{Filters: []*types.CommonFilter{
		{Field: "id", Operator: types.CommonFilterOperatorIn, Values: []any{"a", "b"}},
		{Field: "status", Operator: types.CommonFilterOperatorEq},
	}})
	require.Equal(t, bson.M{"$and": []bson.M{{"_id": bson.M{"$in": []any{"a", "b"}}}}}, f)
}
