// Package mongostore keeps members as documents in a MongoDB collection.
// Attendance is embedded in the member document; the unique index on
// membership_key is what makes online registration idempotent.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/store"
	"github.com/clubhouse/membership/pkg/types"
)

const (
	MembersCollection = "members"
	EventsCollection  = "payment_event_log"
)

type Store struct {
	client  *mongo.Client
	members *mongo.Collection
	events  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials uri and returns a store on database db.
func Connect(ctx context.Context, uri, db string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	return New(client, client.Database(db)), nil
}

func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:  client,
		members: db.Collection(MembersCollection),
		events:  db.Collection(EventsCollection),
	}
}

// Migrate ensures the members indexes exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.members.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "membership_key", Value: 1}},
			Options: options.Index().SetName("uniq_members_membership_key").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_members_email"),
		},
		{
			Keys:    bson.D{{Key: "expiry_date", Value: 1}},
			Options: options.Index().SetName("idx_members_expiry_date"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create member indexes: %w", err)
	}
	return nil
}

func (s *Store) InsertIfAbsent(ctx context.Context, m *models.Member) (*models.Member, bool, error) {
	prepare(m)
	res, err := s.members.UpdateOne(ctx,
		bson.M{"membership_key": m.MembershipKey},
		bson.M{"$setOnInsert": m},
		options.Update().SetUpsert(true),
	)
	created := false
	switch {
	case err == nil:
		created = res.UpsertedCount > 0
	case mongo.IsDuplicateKeyError(err):
		// lost the race to a concurrent insert with the same key
	default:
		return nil, false, fmt.Errorf("failed to insert member: %w", err)
	}

	stored, err := s.findOne(ctx, bson.M{"membership_key": m.MembershipKey})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (s *Store) Create(ctx context.Context, m *models.Member) error {
	prepare(m)
	if _, err := s.members.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Member, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.findOne(ctx, bson.M{"email": email}, options.FindOne().SetSort(bson.D{{Key: "expiry_date", Value: -1}}))
}

func (s *Store) Search(ctx context.Context, query string, limit int) ([]*models.Member, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"email": re},
		bson.M{"student_number": re},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(int64(limit))
	return s.find(ctx, filter, opts)
}

func (s *Store) List(ctx context.Context, q *store.ListQuery) ([]*models.Member, int64, error) {
	filter := listFilter(q)
	total, err := s.members.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count members: %w", err)
	}

	opts := options.Find().SetLimit(int64(q.Size))
	if q.From > 0 {
		opts.SetSkip(int64(q.From))
	}
	if q.SortBy != "" {
		dir := 1
		if q.SortDesc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: bsonField(q.SortBy), Value: dir}})
	}
	rows, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ApplyRenewal adds the payment key to applied_payment_keys in the same
// update that moves the expiry, so a key is applied at most once.
func (s *Store) ApplyRenewal(ctx context.Context, id string, r *store.Renewal) (*models.Member, bool, error) {
	filter := bson.M{"_id": id, "applied_payment_keys": bson.M{"$ne": r.PaymentKey}}
	if !r.PrevExpiry.IsZero() {
		filter["expiry_date"] = r.PrevExpiry.UTC()
	}
	res, err := s.members.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			"membership_type": r.MembershipType,
			"payment_method":  r.PaymentMethod,
			"cash_receiver":   r.CashReceiver,
			"payment_amount":  r.PaymentAmount,
			"payment_date":    r.PaymentDate,
			"expiry_date":     r.ExpiryDate,
			"status":          r.Status,
			"updated_at":      time.Now().UTC(),
		},
		"$addToSet": bson.M{"applied_payment_keys": r.PaymentKey},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to renew member: %w", err)
	}
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if res.MatchedCount > 0 {
		return m, true, nil
	}
	if lo.Contains(m.AppliedPaymentKeys, r.PaymentKey) {
		return m, false, nil
	}
	return nil, false, store.ErrConflict
}

func (s *Store) AppendAttendance(ctx context.Context, id string, at time.Time) (int, error) {
	var m models.Member
	err := s.members.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"attendance": at.UTC()}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"attendance": 1}),
	).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, store.ErrNotFound
		}
		return 0, fmt.Errorf("failed to record attendance: %w", err)
	}
	return len(m.Attendance), nil
}

func (s *Store) SavePaymentEvent(ctx context.Context, log *models.PaymentEventLog) error {
	now := time.Now().UTC()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now
	_, err := s.events.ReplaceOne(ctx, bson.M{"_id": log.ID}, log, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) findOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) (*models.Member, error) {
	var m models.Member
	if err := s.members.FindOne(ctx, filter, opts...).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	normalize(&m)
	return &m, nil
}

func (s *Store) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*models.Member, error) {
	cur, err := s.members.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer cur.Close(ctx)

	rows := make([]*models.Member, 0)
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	lo.ForEach(rows, func(m *models.Member, _ int) { normalize(m) })
	return rows, nil
}

func listFilter(q *store.ListQuery) bson.M {
	parts := lo.FilterMap(q.Filters, func(f *types.CommonFilter, _ int) (bson.M, bool) {
		cp := *f
		cp.Field = bsonField(f.Field)
		m := cp.BSON()
		return m, m != nil
	})
	if len(parts) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": parts}
}

func bsonField(column string) string {
	if column == "id" {
		return "_id"
	}
	return column
}

// prepare fills the fields GORM would otherwise set. attendance must be an
// array for $push to work.
func prepare(m *models.Member) {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}
	if m.Attendance == nil {
		m.Attendance = []time.Time{}
	}
}

// normalize returns decoded times in UTC; the driver decodes BSON dates into local time.
func normalize(m *models.Member) {
	m.PaymentDate = m.PaymentDate.UTC()
	m.StartDate = m.StartDate.UTC()
	m.ExpiryDate = m.ExpiryDate.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	if m.Attendance == nil {
		m.Attendance = []time.Time{}
	}
	for i, t := range m.Attendance {
		m.Attendance[i] = t.UTC()
	}
}
