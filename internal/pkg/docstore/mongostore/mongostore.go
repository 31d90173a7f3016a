// Package mongostore implements docstore.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yigit/rosterhub/internal/pkg/docstore"
)

// Store wraps one database of a connected client.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	guard  *docstore.Guard
}

var _ docstore.Store = (*Store)(nil)

// Config describes the MongoDB connection.
type Config struct {
	URI              string
	Database         string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
	MaxPoolSize      uint64
}

// Connect dials MongoDB and pings the primary before returning, so a store
// that comes back from here is usable.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(connectTimeout)
	if cfg.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", docstore.ErrUnavailable, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %v", docstore.ErrUnavailable, err)
	}

	return New(client, cfg.Database, cfg.OperationTimeout), nil
}

// New wraps an already connected client.
func New(client *mongo.Client, database string, timeout time.Duration) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
		guard:  docstore.NewGuard(timeout),
	}
}

func (s *Store) begin(ctx context.Context, name string) (context.Context, context.CancelFunc, error) {
	if s.client == nil {
		return ctx, func() {}, docstore.ErrUnavailable
	}
	if err := docstore.ValidateCollection(name); err != nil {
		return ctx, func() {}, err
	}
	return s.guard.Begin(ctx)
}

func (s *Store) Insert(ctx context.Context, name string, doc docstore.Document) (string, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return "", err
	}

	res, err := s.db.Collection(name).InsertOne(ctx, bson.M(doc.WithoutID()))
	if err != nil {
		return "", classify(err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Sprint(res.InsertedID), nil
	}
	return oid.Hex(), nil
}

func (s *Store) FindOne(ctx context.Context, name string, filter docstore.Filter) (docstore.Document, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return nil, err
	}
	query, err := buildFilter(filter)
	if err != nil {
		return nil, err
	}

	var raw bson.M
	if err := s.db.Collection(name).FindOne(ctx, query).Decode(&raw); err != nil {
		return nil, classify(err)
	}
	return fromBSON(raw), nil
}

func (s *Store) FindMany(ctx context.Context, name string, filter docstore.Filter, opts docstore.FindOptions) ([]docstore.Document, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return nil, err
	}
	query, err := buildFilter(filter)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	findOptions := options.Find()
	if len(opts.Sort) > 0 {
		sortSpec := bson.D{}
		for _, sf := range opts.Sort {
			dir := 1
			if sf.Descending {
				dir = -1
			}
			sortSpec = append(sortSpec, bson.E{Key: fieldName(sf.Field), Value: dir})
		}
		findOptions.SetSort(sortSpec)
	}
	if opts.Skip > 0 {
		findOptions.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOptions.SetLimit(opts.Limit)
	}

	cursor, err := s.db.Collection(name).Find(ctx, query, findOptions)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, classify(err)
	}

	docs := make([]docstore.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, fromBSON(raw))
	}
	return docs, nil
}

func (s *Store) Count(ctx context.Context, name string, filter docstore.Filter) (int64, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return 0, err
	}
	query, err := buildFilter(filter)
	if err != nil {
		return 0, err
	}

	n, err := s.db.Collection(name).CountDocuments(ctx, query)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (s *Store) UpdateFields(ctx context.Context, name, id string, fields docstore.Document) error {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return err
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.db.Collection(name).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M(fields.WithoutID())},
	)
	if err != nil {
		return classify(err)
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, name, id string) error {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return err
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.db.Collection(name).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return classify(err)
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMany(ctx context.Context, name string, filter docstore.Filter) (int64, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return 0, err
	}
	query, err := buildFilter(filter)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(name).DeleteMany(ctx, query)
	if err != nil {
		return 0, classify(err)
	}
	return res.DeletedCount, nil
}

func (s *Store) Upsert(ctx context.Context, name string, filter docstore.Filter, doc docstore.Document) (string, bool, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return "", false, err
	}
	query, err := buildFilter(filter)
	if err != nil {
		return "", false, err
	}

	coll := s.db.Collection(name)
	res, err := coll.UpdateOne(ctx, query,
		bson.M{"$set": bson.M(doc.WithoutID())},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return "", false, classify(err)
	}
	if res.UpsertedID != nil {
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			return oid.Hex(), true, nil
		}
		return fmt.Sprint(res.UpsertedID), true, nil
	}

	var existing struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err = coll.FindOne(ctx, query, options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&existing)
	if err != nil {
		return "", false, classify(err)
	}
	return existing.ID.Hex(), false, nil
}

func (s *Store) EnsureUniqueIndex(ctx context.Context, name, field string) error {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return err
	}
	if err := docstore.ValidateField(field); err != nil {
		return err
	}

	_, err = s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(name + "_" + field + "_uniq"),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) ValidateID(id string) error {
	_, err := objectID(id)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return docstore.ErrUnavailable
	}
	ctx, cancel, err := s.guard.Begin(ctx)
	defer cancel()
	if err != nil {
		return err
	}
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if !s.guard.Close() || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", docstore.ErrInvalidID, id)
	}
	return oid, nil
}

func fieldName(field string) string {
	if field == docstore.IDField {
		return "_id"
	}
	return field
}

func buildFilter(filter docstore.Filter) (bson.M, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	parts := make([]bson.M, 0, len(filter))
	for _, cond := range filter {
		part, err := buildCondition(cond)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	switch len(parts) {
	case 0:
		return bson.M{}, nil
	case 1:
		return parts[0], nil
	default:
		return bson.M{"$and": parts}, nil
	}
}

func buildCondition(cond docstore.Condition) (bson.M, error) {
	field := fieldName(cond.Field)
	switch cond.Op {
	case docstore.OpEq:
		if cond.Field == docstore.IDField {
			oid, err := objectID(fmt.Sprint(cond.Value))
			if err != nil {
				return nil, err
			}
			return bson.M{"_id": oid}, nil
		}
		return bson.M{field: cond.Value}, nil
	case docstore.OpIn:
		values := cond.Value.([]string)
		if cond.Field == docstore.IDField {
			oids := make([]primitive.ObjectID, 0, len(values))
			for _, v := range values {
				oid, err := objectID(v)
				if err != nil {
					return nil, err
				}
				oids = append(oids, oid)
			}
			return bson.M{"_id": bson.M{"$in": oids}}, nil
		}
		return bson.M{field: bson.M{"$in": values}}, nil
	case docstore.OpContainsFold:
		return bson.M{field: primitive.Regex{
			Pattern: regexp.QuoteMeta(cond.Value.(string)),
			Options: "i",
		}}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported operator %s", docstore.ErrInvalidFilter, cond.Op)
	}
}

func fromBSON(raw bson.M) docstore.Document {
	doc := make(docstore.Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			if oid, ok := v.(primitive.ObjectID); ok {
				doc[docstore.IDField] = oid.Hex()
			} else {
				doc[docstore.IDField] = fmt.Sprint(v)
			}
			continue
		}
		doc[k] = fromBSONValue(v)
	}
	return doc
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = fromBSONValue(e)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = fromBSONValue(e.Value)
		}
		return m
	case bson.A:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = fromBSONValue(e)
		}
		return s
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case primitive.DateTime:
		return docstore.FormatTime(t.Time())
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return docstore.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err):
		return fmt.Errorf("%w: %v", docstore.ErrTimeout, err)
	case errors.Is(err, mongo.ErrClientDisconnected) || mongo.IsNetworkError(err):
		return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", docstore.ErrDuplicateKey, err)
	default:
		return fmt.Errorf("mongostore: %w", err)
	}
}
