// Package mongostore implements document.Store on MongoDB.
//
// The document id is stored as the string _id. Results are converted back
// through relaxed extended JSON so callers see the same plain JSON values the
// embedded store returns.
package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"grisera/internal/document"
	"grisera/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultURI      = "mongodb://localhost:27017"
	defaultDatabase = "grisera"
	defaultTimeout  = 10 * time.Second
)

// Config configures the MongoDB connection
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

var _ document.Store = (*Store)(nil)

// Store implements document.Store
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects and pings the server
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		cfg.URI = defaultURI
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects the client
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Insert stores doc, generating an ObjectID-style hex id when missing
func (s *Store) Insert(ctx context.Context, collection string, doc domain.Document) (string, error) {
	id := doc.ID()
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, toBSON(id, doc)); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

// Get returns one document
func (s *Store) Get(ctx context.Context, collection, id string) (domain.Document, error) {
	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s %s: %w", collection, id, document.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	return fromBSON(m)
}

// Find runs a filtered, projected query in natural order
func (s *Store) Find(ctx context.Context, collection string, filter domain.Filter, opts document.FindOptions) ([]domain.Document, error) {
	findOpts := options.Find()
	if proj := projectionBSON(opts.Projection); proj != nil {
		findOpts.SetProjection(proj)
	}
	cursor, err := s.db.Collection(collection).Find(ctx, FilterBSON(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	var ms []bson.M
	if err := cursor.All(ctx, &ms); err != nil {
		return nil, fmt.Errorf("read %s cursor: %w", collection, err)
	}
	out := make([]domain.Document, 0, len(ms))
	for _, m := range ms {
		doc, err := fromBSON(m)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// Replace overwrites an existing document
func (s *Store) Replace(ctx context.Context, collection, id string, doc domain.Document) error {
	res, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, toBSON(id, doc))
	if err != nil {
		return fmt.Errorf("replace %s %s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, document.ErrNotFound)
	}
	return nil
}

// Delete removes a document
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, document.ErrNotFound)
	}
	return nil
}

func toBSON(id string, doc domain.Document) bson.M {
	m := bson.M{"_id": id}
	for k, v := range doc {
		if k == domain.IDKey {
			continue
		}
		m[k] = v
	}
	return m
}

func fromBSON(m bson.M) (domain.Document, error) {
	data, err := bson.MarshalExtJSON(m, false, false)
	if err != nil {
		return nil, fmt.Errorf("encode bson document: %w", err)
	}
	doc := domain.Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode bson document: %w", err)
	}
	if id, ok := doc["_id"]; ok {
		doc[domain.IDKey] = id
		delete(doc, "_id")
	}
	return doc, nil
}

// FilterBSON translates a domain.Filter into a MongoDB query. Equality on an
// array field already means "contains" in MongoDB; numeric strings also match
// the number they spell, as they do for the embedded store.
func FilterBSON(f domain.Filter) bson.M {
	q := bson.M{}
	for key, cond := range f {
		if key == domain.IDKey {
			key = "_id"
		}
		switch c := cond.(type) {
		case domain.In:
			q[key] = bson.M{"$in": bson.A(c)}
		case string:
			if n, err := strconv.ParseFloat(c, 64); err == nil {
				q[key] = bson.M{"$in": bson.A{c, n}}
			} else {
				q[key] = c
			}
		default:
			q[key] = c
		}
	}
	return q
}

func projectionBSON(p document.Projection) bson.M {
	if p.Empty() {
		return nil
	}
	proj := bson.M{}
	if len(p.Include) > 0 {
		for _, f := range p.Include {
			proj[f] = 1
		}
		return proj
	}
	for _, f := range p.Exclude {
		proj[f] = 0
	}
	return proj
}
