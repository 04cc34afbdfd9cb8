// Package mongosource lists option records from a MongoDB collection.
package mongosource

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// Source runs a Find per fetch. Documents are normalised into plain maps:
// ObjectIDs become hex strings, DateTimes become time.Time and nested
// documents become map[string]any so record paths resolve through them.
type Source struct {
	coll   *mongo.Collection
	filter bson.M
	sort   bson.D
	limit  int64
	fields []string
}

var _ selectsingle.Service[record.Record] = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithFilter restricts the documents returned.
func WithFilter(filter bson.M) Option {
	return func(s *Source) {
		s.filter = filter
	}
}

// WithSort appends a sort key. Descending keys are prefixed with "-".
func WithSort(keys ...string) Option {
	return func(s *Source) {
		for _, key := range keys {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			dir := 1
			if strings.HasPrefix(key, "-") {
				dir = -1
				key = strings.TrimPrefix(key, "-")
			}
			s.sort = append(s.sort, bson.E{Key: key, Value: dir})
		}
	}
}

// WithLimit caps the number of documents.
func WithLimit(limit int64) Option {
	return func(s *Source) {
		s.limit = limit
	}
}

// WithFields projects the listed fields only.
func WithFields(fields ...string) Option {
	return func(s *Source) {
		s.fields = append([]string(nil), fields...)
	}
}

// New builds a Source over coll.
func New(coll *mongo.Collection, opts ...Option) *Source {
	s := &Source{coll: coll}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Fetch lists the documents.
func (s *Source) Fetch(ctx context.Context) ([]record.Record, error) {
	if s.coll == nil {
		return nil, fmt.Errorf("mongosource: collection is required")
	}

	cur, err := s.coll.Find(ctx, s.filterOrAll(), s.findOptions())
	if err != nil {
		return nil, fmt.Errorf("mongosource: find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongosource: decode: %w", err)
	}

	out := make([]record.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, record.Record(normalizeMap(doc)))
	}
	return out, nil
}

func (s *Source) filterOrAll() bson.M {
	if s.filter == nil {
		return bson.M{}
	}
	return s.filter
}

func (s *Source) findOptions() *options.FindOptions {
	opts := options.Find()
	if len(s.sort) > 0 {
		opts.SetSort(s.sort)
	}
	if s.limit > 0 {
		opts.SetLimit(s.limit)
	}
	if len(s.fields) > 0 {
		projection := bson.M{}
		for _, f := range s.fields {
			projection[f] = 1
		}
		opts.SetProjection(projection)
	}
	return opts
}

func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalize(v)
	}
	return out
}

func normalize(value any) any {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC()
	case bson.M:
		return normalizeMap(v)
	case map[string]any:
		return normalizeMap(v)
	case bson.D:
		out := make(map[string]any, len(v))
		for _, e := range v {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(v))
		for i := range v {
			out[i] = normalize(v[i])
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = normalize(v[i])
		}
		return out
	default:
		return v
	}
}
