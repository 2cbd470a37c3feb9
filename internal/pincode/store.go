package pincode

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/swiftkart/storefront-api/internal/cache"
)

// serviceDoc is one serviceable pincode. The pincode itself is the document
// id, which gives the list set semantics: adding twice collapses to one.
type serviceDoc struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store persists the platform-wide serviceable pincode list.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewStore constructs a store over the service_pincodes collection.
func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection("service_pincodes"), now: time.Now}
}

// List returns every serviceable pincode in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s == nil || s.coll == nil {
		return nil, errors.New("pincode: store not configured")
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []serviceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.ID)
	}
	return out, nil
}

// Add inserts the pincode. Re-adding an existing value is a no-op.
func (s *Store) Add(ctx context.Context, value string) error {
	if s == nil || s.coll == nil {
		return errors.New("pincode: store not configured")
	}
	filter := bson.M{"_id": value}
	update := bson.M{"$setOnInsert": bson.M{"created_at": s.now().UTC()}}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Remove deletes the pincode. Removing an absent value is a no-op.
func (s *Store) Remove(ctx context.Context, value string) error {
	if s == nil || s.coll == nil {
		return errors.New("pincode: store not configured")
	}
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": value})
	return err
}

const listCacheKey = "pincodes:serviceable"

// CachedStore keeps the full list in the Redis JSON cache and invalidates it
// on every mutation. The list is small and read on every admin page load.
type CachedStore struct {
	Next  ListStore
	Cache *cache.JSON
}

func (s *CachedStore) List(ctx context.Context) ([]string, error) {
	var cached []string
	if ok, err := s.Cache.Get(ctx, listCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	list, err := s.Next.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.Set(ctx, listCacheKey, list)
	return list, nil
}

func (s *CachedStore) Add(ctx context.Context, value string) error {
	if err := s.Next.Add(ctx, value); err != nil {
		return err
	}
	_ = s.Cache.Invalidate(ctx, listCacheKey)
	return nil
}

func (s *CachedStore) Remove(ctx context.Context, value string) error {
	if err := s.Next.Remove(ctx, value); err != nil {
		return err
	}
	_ = s.Cache.Invalidate(ctx, listCacheKey)
	return nil
}
