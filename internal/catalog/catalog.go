// Package catalog serves the browse surface: product categories with their
// display metadata, cached in Redis in front of Mongo.
package catalog

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/swiftkart/storefront-api/internal/cache"
	"github.com/swiftkart/storefront-api/internal/common"
)

// Category is a top-level product grouping shown on the storefront.
type Category struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	ImageRef string `bson:"image_ref" json:"imageRef,omitempty"`
	Rank     int    `bson:"rank" json:"rank"`
}

// Repo lists categories.
type Repo interface {
	List(ctx context.Context) ([]Category, error)
}

// MongoRepo reads categories from the "categories" collection ordered by rank.
type MongoRepo struct {
	C *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{C: db.Collection("categories")}
}

func (r *MongoRepo) List(ctx context.Context) ([]Category, error) {
	opts := options.Find().SetSort(bson.M{"rank": 1})
	cur, err := r.C.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var cats []Category
	if err := cur.All(ctx, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

const cacheKeyAll = "categories:all"

// CachedRepo serves from the Redis JSON cache, falling back to the inner repo
// and repopulating on a miss. Cache errors degrade to the inner repo.
type CachedRepo struct {
	Next  Repo
	Cache *cache.JSON
}

func (r *CachedRepo) List(ctx context.Context) ([]Category, error) {
	var cats []Category
	if ok, err := r.Cache.Get(ctx, cacheKeyAll, &cats); err == nil && ok {
		return cats, nil
	}
	cats, err := r.Next.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.Cache.Set(ctx, cacheKeyAll, cats)
	return cats, nil
}

// Invalidate drops the cached category list.
func (r *CachedRepo) Invalidate(ctx context.Context) {
	_ = r.Cache.Invalidate(ctx, cacheKeyAll)
}

// Handler exposes GET /categories.
type Handler struct {
	Repo   Repo
	Logger zerolog.Logger
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Repo.List(r.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("list categories")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load categories", nil)
		return
	}
	if cats == nil {
		cats = []Category{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cats})
}
