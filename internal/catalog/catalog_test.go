package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/swiftkart/storefront-api/internal/cache"
)

type fakeRepo struct {
	cats  []Category
	err   error
	calls int
}

func (r *fakeRepo) List(_ context.Context) ([]Category, error) {
	r.calls++
	return r.cats, r.err
}

func newCachedRepo(t *testing.T, next Repo) *CachedRepo {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &CachedRepo{Next: next, Cache: cache.NewJSON(client, time.Minute)}
}

func TestCachedRepoServesFromCache(t *testing.T) {
	next := &fakeRepo{cats: []Category{{ID: "snacks", Name: "Snacks", Rank: 1}}}
	repo := newCachedRepo(t, next)
	ctx := context.Background()

	first, err := repo.List(ctx)
	require.NoError(t, err)
	second, err := repo.List(ctx)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, next.calls, "second read must come from cache")
}

func TestCachedRepoInvalidate(t *testing.T) {
	next := &fakeRepo{cats: []Category{{ID: "snacks", Name: "Snacks", Rank: 1}}}
	repo := newCachedRepo(t, next)
	ctx := context.Background()

	_, err := repo.List(ctx)
	require.NoError(t, err)
	repo.Invalidate(ctx)

	_, err = repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestHandlerList(t *testing.T) {
	h := &Handler{
		Repo:   &fakeRepo{cats: []Category{{ID: "dairy-bread", Name: "Dairy & Bread", Rank: 2}}},
		Logger: zerolog.Nop(),
	}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "dairy-bread")
}

func TestHandlerListEmpty(t *testing.T) {
	h := &Handler{Repo: &fakeRepo{}, Logger: zerolog.Nop()}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"data":[]}`, rr.Body.String())
}

func TestHandlerListError(t *testing.T) {
	h := &Handler{Repo: &fakeRepo{err: errors.New("primary unreachable")}, Logger: zerolog.Nop()}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
