package pincode

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/swiftkart/storefront-api/internal/cache"
)

type countingListStore struct {
	*fakeListStore
	listCalls int
}

func (s *countingListStore) List(ctx context.Context) ([]string, error) {
	s.listCalls++
	return s.fakeListStore.List(ctx)
}

func newCachedStore(t *testing.T) (*CachedStore, *countingListStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	next := &countingListStore{fakeListStore: newFakeListStore("560001", "110001")}
	return &CachedStore{Next: next, Cache: cache.NewJSON(client, time.Minute)}, next
}

func TestCachedStoreListHitsBackingStoreOnce(t *testing.T) {
	s, next := newCachedStore(t)
	ctx := context.Background()

	first, err := s.List(ctx)
	require.NoError(t, err)
	second, err := s.List(ctx)
	require.NoError(t, err)

	require.ElementsMatch(t, first, second)
	require.Equal(t, 1, next.listCalls)
}

func TestCachedStoreMutationsInvalidate(t *testing.T) {
	s, next := newCachedStore(t)
	ctx := context.Background()

	_, err := s.List(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Add(ctx, "400001"))
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Contains(t, list, "400001")
	require.Equal(t, 2, next.listCalls)

	require.NoError(t, s.Remove(ctx, "110001"))
	list, err = s.List(ctx)
	require.NoError(t, err)
	require.NotContains(t, list, "110001")
	require.Equal(t, 3, next.listCalls)
}
