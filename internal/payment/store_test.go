package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryOrderStore(t *testing.T) {
	store := NewMemoryOrderStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "ORD1")
	require.ErrorIs(t, err, ErrOrderNotFound)

	require.NoError(t, store.Put(ctx, Order{OrderID: "ORD1", Amount: 100, Status: StatusInitiated}))
	order, err := store.Get(ctx, "ORD1")
	require.NoError(t, err)
	require.Equal(t, StatusInitiated, order.Status)

	at := time.Now()
	require.NoError(t, store.SetStatus(ctx, "ORD1", StatusSuccess, at))
	order, err = store.Get(ctx, "ORD1")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, order.Status)

	require.ErrorIs(t, store.SetStatus(ctx, "ORD-ghost", StatusFailed, at), ErrOrderNotFound)
}

func TestCachedOrderStoreWritesThrough(t *testing.T) {
	durable := NewMemoryOrderStore()
	store := NewCachedOrderStore(durable)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, Order{OrderID: "ORD1", Status: StatusInitiated}))

	// Both layers must hold the order.
	fromDurable, err := durable.Get(ctx, "ORD1")
	require.NoError(t, err)
	require.Equal(t, StatusInitiated, fromDurable.Status)
	fromHot, err := store.Hot.Get(ctx, "ORD1")
	require.NoError(t, err)
	require.Equal(t, StatusInitiated, fromHot.Status)
}

func TestCachedOrderStoreBackfillsOnMiss(t *testing.T) {
	durable := NewMemoryOrderStore()
	store := NewCachedOrderStore(durable)
	ctx := context.Background()

	// Order exists only in the durable layer, e.g. written by another replica.
	require.NoError(t, durable.Put(ctx, Order{OrderID: "ORD1", Status: StatusPending}))

	order, err := store.Get(ctx, "ORD1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)

	backfilled, err := store.Hot.Get(ctx, "ORD1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, backfilled.Status)
}

func TestCachedOrderStoreSetStatusSurvivesColdHotLayer(t *testing.T) {
	durable := NewMemoryOrderStore()
	store := NewCachedOrderStore(durable)
	ctx := context.Background()

	require.NoError(t, durable.Put(ctx, Order{OrderID: "ORD1", Status: StatusInitiated}))
	require.NoError(t, store.SetStatus(ctx, "ORD1", StatusSuccess, time.Now()))

	order, err := store.Get(ctx, "ORD1")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, order.Status)
}
