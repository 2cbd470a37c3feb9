package lock_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/swiftkart/storefront-api/internal/lock"
)

func newTestLocker(t *testing.T) lock.Locker {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}
}

func TestWithLockSerialises(t *testing.T) {
	locker := newTestLocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var order []string
	firstHeld := make(chan struct{})
	releaseFirst := make(chan struct{})
	secondDone := make(chan error, 1)

	go func() {
		_ = locker.WithLock(ctx, "reconcile", time.Second, func(context.Context) error {
			order = append(order, "first")
			close(firstHeld)
			<-releaseFirst
			return nil
		})
	}()

	<-firstHeld
	go func() {
		secondDone <- locker.WithLock(ctx, "reconcile", time.Second, func(context.Context) error {
			order = append(order, "second")
			return nil
		})
	}()

	// Give the second acquirer time to start spinning before releasing.
	time.Sleep(20 * time.Millisecond)
	close(releaseFirst)

	require.NoError(t, <-secondDone)
	require.Equal(t, []string{"first", "second"}, order)
}

func TestTryLockNonBlocking(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = locker.TryLock(ctx, "reconcile", time.Second, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	acquired, err := locker.TryLock(ctx, "reconcile", time.Second, func(context.Context) error {
		t.Fatal("callback must not run when the lock is held elsewhere")
		return nil
	})
	require.NoError(t, err)
	require.False(t, acquired)
	close(release)
}

func TestWithLockReleasesAfterError(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()

	wantErr := context.DeadlineExceeded
	err := locker.WithLock(ctx, "reconcile", time.Second, func(context.Context) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// The lock must be free again immediately.
	acquired, err := locker.TryLock(ctx, "reconcile", time.Second, func(context.Context) error { return nil })
	require.NoError(t, err)
	require.True(t, acquired)
}
