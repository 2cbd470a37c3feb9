// Package reconcile runs a periodic sweep over orders still marked initiated
// or pending and asks the payment provider for their authoritative state.
// Callbacks can be lost; this worker is the backstop that settles them.
package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftkart/storefront-api/internal/lock"
	"github.com/swiftkart/storefront-api/internal/obs"
	"github.com/swiftkart/storefront-api/internal/payment"
)

const lockKey = "lock:payment-reconcile"

// StatusChecker resolves an order's current state with the provider.
type StatusChecker interface {
	CheckStatus(ctx context.Context, orderID string) (payment.StatusResult, error)
}

// Worker sweeps unsettled orders on a fixed interval. Only one replica runs a
// sweep at a time; the distributed lock makes the others skip their tick.
type Worker struct {
	Orders   payment.OrderStore
	Payments StatusChecker
	Locker   lock.Locker
	Interval time.Duration
	LockTTL  time.Duration
	MinAge   time.Duration
	Batch    int64
	Logger   zerolog.Logger
}

func (w *Worker) interval() time.Duration {
	if w.Interval > 0 {
		return w.Interval
	}
	return 5 * time.Minute
}

func (w *Worker) minAge() time.Duration {
	if w.MinAge > 0 {
		return w.MinAge
	}
	// Give the happy path (client poll or callback) time to settle the order
	// before the worker spends gateway calls on it.
	return 10 * time.Minute
}

func (w *Worker) batch() int64 {
	if w.Batch > 0 {
		return w.Batch
	}
	return 100
}

// Run blocks until ctx is cancelled, sweeping every interval.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	acquired, err := w.Locker.TryLock(ctx, lockKey, w.LockTTL, func(ctx context.Context) error {
		return w.Sweep(ctx)
	})
	if err != nil {
		w.countRun("error")
		w.Logger.Error().Err(err).Msg("reconcile sweep failed")
		return
	}
	if !acquired {
		w.countRun("skipped")
		return
	}
	w.countRun("ok")
}

// Sweep re-checks every unsettled order old enough to be suspicious.
func (w *Worker) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-w.minAge())
	for _, status := range []payment.Status{payment.StatusInitiated, payment.StatusPending} {
		orders, err := w.Orders.ListByStatus(ctx, status, cutoff, w.batch())
		if err != nil {
			return err
		}
		for _, order := range orders {
			result, err := w.Payments.CheckStatus(ctx, order.OrderID)
			if err != nil {
				w.Logger.Warn().Err(err).Str("order_id", order.OrderID).Msg("reconcile status check failed")
				continue
			}
			if result.Status != order.Status {
				w.Logger.Info().
					Str("order_id", order.OrderID).
					Str("from", string(order.Status)).
					Str("to", string(result.Status)).
					Msg("order reconciled")
			}
		}
	}
	return nil
}

func (w *Worker) countRun(result string) {
	if obs.ReconcileRunsTotal != nil {
		obs.ReconcileRunsTotal.WithLabelValues(result).Inc()
	}
}
