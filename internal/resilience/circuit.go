package resilience

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrOpenCircuit is returned when the circuit breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// Breaker implements a simple failure-ratio circuit breaker. It opens when
// the rolling failure ratio exceeds the threshold once the minimum number of
// requests is observed, and half-opens after the cool-off to probe recovery.
type Breaker struct {
	mu           sync.Mutex
	failures     int
	successes    int
	minRequests  int
	failureRatio float64
	openedAt     time.Time
	openFor      time.Duration
	open         bool
}

// NewBreaker constructs a breaker with sane defaults for zero values.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 || failureRatio > 1 {
		failureRatio = 0.5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{minRequests: minRequests, failureRatio: failureRatio, openFor: openFor}
}

// Allow reports whether a request is permitted in the current state.
func (b *Breaker) Allow() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if time.Since(b.openedAt) >= b.openFor {
		// half-open: permit one probe, reset the window
		b.open = false
		b.failures = 0
		b.successes = 0
		return true
	}
	return false
}

// Report records the outcome of a permitted request.
func (b *Breaker) Report(success bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.successes + b.failures
	if total >= b.minRequests && float64(b.failures)/float64(total) >= b.failureRatio {
		b.open = true
		b.openedAt = time.Now()
		b.failures = 0
		b.successes = 0
	}
}

// Backoff computes an exponential backoff with optional jitter for a retry
// attempt (1-based).
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	d := base << (attempt - 1)
	if jitter > 0 {
		spread := float64(d) * jitter
		d += time.Duration(rand.Float64()*2*spread - spread)
		if d < 0 {
			d = base
		}
	}
	return d
}
