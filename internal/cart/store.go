package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/swiftkart/storefront-api/internal/pricing"
)

// Line is one product entry in a cart, keyed by product id. A line with zero
// quantity is removed, never persisted.
type Line struct {
	ProductID string        `json:"productId"`
	Name      string        `json:"name"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Qty       int           `json:"qty"`
	ImageRef  string        `json:"imageRef,omitempty"`
}

// Cart is the authoritative line list for one browsing session.
type Cart struct {
	SessionID string    `json:"sessionId"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store abstracts cart persistence per session. Multiple views of a session
// reconcile opportunistically through it; last write wins.
type Store interface {
	Get(ctx context.Context, sessionID string) (Cart, bool, error)
	Put(ctx context.Context, cart Cart) error
	Delete(ctx context.Context, sessionID string) error
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

// RedisStore keeps each cart as a JSON document with a sliding TTL.
type RedisStore struct {
	R   *redis.Client
	TTL time.Duration
}

func (s RedisStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

// Get loads a cart. A missing key is not an error.
func (s RedisStore) Get(ctx context.Context, sessionID string) (Cart, bool, error) {
	if s.R == nil {
		return Cart{}, false, errors.New("cart: redis client not configured")
	}
	data, err := s.R.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{SessionID: sessionID}, false, nil
		}
		return Cart{}, false, err
	}
	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return Cart{}, false, err
	}
	return cart, true, nil
}

// Put stores the cart and refreshes its TTL.
func (s RedisStore) Put(ctx context.Context, cart Cart) error {
	if s.R == nil {
		return errors.New("cart: redis client not configured")
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, cartKey(cart.SessionID), data, s.ttl()).Err()
}

// Delete removes the cart.
func (s RedisStore) Delete(ctx context.Context, sessionID string) error {
	if s.R == nil {
		return errors.New("cart: redis client not configured")
	}
	return s.R.Del(ctx, cartKey(sessionID)).Err()
}

// MemoryStore is a process-local Store used by tests and as a degraded-mode
// fallback when Redis is unavailable.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]Cart
}

// Get loads a cart from process memory.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (Cart, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[sessionID]
	if !ok {
		return Cart{SessionID: sessionID}, false, nil
	}
	return cart, true, nil
}

// Put stores the cart in process memory.
func (s *MemoryStore) Put(_ context.Context, cart Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts == nil {
		s.carts = make(map[string]Cart)
	}
	s.carts[cart.SessionID] = cart
	return nil
}

// Delete removes the cart from process memory.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
