package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Status is the local lifecycle of an order.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusPending   Status = "pending"
)

// Order is the persisted record of a payment attempt.
type Order struct {
	OrderID    string    `bson:"_id" json:"orderId"`
	Amount     int64     `bson:"amount" json:"amount"`
	CustomerID string    `bson:"customer_id" json:"customerId"`
	Status     Status    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

var ErrOrderNotFound = errors.New("order not found")

// OrderStore persists payment orders.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (Order, error)
	Put(ctx context.Context, order Order) error
	SetStatus(ctx context.Context, orderID string, status Status, at time.Time) error
	ListByStatus(ctx context.Context, status Status, olderThan time.Time, limit int64) ([]Order, error)
}

// MongoOrderStore keeps orders in the "orders" collection, keyed by order ID.
type MongoOrderStore struct {
	C *mongo.Collection
}

func NewMongoOrderStore(db *mongo.Database) *MongoOrderStore {
	return &MongoOrderStore{C: db.Collection("orders")}
}

func (s *MongoOrderStore) Get(ctx context.Context, orderID string) (Order, error) {
	var order Order
	err := s.C.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func (s *MongoOrderStore) Put(ctx context.Context, order Order) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.C.ReplaceOne(ctx, bson.M{"_id": order.OrderID}, order, opts)
	return err
}

func (s *MongoOrderStore) SetStatus(ctx context.Context, orderID string, status Status, at time.Time) error {
	res, err := s.C.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"status": status, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *MongoOrderStore) ListByStatus(ctx context.Context, status Status, olderThan time.Time, limit int64) ([]Order, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.M{"created_at": 1})
	cur, err := s.C.Find(ctx, bson.M{
		"status":     status,
		"created_at": bson.M{"$lt": olderThan},
	}, opts)
	if err != nil {
		return nil, err
	}
	var orders []Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// MemoryOrderStore is an in-process store used in tests and as the hot layer
// of CachedOrderStore.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]Order)}
}

func (s *MemoryOrderStore) Get(_ context.Context, orderID string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (s *MemoryOrderStore) Put(_ context.Context, order Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.OrderID] = order
	return nil
}

func (s *MemoryOrderStore) SetStatus(_ context.Context, orderID string, status Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = at
	s.orders[orderID] = order
	return nil
}

func (s *MemoryOrderStore) ListByStatus(_ context.Context, status Status, olderThan time.Time, limit int64) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var orders []Order
	for _, order := range s.orders {
		if order.Status == status && order.CreatedAt.Before(olderThan) {
			orders = append(orders, order)
			if int64(len(orders)) == limit {
				break
			}
		}
	}
	return orders, nil
}

// CachedOrderStore layers an in-memory copy over a durable store. Reads hit
// memory first; writes go through to both. A cache miss falls back to the
// durable store and repopulates.
type CachedOrderStore struct {
	Hot  *MemoryOrderStore
	Next OrderStore
}

func NewCachedOrderStore(next OrderStore) *CachedOrderStore {
	return &CachedOrderStore{Hot: NewMemoryOrderStore(), Next: next}
}

func (s *CachedOrderStore) Get(ctx context.Context, orderID string) (Order, error) {
	if order, err := s.Hot.Get(ctx, orderID); err == nil {
		return order, nil
	}
	order, err := s.Next.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	_ = s.Hot.Put(ctx, order)
	return order, nil
}

func (s *CachedOrderStore) Put(ctx context.Context, order Order) error {
	if err := s.Next.Put(ctx, order); err != nil {
		return err
	}
	return s.Hot.Put(ctx, order)
}

func (s *CachedOrderStore) SetStatus(ctx context.Context, orderID string, status Status, at time.Time) error {
	if err := s.Next.SetStatus(ctx, orderID, status, at); err != nil {
		return err
	}
	// Hot copy may not have the order; that is fine, the next Get backfills.
	_ = s.Hot.SetStatus(ctx, orderID, status, at)
	return nil
}

func (s *CachedOrderStore) ListByStatus(ctx context.Context, status Status, olderThan time.Time, limit int64) ([]Order, error) {
	return s.Next.ListByStatus(ctx, status, olderThan, limit)
}
