package cart

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/swiftkart/storefront-api/internal/common"
	"github.com/swiftkart/storefront-api/internal/pricing"
)

// ErrNotFound indicates the requested line could not be located.
var ErrNotFound = errors.New("cart line not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Service encapsulates cart aggregation: the line list keyed by product id
// and the totals derived from it.
type Service struct {
	Store       Store
	DeliveryFee pricing.Money
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get loads the session cart and its freshly computed totals.
func (s *Service) Get(ctx context.Context, sessionID string) (Cart, pricing.Summary, error) {
	if s == nil || s.Store == nil {
		return Cart{}, pricing.Summary{}, errors.New("cart service not configured")
	}
	cart, _, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return Cart{}, pricing.Summary{}, err
	}
	return cart, s.totals(cart), nil
}

// AddItem inserts a new line with quantity one. Adding a product that is
// already in the cart leaves its quantity unchanged; increments go through
// SetQuantity.
func (s *Service) AddItem(ctx context.Context, sessionID string, line Line) (Cart, pricing.Summary, error) {
	if s == nil || s.Store == nil {
		return Cart{}, pricing.Summary{}, errors.New("cart service not configured")
	}
	line.ProductID = strings.TrimSpace(line.ProductID)
	if line.ProductID == "" {
		return Cart{}, pricing.Summary{}, common.NewAppError("BAD_REQUEST", "productId is required", http.StatusBadRequest, ErrInvalidInput)
	}
	if line.UnitPrice < 0 {
		return Cart{}, pricing.Summary{}, common.NewAppError("BAD_REQUEST", "unitPrice must not be negative", http.StatusBadRequest, ErrInvalidInput)
	}
	cart, _, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return Cart{}, pricing.Summary{}, err
	}
	for _, existing := range cart.Lines {
		if existing.ProductID == line.ProductID {
			return cart, s.totals(cart), nil
		}
	}
	line.Qty = 1
	cart.Lines = append(cart.Lines, line)
	cart.SessionID = sessionID
	cart.UpdatedAt = s.now()
	if err := s.Store.Put(ctx, cart); err != nil {
		return Cart{}, pricing.Summary{}, err
	}
	return cart, s.totals(cart), nil
}

// SetQuantity updates a line's quantity. Negative quantities are rejected
// without touching state, zero removes the line entirely, and any other
// value replaces the stored quantity.
func (s *Service) SetQuantity(ctx context.Context, sessionID, productID string, qty int) (Cart, pricing.Summary, error) {
	if s == nil || s.Store == nil {
		return Cart{}, pricing.Summary{}, errors.New("cart service not configured")
	}
	if qty < 0 {
		return Cart{}, pricing.Summary{}, common.NewAppError("BAD_REQUEST", "qty must not be negative", http.StatusBadRequest, ErrInvalidInput)
	}
	cart, _, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return Cart{}, pricing.Summary{}, err
	}
	idx := -1
	for i, line := range cart.Lines {
		if line.ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Cart{}, pricing.Summary{}, common.NewAppError("NOT_FOUND", "cart line not found", http.StatusNotFound, ErrNotFound)
	}
	if qty == 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	} else {
		cart.Lines[idx].Qty = qty
	}
	cart.SessionID = sessionID
	cart.UpdatedAt = s.now()
	if len(cart.Lines) == 0 {
		if err := s.Store.Delete(ctx, sessionID); err != nil {
			return Cart{}, pricing.Summary{}, err
		}
		cart.Lines = nil
		return cart, s.totals(cart), nil
	}
	if err := s.Store.Put(ctx, cart); err != nil {
		return Cart{}, pricing.Summary{}, err
	}
	return cart, s.totals(cart), nil
}

// Clear empties the session cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	return s.Store.Delete(ctx, sessionID)
}

func (s *Service) totals(cart Cart) pricing.Summary {
	items := make([]pricing.Item, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		items = append(items, pricing.Item{Qty: line.Qty, UnitPrice: line.UnitPrice})
	}
	return pricing.Compute(items, s.DeliveryFee)
}
