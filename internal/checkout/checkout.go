// Package checkout composes the storefront's order flow: resolve the
// session's pincode, confirm serviceability, total the cart, then build a
// signed payment request for the computed amount.
package checkout

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/swiftkart/storefront-api/internal/cart"
	"github.com/swiftkart/storefront-api/internal/common"
	"github.com/swiftkart/storefront-api/internal/payment"
	"github.com/swiftkart/storefront-api/internal/pincode"
	"github.com/swiftkart/storefront-api/internal/pricing"
	"github.com/swiftkart/storefront-api/internal/vendor"
)

// The checkout gate failures are AppError sentinels so handlers can render
// them without their own mapping table.
var (
	ErrNoPincode      = common.NewAppError("NO_PINCODE", "select a delivery pincode before checkout", http.StatusUnprocessableEntity, nil)
	ErrNotServiceable = common.NewAppError("NOT_SERVICEABLE", "selected pincode is not serviceable", http.StatusUnprocessableEntity, nil)
	ErrEmptyCart      = common.NewAppError("EMPTY_CART", "cart has no items", http.StatusUnprocessableEntity, nil)
)

// Gate answers whether a pincode can be served.
type Gate interface {
	IsServiceable(ctx context.Context, pin string) vendor.Result
}

// Initiator starts a payment for a computed amount.
type Initiator interface {
	Initiate(ctx context.Context, amount int64, customerID, mobile, email string) (payment.InitiateResult, error)
}

// Service runs the checkout sequence.
type Service struct {
	Resolver *pincode.Resolver
	Gate     Gate
	Cart     *cart.Service
	Payments Initiator
	Logger   zerolog.Logger
}

// Result is the successful checkout response.
type Result struct {
	Pincode  string                 `json:"pincode"`
	Pricing  pricing.Summary        `json:"pricing"`
	Payment  payment.InitiateResult `json:"payment"`
	Delivery string                 `json:"deliveryMessage,omitempty"`
}

// Run executes the full flow. The amount sent to the gateway is always the
// server-side cart total; client-supplied amounts are never trusted.
func (s *Service) Run(ctx context.Context, r *http.Request, w http.ResponseWriter, sessionID, customerID, mobile, email string) (Result, error) {
	sel := s.Resolver.Resolve(ctx, r, w, sessionID)
	if sel.Source == pincode.SourceNone || !pincode.IsSixDigits(sel.Value) {
		return Result{}, ErrNoPincode
	}

	res := s.Gate.IsServiceable(ctx, sel.Value)
	// Unknown means the vendor lookup failed; checkout is the one place we do
	// not degrade gracefully, since money is about to move.
	if res.Unknown || !res.Serviceable {
		return Result{}, ErrNotServiceable
	}

	c, summary, err := s.Cart.Get(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if len(c.Lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	pay, err := s.Payments.Initiate(ctx, summary.Total, customerID, mobile, email)
	if err != nil {
		return Result{}, err
	}

	// The lines now belong to the order; the next visit starts with an
	// empty cart. A failed clear is not worth failing the checkout over.
	if err := s.Cart.Clear(ctx, sessionID); err != nil {
		s.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("clear cart after checkout")
	}

	s.Logger.Info().
		Str("session_id", sessionID).
		Str("pincode", sel.Value).
		Str("order_id", pay.OrderID).
		Int64("total", summary.Total).
		Msg("checkout completed")

	return Result{
		Pincode:  sel.Value,
		Pricing:  summary,
		Payment:  pay,
		Delivery: res.DeliveryMessage,
	}, nil
}

// Handler exposes POST /checkout.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type checkoutPayload struct {
	CustomerID string `json:"customerId" validate:"required"`
	Mobile     string `json:"mobile" validate:"omitempty,len=10,numeric"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := common.SessionID(r.Context())
	if !ok || sessionID == "" {
		common.JSONError(w, http.StatusBadRequest, "NO_SESSION", "session cookie missing", nil)
		return
	}

	var p checkoutPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(p); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
			return
		}
	}

	result, err := h.Svc.Run(r.Context(), r, w, sessionID, p.CustomerID, p.Mobile, p.Email)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
