package cart

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/swiftkart/storefront-api/internal/common"
	"github.com/swiftkart/storefront-api/internal/pricing"
)

// Handler wires the cart aggregator to HTTP.
type Handler struct {
	Svc      *Service
	Currency string
}

// Get returns the session cart and its totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	sessionID, ok := common.SessionID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "missing session", nil)
		return
	}
	cart, summary, err := h.Svc.Get(r.Context(), sessionID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	h.respond(w, cart, summary)
}

// AddItem inserts a new line with quantity one.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	sessionID, ok := common.SessionID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "missing session", nil)
		return
	}
	var payload struct {
		ProductID string        `json:"productId"`
		Name      string        `json:"name"`
		UnitPrice pricing.Money `json:"unitPrice"`
		ImageRef  string        `json:"imageRef"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.ProductID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	cart, summary, err := h.Svc.AddItem(r.Context(), sessionID, Line{
		ProductID: payload.ProductID,
		Name:      payload.Name,
		UnitPrice: payload.UnitPrice,
		ImageRef:  payload.ImageRef,
	})
	if err != nil {
		common.RenderError(w, err)
		return
	}
	h.respond(w, cart, summary)
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	sessionID, ok := common.SessionID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "missing session", nil)
		return
	}
	productID := chi.URLParam(r, "productId")
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	cart, summary, err := h.Svc.SetQuantity(r.Context(), sessionID, productID, payload.Qty)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	h.respond(w, cart, summary)
}

func (h *Handler) respond(w http.ResponseWriter, cart Cart, summary pricing.Summary) {
	lines := cart.Lines
	if lines == nil {
		lines = []Line{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"lines":    lines,
			"pricing":  summary,
			"currency": h.Currency,
		},
	})
}
