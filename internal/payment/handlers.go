package payment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/swiftkart/storefront-api/internal/common"
)

// Handler exposes the payment endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type initiatePayload struct {
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	CustomerID string `json:"customerId" validate:"required"`
	Mobile     string `json:"mobile" validate:"omitempty,len=10,numeric"`
	Email      string `json:"email" validate:"omitempty,email"`
}

// Initiate handles POST /payments/initiate.
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	var p initiatePayload
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

	result, err := h.Svc.Initiate(r.Context(), p.Amount, p.CustomerID, p.Mobile, p.Email)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Status handles GET /payments/{orderID}/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "order id is required", nil)
		return
	}

	result, err := h.Svc.CheckStatus(r.Context(), orderID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Callback handles the provider's server-to-server POST. The provider sends
// form-encoded fields and only cares about the response status code.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed callback body", nil)
		return
	}
	fields := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		fields[key] = r.PostForm.Get(key)
	}

	result, err := h.Svc.ApplyCallback(r.Context(), fields)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
