package pincode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/swiftkart/storefront-api/internal/common"
)

// ListStore is the persistence surface the admin API needs.
type ListStore interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, value string) error
	Remove(ctx context.Context, value string) error
}

// AdminHandler manages the serviceable pincode list. Every mutation returns
// the refreshed full list.
type AdminHandler struct {
	Store    ListStore
	Validate *validator.Validate
}

type addPayload struct {
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
}

// List returns the full serviceable pincode list.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pincode store not configured", nil)
		return
	}
	h.respondList(w, r)
}

// Add validates and appends a pincode, then returns the refreshed list.
func (h *AdminHandler) Add(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pincode store not configured", nil)
		return
	}
	var payload addPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.Pincode = strings.TrimSpace(payload.Pincode)
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "pincode must be exactly 6 digits", nil)
		return
	}
	if err := h.Store.Add(r.Context(), payload.Pincode); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to add pincode", nil)
		return
	}
	h.respondList(w, r)
}

// Remove validates and deletes a pincode, then returns the refreshed list.
func (h *AdminHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pincode store not configured", nil)
		return
	}
	value := strings.TrimSpace(r.URL.Query().Get("pincode"))
	if !IsSixDigits(value) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "pincode must be exactly 6 digits", nil)
		return
	}
	if err := h.Store.Remove(r.Context(), value); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to remove pincode", nil)
		return
	}
	h.respondList(w, r)
}

func (h *AdminHandler) validate(payload addPayload) error {
	if h.Validate != nil {
		return h.Validate.Struct(payload)
	}
	if !IsSixDigits(payload.Pincode) {
		return errors.New("pincode must be exactly 6 digits")
	}
	return nil
}

func (h *AdminHandler) respondList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to list pincodes", nil)
		return
	}
	if list == nil {
		list = []string{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"pincodes": list})
}
