package pincode

import (
	"encoding/json"
	"net/http"

	"github.com/swiftkart/storefront-api/internal/common"
)

// Handler exposes the session pincode selection over HTTP.
type Handler struct {
	Resolver *Resolver
}

// Get returns the resolved selection for the current session.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Resolver == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pincode resolver not configured", nil)
		return
	}
	sessionID, _ := common.SessionID(r.Context())
	selection := h.Resolver.Resolve(r.Context(), r, w, sessionID)
	common.JSON(w, http.StatusOK, map[string]any{"data": selection})
}

// Update replaces the session's selection. Malformed values are accepted
// here; the serviceability gate rejects them at use time.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Resolver == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pincode resolver not configured", nil)
		return
	}
	var payload struct {
		Pincode string `json:"pincode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	sessionID, _ := common.SessionID(r.Context())
	selection, err := h.Resolver.Update(r.Context(), r, w, sessionID, payload.Pincode)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to persist pincode", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": selection})
}
