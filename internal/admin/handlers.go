// Package admin implements the operator surface: password login backed by
// argon2id, Redis-held sessions, and the gate in front of /admin routes.
package admin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog"

	"github.com/swiftkart/storefront-api/internal/common"
)

// Handler exposes the admin auth endpoints.
type Handler struct {
	Sessions     *Sessions
	PasswordHash string
	Logger       zerolog.Logger
}

type loginPayload struct {
	Password string `json:"password"`
	Redirect string `json:"redirect"`
}

// Login handles POST /admin/login. On success it issues a session cookie and
// returns the sanitized redirect target.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var p loginPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if p.Password == "" || h.PasswordHash == "" {
		common.JSONError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", "invalid credentials", nil)
		return
	}

	match, err := argon2id.ComparePasswordAndHash(p.Password, h.PasswordHash)
	if err != nil || !match {
		h.Logger.Warn().Str("remote", common.ClientIP(r)).Msg("admin login rejected")
		common.JSONError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", "invalid credentials", nil)
		return
	}

	if _, err := h.Sessions.Create(r.Context(), w); err != nil {
		h.Logger.Error().Err(err).Msg("create admin session")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not create session", nil)
		return
	}

	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]string{"redirect": sanitizeRedirect(p.Redirect)},
	})
}

// Logout handles POST /admin/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Destroy(r.Context(), w, r)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"redirect": LoginPath}})
}

// sanitizeRedirect restricts post-login targets to local admin paths so the
// redirect parameter cannot bounce the admin to a foreign origin.
func sanitizeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/admin"
	}
	return target
}
