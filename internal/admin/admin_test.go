package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) *Sessions {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &Sessions{R: client, TTL: time.Hour}
}

func TestLoginIssuesSession(t *testing.T) {
	sessions := newTestSessions(t)
	hash, err := argon2id.CreateHash("swordfish", argon2id.DefaultParams)
	require.NoError(t, err)

	h := &Handler{Sessions: sessions, PasswordHash: hash, Logger: zerolog.Nop()}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"swordfish","redirect":"/admin/pincodes"}`))
	h.Login(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "/admin/pincodes")

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, SessionCookieName, cookies[0].Name)

	// The issued cookie must satisfy the gate.
	check := httptest.NewRequest(http.MethodGet, "/admin/pincodes", nil)
	check.AddCookie(cookies[0])
	require.True(t, sessions.Valid(check.Context(), check))
}

func TestLoginWrongPassword(t *testing.T) {
	sessions := newTestSessions(t)
	hash, err := argon2id.CreateHash("swordfish", argon2id.DefaultParams)
	require.NoError(t, err)

	h := &Handler{Sessions: sessions, PasswordHash: hash, Logger: zerolog.Nop()}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"guess"}`))
	h.Login(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Empty(t, rr.Result().Cookies())
}

func TestRequireSessionRedirectsWithTarget(t *testing.T) {
	sessions := newTestSessions(t)
	guarded := sessions.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	guarded.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/pincodes?page=2", nil))
	require.Equal(t, http.StatusFound, rr.Code)
	location := rr.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, LoginPath+"?redirect="), "unexpected location %q", location)
	require.Contains(t, location, "%2Fadmin%2Fpincodes")
}

func TestRequireSessionAllowsLoginPath(t *testing.T) {
	sessions := newTestSessions(t)
	guarded := sessions.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	guarded.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := newTestSessions(t)

	rr := httptest.NewRecorder()
	_, err := sessions.Create(context.Background(), rr)
	require.NoError(t, err)
	cookie := rr.Result().Cookies()[0]

	h := &Handler{Sessions: sessions, Logger: zerolog.Nop()}
	out := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(cookie)
	h.Logout(out, req)
	require.Equal(t, http.StatusOK, out.Code)

	check := httptest.NewRequest(http.MethodGet, "/admin/pincodes", nil)
	check.AddCookie(cookie)
	require.False(t, sessions.Valid(check.Context(), check))
}

func TestSanitizeRedirect(t *testing.T) {
	require.Equal(t, "/admin", sanitizeRedirect(""))
	require.Equal(t, "/admin", sanitizeRedirect("https://evil.example.com"))
	require.Equal(t, "/admin", sanitizeRedirect("//evil.example.com"))
	require.Equal(t, "/admin/pincodes", sanitizeRedirect("/admin/pincodes"))
}
