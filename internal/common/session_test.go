package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionCookieAssignsNewSession(t *testing.T) {
	var seen string
	handler := SessionCookie{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := SessionID(r.Context())
		require.True(t, ok)
		seen = id
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, SessionCookieName, cookies[0].Name)
	require.Equal(t, seen, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
}

func TestSessionCookieReusesExisting(t *testing.T) {
	var seen string
	handler := SessionCookie{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "existing-session"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, "existing-session", seen)
	require.Empty(t, rr.Result().Cookies(), "existing sessions must not be reissued")
}

func TestSessionIDMissing(t *testing.T) {
	_, ok := SessionID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.False(t, ok)
}
