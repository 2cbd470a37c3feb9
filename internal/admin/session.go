package admin

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionCookieName is the admin session cookie. Distinct from the shopper
// session cookie so the two lifecycles never interact.
const SessionCookieName = "admin_session"

const sessionKeyPrefix = "admin_session:"

// Sessions tracks server-side admin sessions in Redis. The cookie holds an
// opaque token; revoking the Redis key logs the admin out everywhere.
type Sessions struct {
	R      *redis.Client
	TTL    time.Duration
	Secure bool
}

func (s *Sessions) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 12 * time.Hour
}

// Create issues a new session token and sets the cookie.
func (s *Sessions) Create(ctx context.Context, w http.ResponseWriter) (string, error) {
	token := uuid.NewString()
	if err := s.R.Set(ctx, sessionKeyPrefix+token, "1", s.ttl()).Err(); err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl().Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// Valid reports whether the request carries a live admin session.
func (s *Sessions) Valid(ctx context.Context, r *http.Request) bool {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return false
	}
	n, err := s.R.Exists(ctx, sessionKeyPrefix+c.Value).Result()
	return err == nil && n > 0
}

// Destroy revokes the session and clears the cookie.
func (s *Sessions) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		_ = s.R.Del(ctx, sessionKeyPrefix+c.Value).Err()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoginPath is where unauthenticated admin traffic is sent.
const LoginPath = "/admin/login"

// RequireSession guards admin routes. Requests without a live session are
// redirected to the login page with the original path preserved, so login can
// bounce the admin back to where they were headed.
func (s *Sessions) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, LoginPath) {
			next.ServeHTTP(w, r)
			return
		}
		if s.Valid(r.Context(), r) {
			next.ServeHTTP(w, r)
			return
		}
		target := LoginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusFound)
	})
}
