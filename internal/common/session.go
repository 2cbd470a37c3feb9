package common

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName identifies the anonymous storefront session.
const SessionCookieName = "sf_session"

type sessionKey struct{}

// WithSessionID stores the session identifier inside the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID extracts the session identifier from context if present.
func SessionID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// SessionCookie ensures every request carries a stable anonymous session id.
// A missing or blank cookie is replaced with a fresh UUID so downstream
// components (pincode cache, cart store) can key state per browsing session.
type SessionCookie struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

// Middleware resolves or assigns the session cookie and stores the id on the context.
func (s SessionCookie) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			id = strings.TrimSpace(cookie.Value)
		}
		if id == "" {
			id = uuid.NewString()
			ttl := s.TTL
			if ttl <= 0 {
				ttl = 365 * 24 * time.Hour
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				Domain:   s.Domain,
				MaxAge:   int(ttl.Seconds()),
				Secure:   s.Secure,
				HttpOnly: true,
				SameSite: s.SameSite,
			})
		}
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
	})
}
