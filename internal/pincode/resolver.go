package pincode

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/swiftkart/storefront-api/internal/events"
	"github.com/swiftkart/storefront-api/internal/obs"
)

// Source identifies where a selection was restored from.
type Source string

const (
	SourceCookie Source = "cookie"
	SourceCache  Source = "cache"
	SourceNone   Source = "none"
)

// Selection is the resolved pincode for a session. Value is either empty or
// exactly six ASCII digits once it has passed the serviceability gate; the
// resolver itself stores whatever the client submitted (validation is the
// gate's job, not the resolver's).
type Selection struct {
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// IsSixDigits reports whether v is exactly six ASCII digits.
func IsSixDigits(v string) bool {
	if len(v) != 6 {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

// Resolver restores and updates the per-session pincode selection. The
// durable cookie is authoritative; the Redis fast cache mirrors it for
// immediate reads and backfills the cookie when only the cache survives.
type Resolver struct {
	R         *redis.Client
	Broadcast events.Publisher

	CookieName string
	CookieTTL  time.Duration
	CacheTTL   time.Duration

	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite

	Logger *zerolog.Logger
}

func (rs *Resolver) cookieName() string {
	if rs == nil || strings.TrimSpace(rs.CookieName) == "" {
		return "user_pincode"
	}
	return rs.CookieName
}

func (rs *Resolver) cookieTTL() time.Duration {
	if rs == nil || rs.CookieTTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return rs.CookieTTL
}

func cacheKey(sessionID string) string {
	return "pincode:" + sessionID
}

// Resolve restores the selection for the session. Cookie first, cache as the
// fallback; when only the cache holds a value the cookie is written through
// so the two stores converge. Neither store holding a value is not an error.
func (rs *Resolver) Resolve(ctx context.Context, r *http.Request, w http.ResponseWriter, sessionID string) Selection {
	if rs == nil {
		return Selection{Source: SourceNone}
	}
	if cookie, err := r.Cookie(rs.cookieName()); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return Selection{Value: value, Source: SourceCookie}
		}
	}
	if rs.R != nil && sessionID != "" {
		value, err := rs.R.Get(ctx, cacheKey(sessionID)).Result()
		if err == nil && strings.TrimSpace(value) != "" {
			rs.writeCookie(w, value)
			return Selection{Value: value, Source: SourceCache}
		}
		if err != nil && !errors.Is(err, redis.Nil) && rs.Logger != nil {
			rs.Logger.Warn().Err(err).Msg("pincode cache read failed")
		}
	}
	return Selection{Source: SourceNone}
}

// Update applies a new selection. Equal values are a no-op. Otherwise the
// cache and the cookie are written as a pair and the change is broadcast so
// other open views of the session converge without a reload.
func (rs *Resolver) Update(ctx context.Context, r *http.Request, w http.ResponseWriter, sessionID, newValue string) (Selection, error) {
	if rs == nil {
		return Selection{Source: SourceNone}, errors.New("pincode: resolver not configured")
	}
	newValue = strings.TrimSpace(newValue)
	current := rs.Resolve(ctx, r, w, sessionID)
	if current.Value == newValue {
		return current, nil
	}

	if rs.R != nil && sessionID != "" {
		if err := rs.R.Set(ctx, cacheKey(sessionID), newValue, rs.CacheTTL).Err(); err != nil {
			return current, err
		}
	}
	rs.writeCookie(w, newValue)

	if rs.Broadcast != nil {
		change := events.Change{Key: "pincode", NewValue: newValue, OldValue: current.Value}
		if err := rs.Broadcast.Publish(ctx, events.TopicPincodeChanged, change); err != nil && rs.Logger != nil {
			rs.Logger.Warn().Err(err).Msg("pincode change broadcast failed")
		}
	}
	if obs.PincodeUpdatesTotal != nil {
		obs.PincodeUpdatesTotal.Inc()
	}
	return Selection{Value: newValue, Source: SourceCookie}, nil
}

func (rs *Resolver) writeCookie(w http.ResponseWriter, value string) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     rs.cookieName(),
		Value:    value,
		Path:     "/",
		Domain:   rs.CookieDomain,
		MaxAge:   int(rs.cookieTTL().Seconds()),
		Secure:   rs.CookieSecure,
		SameSite: rs.CookieSameSite,
	})
}
