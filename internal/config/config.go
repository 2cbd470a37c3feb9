package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	MongoURL           string
	MongoDatabase      string
	RedisURL           string
	CORSAllowedOrigins []string

	PincodeCookieName  string
	PincodeCookieTTL   time.Duration
	PincodeCacheTTL    time.Duration
	ExemptPathPrefixes []string

	CartTTL      time.Duration
	DeliveryFee  int64
	CurrencyCode string

	GatewayMID          string
	GatewayMerchantKey  string
	GatewayWebsite      string
	GatewayIndustryType string
	GatewayChannelID    string
	GatewayBaseURL      string
	GatewayCallbackURL  string

	AdminPasswordHash string
	AdminSessionTTL   time.Duration

	VendorCacheTTL   time.Duration
	CatalogCacheTTL  time.Duration
	IdempotencyTTL   time.Duration
	ReconcileEvery   time.Duration
	ReconcileLockTTL time.Duration
	OutboundTimeout  time.Duration
	RetryMaxAttempts int
	RetryBase        time.Duration

	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		MongoURL:           k.String("MONGO_URL"),
		MongoDatabase:      valueOrDefault(k.String("MONGO_DATABASE"), "storefront"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		PincodeCookieName:  valueOrDefault(k.String("PINCODE_COOKIE_NAME"), "user_pincode"),
		PincodeCookieTTL:   parseDuration(k.String("PINCODE_COOKIE_TTL"), "720h"),
		PincodeCacheTTL:    parseDuration(k.String("PINCODE_CACHE_TTL"), "720h"),
		ExemptPathPrefixes: splitAndTrim(valueOrDefault(k.String("SERVICEABILITY_EXEMPT_PATHS"), "/about,/contact,/privacy,/terms")),

		CartTTL:      parseDuration(k.String("CART_TTL"), "168h"),
		DeliveryFee:  parseInt64(k.String("PRICING_DELIVERY_FEE"), 4000),
		CurrencyCode: valueOrDefault(k.String("CURRENCY_CODE"), "INR"),

		GatewayMID:          k.String("GATEWAY_MID"),
		GatewayMerchantKey:  k.String("GATEWAY_MERCHANT_KEY"),
		GatewayWebsite:      valueOrDefault(k.String("GATEWAY_WEBSITE"), "DEFAULT"),
		GatewayIndustryType: valueOrDefault(k.String("GATEWAY_INDUSTRY_TYPE"), "Retail"),
		GatewayChannelID:    valueOrDefault(k.String("GATEWAY_CHANNEL_ID"), "WEB"),
		GatewayBaseURL:      k.String("GATEWAY_BASE_URL"),
		GatewayCallbackURL:  k.String("GATEWAY_CALLBACK_URL"),

		AdminPasswordHash: k.String("ADMIN_PASSWORD_HASH"),
		AdminSessionTTL:   parseDuration(k.String("ADMIN_SESSION_TTL"), "12h"),

		VendorCacheTTL:   parseDuration(k.String("VENDOR_CACHE_TTL"), "1m"),
		CatalogCacheTTL:  parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		ReconcileEvery:   parseDuration(k.String("RECONCILE_INTERVAL"), "30s"),
		ReconcileLockTTL: parseDuration(k.String("RECONCILE_LOCK_TTL"), "25s"),
		OutboundTimeout:  parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
		RetryMaxAttempts: int(parseInt64(k.String("RETRY_MAX_ATTEMPTS"), 3)),
		RetryBase:        parseDuration(k.String("RETRY_BASE"), "200ms"),

		CookieDomain:   strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:   parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite: parseSameSite(k.String("COOKIE_SAMESITE")),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if cfg.MongoURL == "" {
		return nil, errors.New("MONGO_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.DeliveryFee < 0 {
		return nil, errors.New("PRICING_DELIVERY_FEE must not be negative")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
