package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/swiftkart/storefront-api/internal/admin"
	"github.com/swiftkart/storefront-api/internal/cache"
	"github.com/swiftkart/storefront-api/internal/cart"
	"github.com/swiftkart/storefront-api/internal/catalog"
	"github.com/swiftkart/storefront-api/internal/checkout"
	"github.com/swiftkart/storefront-api/internal/common"
	"github.com/swiftkart/storefront-api/internal/config"
	"github.com/swiftkart/storefront-api/internal/db"
	"github.com/swiftkart/storefront-api/internal/events"
	"github.com/swiftkart/storefront-api/internal/health"
	"github.com/swiftkart/storefront-api/internal/lock"
	"github.com/swiftkart/storefront-api/internal/obs"
	"github.com/swiftkart/storefront-api/internal/payment"
	"github.com/swiftkart/storefront-api/internal/pincode"
	"github.com/swiftkart/storefront-api/internal/ratelimit"
	"github.com/swiftkart/storefront-api/internal/reconcile"
	"github.com/swiftkart/storefront-api/internal/resilience"
	"github.com/swiftkart/storefront-api/internal/vendor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "storefront")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "storefront-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, database, err := db.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		if err := db.Disconnect(mongoClient); err != nil {
			logger.Error().Err(err).Msg("disconnect mongo")
		}
	}()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	bus := &events.Bus{}
	broadcaster := events.RedisBroadcaster{
		Client:   redisClient,
		Fallback: bus,
		Logger:   &logger,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Surface cross-replica pincode changes in this replica's log stream.
	bus.Subscribe(events.TopicPincodeChanged, func(_ context.Context, change events.Change) {
		logger.Debug().
			Str("key", change.Key).
			Str("old_value", change.OldValue).
			Str("new_value", change.NewValue).
			Msg("pincode changed elsewhere")
	})

	go func() {
		if err := broadcaster.Listen(rootCtx, events.TopicPincodeChanged); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("pincode event listener stopped")
		}
	}()

	resolver := &pincode.Resolver{
		R:              redisClient,
		Broadcast:      broadcaster,
		CookieName:     cfg.PincodeCookieName,
		CookieTTL:      cfg.PincodeCookieTTL,
		CacheTTL:       cfg.PincodeCacheTTL,
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: cfg.CookieSameSite,
		Logger:         &logger,
	}
	pincodeHandler := &pincode.Handler{Resolver: resolver}

	pincodeStore := &pincode.CachedStore{
		Next:  pincode.NewStore(database),
		Cache: cache.NewJSON(redisClient, cfg.VendorCacheTTL),
	}
	pincodeAdmin := &pincode.AdminHandler{Store: pincodeStore, Validate: validate}

	vendorRepo := &vendor.CachedRepo{
		Next:  vendor.NewMongoRepo(database),
		Cache: cache.NewJSON(redisClient, cfg.VendorCacheTTL),
	}
	gate := &vendor.Gate{Repo: vendorRepo, Logger: &logger}
	vendorHandler := &vendor.Handler{
		Gate:           gate,
		Resolver:       resolver,
		ExemptPrefixes: cfg.ExemptPathPrefixes,
	}

	cartSvc := &cart.Service{
		Store:       &cart.RedisStore{R: redisClient, TTL: cfg.CartTTL},
		DeliveryFee: cfg.DeliveryFee,
	}
	cartHandler := &cart.Handler{Svc: cartSvc, Currency: cfg.CurrencyCode}

	gatewayClient := &resilience.HTTPClient{
		Client:      &http.Client{Timeout: cfg.OutboundTimeout},
		Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second),
		BaseBackoff: cfg.RetryBase,
		MaxAttempts: cfg.RetryMaxAttempts,
		Jitter:      0.2,
		Timeout:     cfg.OutboundTimeout,
	}
	paymentSvc := &payment.Service{
		Gateway: &payment.HTTPGateway{BaseURL: cfg.GatewayBaseURL, Client: gatewayClient},
		Orders:  payment.NewCachedOrderStore(payment.NewMongoOrderStore(database)),
		Merchant: payment.MerchantConfig{
			MID:          cfg.GatewayMID,
			MerchantKey:  cfg.GatewayMerchantKey,
			Website:      cfg.GatewayWebsite,
			IndustryType: cfg.GatewayIndustryType,
			ChannelID:    cfg.GatewayChannelID,
			CallbackURL:  cfg.GatewayCallbackURL,
		},
		Logger: logger,
	}
	paymentHandler := &payment.Handler{Svc: paymentSvc, Validate: validate}

	checkoutHandler := &checkout.Handler{
		Svc: &checkout.Service{
			Resolver: resolver,
			Gate:     gate,
			Cart:     cartSvc,
			Payments: paymentSvc,
			Logger:   logger,
		},
		Validate: validate,
	}

	catalogHandler := &catalog.Handler{
		Repo: &catalog.CachedRepo{
			Next:  catalog.NewMongoRepo(database),
			Cache: cache.NewJSON(redisClient, cfg.CatalogCacheTTL),
		},
		Logger: logger,
	}

	adminSessions := &admin.Sessions{R: redisClient, TTL: cfg.AdminSessionTTL, Secure: cfg.CookieSecure}
	adminHandler := &admin.Handler{
		Sessions:     adminSessions,
		PasswordHash: cfg.AdminPasswordHash,
		Logger:       logger,
	}

	reconciler := &reconcile.Worker{
		Orders:   payment.NewMongoOrderStore(database),
		Payments: paymentSvc,
		Locker:   lock.Locker{R: redisClient},
		Interval: cfg.ReconcileEvery,
		LockTTL:  cfg.ReconcileLockTTL,
		Logger:   logger,
	}
	go reconciler.Run(rootCtx)

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	session := common.SessionCookie{
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
		TTL:      cfg.PincodeCookieTTL,
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.Deps{Mongo: mongoClient, Redis: redisClient},
		MongoTimeout: envDurationMillis("HEALTH_READY_MONGO_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	checkoutLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP,
			Window: time.Minute,
			Max:    envInt("RATE_LIMIT_CHECKOUT_PER_MINUTE", 20),
		},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter degraded") },
	}
	adminLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:admin:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP,
			Window: time.Minute,
			Max:    envInt("RATE_LIMIT_ADMIN_PER_MINUTE", 60),
		},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter degraded") },
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(session.Middleware)

		v.Get("/categories", catalogHandler.List)

		v.Route("/pincode", func(p chi.Router) {
			p.Get("/", pincodeHandler.Get)
			p.Put("/", pincodeHandler.Update)
		})
		v.Get("/serviceability", vendorHandler.Check)

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/items", cartHandler.AddItem)
				g.Patch("/items/{productId}", cartHandler.SetQuantity)
			})
		})

		v.With(idem.Middleware, checkoutLimit.Middleware).Post("/checkout", checkoutHandler.Checkout)

		v.Route("/payments", func(p chi.Router) {
			p.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Use(checkoutLimit.Middleware)
				g.Post("/initiate", paymentHandler.Initiate)
			})
			p.Get("/{orderID}/status", paymentHandler.Status)
		})
		v.Post("/webhooks/payment/callback", paymentHandler.Callback)
	})

	r.Route("/admin", func(a chi.Router) {
		a.Use(adminSessions.RequireSession)
		a.Post("/login", adminHandler.Login)
		a.Post("/logout", adminHandler.Logout)
		a.Route("/pincodes", func(p chi.Router) {
			p.Use(adminLimit.Middleware)
			p.Get("/", pincodeAdmin.List)
			p.Post("/", pincodeAdmin.Add)
			p.Delete("/", pincodeAdmin.Remove)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
