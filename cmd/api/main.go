package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mobigear/backend-parts/internal/cart"
	"github.com/mobigear/backend-parts/internal/catalog"
	"github.com/mobigear/backend-parts/internal/checkout"
	"github.com/mobigear/backend-parts/internal/common"
	"github.com/mobigear/backend-parts/internal/config"
	"github.com/mobigear/backend-parts/internal/events"
	"github.com/mobigear/backend-parts/internal/health"
	"github.com/mobigear/backend-parts/internal/obs"
	"github.com/mobigear/backend-parts/internal/offer"
	"github.com/mobigear/backend-parts/internal/order"
	"github.com/mobigear/backend-parts/internal/payment"
	"github.com/mobigear/backend-parts/internal/pricing"
	"github.com/mobigear/backend-parts/internal/ratelimit"
	"github.com/mobigear/backend-parts/internal/resilience"
	"github.com/mobigear/backend-parts/internal/security"
	"github.com/mobigear/backend-parts/internal/shipping"
	"github.com/mobigear/backend-parts/internal/store"
)

const metricsNamespace = "parts"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := cfg.OTLPEndpoint != ""
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "parts-api",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TracingSampleRatio,
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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fsClient, err := store.Dial(ctx, store.Config{
		ProjectID:    cfg.FirestoreProjectID,
		EmulatorHost: cfg.FirestoreEmulatorHost,
		DialTimeout:  cfg.FirestoreDialTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect firestore")
	}
	defer func() {
		if err := fsClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close firestore")
		}
	}()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	enqueuer := events.NewEnqueuer(asynqRedisOpt(cfg.RedisURL))
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Error().Err(err).Msg("close task queue")
		}
	}()

	fees := pricing.FeeSchedule{
		EasyReturnBaseFee:  cfg.EasyReturnBaseFee,
		EasyReturnRate:     cfg.EasyReturnRate,
		ReplacementFlatFee: cfg.ReplacementFlatFee,
		CODAdvanceRate:     cfg.CODAdvanceRate,
	}

	offers := store.NewOffers(fsClient)
	carts := store.NewCarts(fsClient, cfg.CartTTL)
	orders := store.NewOrders(fsClient)
	settings := store.NewSettings(fsClient)

	catalogSvc := catalog.NewService(catalog.ServiceConfig{
		Products:   store.NewProducts(fsClient),
		Categories: store.NewCategories(fsClient),
		Brands:     store.NewBrands(fsClient),
		Series:     store.NewSeries(fsClient),
		Models:     store.NewModels(fsClient),
		Cache:      catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
	})
	catalogHandler := catalog.NewHandler(catalogSvc)

	offerSvc := offer.NewService(offers)
	offerHandler := offer.NewHandler(offerSvc)

	cartSvc := cart.NewService(cart.ServiceConfig{
		Carts:    carts,
		Catalog:  catalogSvc,
		Offers:   offerSvc,
		Settings: settings,
		Fees:     &fees,
	})
	cartHandler := cart.NewHandler(cartSvc)

	gateway := paymentProvider(cfg, logger)
	checkoutSvc := checkout.NewService(checkout.ServiceConfig{
		Carts:   carts,
		Quoter:  cartSvc,
		Orders:  orders,
		Gateway: gateway,
		Queue:   enqueuer,
		Logger:  logger,
	})
	checkoutHandler := checkout.NewHandler(checkoutSvc)

	orderSvc := order.NewService(orders)
	orderHandler := order.NewHandler(orderSvc)

	settingsHandler := shipping.NewSettingsHandler(shipping.NewSettingsService(settings))

	webhookHandler := &payment.WebhookHandler{
		Provider: gateway,
		Orders:   orders,
		Queue:    enqueuer,
		Logger:   logger,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	rateLimiter, err := ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitPerMinute)
	if err != nil {
		logger.Fatal().Err(err).Msg("init rate limiter")
	}
	limiter := ratelimit.Handler{
		Limiter: rateLimiter,
		Key:     rateLimitKey,
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter unavailable")
		},
	}

	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-User-ID", "X-User-Role"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(common.IdentityMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{
		Checker: readinessChecker{store: fsClient, redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/brands", catalogHandler.Brands)
		v.Get("/series", catalogHandler.Series)
		v.Get("/models", catalogHandler.Models)
		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{id}", catalogHandler.ProductDetail)
		v.Get("/offers", offerHandler.ListActive)
		v.Get("/shipping/settings", settingsHandler.Get)

		v.Route("/cart", func(c chi.Router) {
			c.Use(common.RequireUser)
			c.Get("/", cartHandler.Get)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items/{lineId}", cartHandler.UpdateQty)
			c.Delete("/items/{lineId}", cartHandler.RemoveLine)
			c.With(limiter.Middleware).Post("/coupons", cartHandler.ApplyCoupon)
			c.Delete("/coupons/{code}", cartHandler.RemoveCoupon)
			c.Put("/options", cartHandler.SetOptions)
		})

		v.With(common.RequireUser, limiter.Middleware, idem.Middleware).Post("/checkout", checkoutHandler.Submit)

		v.Route("/orders", func(o chi.Router) {
			o.Use(common.RequireUser)
			o.Get("/", orderHandler.List)
			o.Get("/{id}", orderHandler.Get)
			o.Post("/{id}/cancel", orderHandler.Cancel)
		})

		v.Post("/payments/webhook", webhookHandler.Handle)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(common.RequireAdmin)
			admin.Post("/products", catalogHandler.CreateProduct)
			admin.Put("/products/{id}", catalogHandler.UpdateProduct)
			admin.Delete("/products/{id}", catalogHandler.DeleteProduct)
			admin.Post("/categories", catalogHandler.CreateCategory)
			admin.Post("/brands", catalogHandler.CreateBrand)
			admin.Post("/offers", offerHandler.Create)
			admin.Put("/offers/{id}", offerHandler.Update)
			admin.Delete("/offers/{id}", offerHandler.Delete)
			admin.Patch("/orders/{id}/status", orderHandler.AdminSetStatus)
			admin.Put("/shipping/settings", settingsHandler.Update)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	logger.Info().Msg("draining connections")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func paymentProvider(cfg *config.Config, logger zerolog.Logger) payment.Provider {
	if cfg.PaymentProvider == "mock" {
		logger.Warn().Msg("payment gateway running in mock mode")
		return payment.Mock{}
	}
	return payment.Razorpay{
		KeyID:         cfg.RazorpayKeyID,
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
		BaseURL:       cfg.RazorpayBaseURL,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{},
			Breaker:     resilience.NewBreaker(cfg.CircuitMinReq, cfg.CircuitFailureRate, cfg.CircuitOpenFor),
			BaseBackoff: cfg.RetryBase,
			MaxAttempts: cfg.RetryMaxAttempts,
			Jitter:      cfg.RetryJitterPercent,
			Timeout:     cfg.OutboundTimeout,
		},
	}
}

func asynqRedisOpt(url string) asynq.RedisClientOpt {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return asynq.RedisClientOpt{Addr: url}
	}
	return asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
}

func rateLimitKey(r *http.Request) string {
	if id := common.UserID(r.Context()); id != "" {
		return id
	}
	return common.ClientIP(r)
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	store *store.Client
	redis *redis.Client
}

func (c readinessChecker) PingStore(ctx context.Context, timeout time.Duration) error {
	if c.store == nil {
		return errors.New("firestore not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.store.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}
