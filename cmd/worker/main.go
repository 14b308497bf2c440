package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mobigear/backend-parts/internal/config"
	"github.com/mobigear/backend-parts/internal/events"
	"github.com/mobigear/backend-parts/internal/lock"
	"github.com/mobigear/backend-parts/internal/obs"
	"github.com/mobigear/backend-parts/internal/resilience"
	"github.com/mobigear/backend-parts/internal/shipping"
	"github.com/mobigear/backend-parts/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics("parts", nil)

	ctx := context.Background()

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

	syncer := &shipping.Syncer{
		Orders:   store.NewOrders(fsClient),
		Provider: shippingProvider(cfg, logger),
		Locker:   lock.Locker{R: redisClient, RetryBackoff: cfg.LockRetryBackoff},
		LockTTL:  cfg.LockTTL,
		Logger:   logger,
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(events.TaskShippingSync, syncer.HandleShippingSync)
	mux.HandleFunc(events.TaskOrderCreated, orderCreatedHandler(logger))

	srv := asynq.NewServer(asynqRedisOpt(cfg.RedisURL), asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues: map[string]int{
			events.QueueShipping: 6,
			events.QueueDefault:  4,
		},
	})

	logger.Info().Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

// orderCreatedHandler acknowledges new orders. Today it only logs; the
// storefront's confirmation email flow hooks in here.
func orderCreatedHandler(logger zerolog.Logger) asynq.HandlerFunc {
	return func(_ context.Context, task *asynq.Task) error {
		var p events.OrderCreatedPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return err
		}
		logger.Info().
			Str("order_id", p.OrderID).
			Str("user_id", p.UserID).
			Str("payment_mode", p.PaymentMode).
			Float64("total", p.Total).
			Msg("order created")
		return nil
	}
}

func shippingProvider(cfg *config.Config, logger zerolog.Logger) shipping.Provider {
	if cfg.ShippingProvider == "partner" && cfg.ShippingPartnerBaseURL != "" {
		return shipping.PartnerClient{
			BaseURL: cfg.ShippingPartnerBaseURL,
			APIKey:  cfg.ShippingPartnerAPIKey,
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
	logger.Warn().Msg("shipping partner running in mock mode")
	return shipping.MockProvider{}
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
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func asynqRedisOpt(url string) asynq.RedisClientOpt {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return asynq.RedisClientOpt{Addr: url}
	}
	return asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
}
