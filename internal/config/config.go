package config

import (
	"errors"
	"fmt"
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
	LogFormat          string
	LogLevel           string
	MetricsBuckets     string
	CORSAllowedOrigins []string

	FirestoreProjectID    string
	FirestoreEmulatorHost string
	FirestoreDialTimeout  time.Duration

	RedisURL string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayBaseURL       string
	PaymentProvider       string

	ShippingPartnerBaseURL string
	ShippingPartnerAPIKey  string
	ShippingProvider       string

	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	CartTTL         time.Duration

	EasyReturnBaseFee  float64
	EasyReturnRate     float64
	ReplacementFlatFee float64
	CODAdvanceRate     float64

	RateLimitPerMinute int
	MaxBodyBytes       int64

	OutboundTimeout     time.Duration
	RetryBase           time.Duration
	RetryMaxAttempts    int
	RetryJitterPercent  float64
	CircuitMinReq       int
	CircuitFailureRate  float64
	CircuitOpenFor      time.Duration
	LockTTL             time.Duration
	LockRetryBackoff    time.Duration
	WorkerConcurrency   int
	OTLPEndpoint        string
	TracingSampleRatio  float64
	ShutdownGracePeriod time.Duration
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
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsBuckets:     k.String("METRICS_BUCKETS_MS"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		FirestoreProjectID:    k.String("FIRESTORE_PROJECT_ID"),
		FirestoreEmulatorHost: k.String("FIRESTORE_EMULATOR_HOST"),
		FirestoreDialTimeout:  parseDuration(k.String("FIRESTORE_DIAL_TIMEOUT"), "10s"),

		RedisURL: k.String("REDIS_URL"),

		RazorpayKeyID:         k.String("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     k.String("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: k.String("RAZORPAY_WEBHOOK_SECRET"),
		RazorpayBaseURL:       k.String("RAZORPAY_BASE_URL"),
		PaymentProvider:       valueOrDefault(k.String("PAYMENT_PROVIDER"), "razorpay"),

		ShippingPartnerBaseURL: k.String("SHIPPING_PARTNER_BASE_URL"),
		ShippingPartnerAPIKey:  k.String("SHIPPING_PARTNER_API_KEY"),
		ShippingProvider:       valueOrDefault(k.String("SHIPPING_PROVIDER"), "mock"),

		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CartTTL:         parseDuration(k.String("CART_TTL"), "168h"),

		EasyReturnBaseFee:  parseFloat(k.String("EASY_RETURN_BASE_FEE"), 160),
		EasyReturnRate:     parseFloat(k.String("EASY_RETURN_RATE"), 0.05),
		ReplacementFlatFee: parseFloat(k.String("REPLACEMENT_FLAT_FEE"), 30),
		CODAdvanceRate:     parseFloat(k.String("COD_ADVANCE_RATE"), 0.10),

		RateLimitPerMinute: parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 60),
		MaxBodyBytes:       int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),

		OutboundTimeout:     parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
		RetryBase:           parseDuration(k.String("RETRY_BASE"), "200ms"),
		RetryMaxAttempts:    parseInt(k.String("RETRY_MAX_ATTEMPTS"), 3),
		RetryJitterPercent:  parseFloat(k.String("RETRY_JITTER_PERCENT"), 0.2),
		CircuitMinReq:       parseInt(k.String("CIRCUIT_MIN_REQ"), 10),
		CircuitFailureRate:  parseFloat(k.String("CIRCUIT_FAILURE_RATE"), 0.5),
		CircuitOpenFor:      parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),
		LockTTL:             parseDuration(k.String("LOCK_TTL"), "30s"),
		LockRetryBackoff:    parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		WorkerConcurrency:   parseInt(k.String("WORKER_CONCURRENCY"), 10),
		OTLPEndpoint:        k.String("OTLP_ENDPOINT"),
		TracingSampleRatio:  parseFloat(k.String("TRACING_SAMPLE_RATIO"), 1),
		ShutdownGracePeriod: parseDuration(k.String("SHUTDOWN_GRACE_PERIOD"), "15s"),
	}

	if cfg.FirestoreProjectID == "" {
		return nil, errors.New("FIRESTORE_PROJECT_ID is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
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

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
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
