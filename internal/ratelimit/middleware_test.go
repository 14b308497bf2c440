package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func memoryHandler(max int64) Handler {
	lim := limiter.New(memory.NewStore(), limiter.Rate{Period: time.Minute, Limit: max})
	return Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "static" },
	}
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	handler := memoryHandler(1)

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr1 := httptest.NewRecorder()
	counted.ServeHTTP(rr1, req.Clone(req.Context()))
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rr1.Code)
	}

	rr2 := httptest.NewRecorder()
	counted.ServeHTTP(rr2, req.Clone(req.Context()))
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request, got %d", rr2.Code)
	}
	if rr2.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("unexpected limit header: %q", rr2.Header().Get("X-RateLimit-Limit"))
	}
	if rr2.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on rejection")
	}
	if !strings.Contains(rr2.Body.String(), "rate_limited") {
		t.Fatalf("expected rate_limited error body, got %q", rr2.Body.String())
	}
}

func TestMiddlewarePassesWithoutLimiter(t *testing.T) {
	counted := Handler{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through without a limiter, got %d", rr.Code)
	}
}

type failStore struct{}

func (failStore) Get(context.Context, string, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func (failStore) Peek(context.Context, string, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func (failStore) Reset(context.Context, string, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func (failStore) Increment(context.Context, string, int64, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func TestMiddlewareFailsOpenOnStoreError(t *testing.T) {
	handler := Handler{
		Limiter: limiter.New(failStore{}, limiter.Rate{Period: time.Minute, Limit: 1}),
		Key:     func(*http.Request) string { return "err" },
	}

	called := false
	handler.OnError = func(error) { called = true }

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected handler to proceed on error, got %d", rr.Code)
	}
	if !called {
		t.Fatal("expected OnError callback to be invoked")
	}
}

func TestNewRedisLimiterCountsAcrossCalls(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	lim, err := NewRedisLimiter(client, 1)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	ctx := context.Background()
	first, err := lim.Get(ctx, "key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.Reached {
		t.Fatal("expected first request within the limit")
	}

	second, err := lim.Get(ctx, "key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !second.Reached {
		t.Fatal("expected second request to exceed the limit")
	}
}
