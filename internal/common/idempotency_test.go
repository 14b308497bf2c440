package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mobigear/backend-parts/internal/common"
)

func TestIdemMiddlewareBlocksReplay(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	calls := 0
	handler := common.Idem{R: client}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.Header.Set("Idempotency-Key", "abc-123")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req.Clone(req.Context()))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req.Clone(req.Context()))
	require.Equal(t, http.StatusConflict, rr2.Code)
	require.Equal(t, 1, calls)
}

func TestIdemMiddlewarePassesWithoutKey(t *testing.T) {
	calls := 0
	handler := common.Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, calls)
}
