package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobigear/backend-parts/internal/common"
)

func TestIdentityMiddlewareLiftsHeaders(t *testing.T) {
	var gotID, gotRole string
	handler := common.IdentityMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = common.UserID(r.Context())
		gotRole = common.UserRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "u-1")
	req.Header.Set("X-User-Role", "admin")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "u-1", gotID)
	require.Equal(t, "admin", gotRole)
}

func TestRequireUserRejectsAnonymous(t *testing.T) {
	handler := common.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	handler := common.IdentityMiddleware(common.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "u-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req.Header.Set("X-User-Role", "admin")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestWriteErrorKeepsAppErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	common.WriteError(rr, common.BadRequest("Invalid Coupon Code"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "Invalid Coupon Code")
}
