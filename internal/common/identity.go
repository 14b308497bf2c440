package common

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	userIDKey   ctxKey = "identity/user-id"
	userRoleKey ctxKey = "identity/user-role"
)

// Identity headers populated by the upstream auth gateway. Token verification
// itself happens outside this service.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// RoleAdmin gates the administrative endpoints.
const RoleAdmin = "admin"

// WithUserID stores the caller identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the caller identifier from the context, or "" when
// the request is anonymous.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserRole stores the caller role on the provided context.
func WithUserRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, userRoleKey, role)
}

// UserRole extracts the caller role from the context, or "" when none
// was supplied.
func UserRole(ctx context.Context) string {
	role, _ := ctx.Value(userRoleKey).(string)
	return role
}

// IdentityMiddleware lifts the gateway identity headers into the request
// context. Requests without an identity pass through anonymously; handlers
// that require one use RequireUser.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
			ctx = WithUserID(ctx, id)
		}
		if role := strings.TrimSpace(r.Header.Get(HeaderUserRole)); role != "" {
			ctx = WithUserRole(ctx, role)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests lacking a caller identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r.Context()) == "" {
			JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose identity does not carry the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r.Context()) == "" {
			JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		if UserRole(r.Context()) != RoleAdmin {
			JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
