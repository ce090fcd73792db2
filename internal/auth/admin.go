package auth

import (
	"context"
	"net/http"
)

const adminRole = "admin"

// IsAdmin is the single capability the back office consumes: whether the
// current user carries the admin role.
func IsAdmin(ctx context.Context) bool {
	for _, role := range Roles(ctx) {
		if role == adminRole {
			return true
		}
	}
	return false
}

// RequireAdmin guards the back office routes. It must run behind
// Middleware so the role claims are on the context.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			http.Error(w, "admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
