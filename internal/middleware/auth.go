// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dsmolkin/refind/internal/auth"
	"github.com/dsmolkin/refind/internal/models"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// BearerAuth is a middleware that enforces bearer-token authentication.
//
// Requests whose path is in exempt are passed through without a token so
// registration, login and public search remain reachable. Every other
// request must carry "Authorization: Bearer <token>" signed with secret.
//
// On successful validation the token claims are stored in the request
// context, so downstream handlers can identify the caller.
func BearerAuth(secret []byte, exempt ...string) func(http.Handler) http.Handler {
	exemptSet := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		exemptSet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := auth.Parse(secret, token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// It must be mounted after BearerAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil || claims.Role != models.RoleAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext extracts the verified token claims from the request context.
// Returns nil if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	val := ctx.Value(claimsKey)
	if c, ok := val.(*auth.Claims); ok {
		return c
	}
	return nil
}

// WithClaims returns a context carrying the given claims. Used by tests and
// by handlers invoked outside the middleware chain.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
