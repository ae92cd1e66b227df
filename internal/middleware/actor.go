package middleware

import (
	"net/http"
	"strings"

	"consult-backend/internal/auth"
	"consult-backend/internal/transport"
)

// Authenticate resolves the bearer token into an auth.Actor stored on the
// request context. Requests without a valid token are rejected.
func Authenticate(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				transport.WriteError(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			actor, err := manager.Resolve(strings.TrimSpace(token))
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}
