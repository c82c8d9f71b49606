package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/riponahmed2201/taskmgr/internal/auth"
	"github.com/riponahmed2201/taskmgr/internal/metrics"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// JWT returns a middleware that requires a valid Bearer token and stores the
// authenticated user ID in the request context. Expired and otherwise invalid
// tokens both produce the same 401 so the failing check is not leaked.
func JWT(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			userID, err := auth.ParseToken(tokenStr, secret)
			if err != nil {
				metrics.IncAuthFailure("token")
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts the authenticated user ID stored by the JWT middleware.
func GetUserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
