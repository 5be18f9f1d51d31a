package middleware

import (
	"context"
	"net/http"

	"courtside/pkg/logger"
)

const IdentityKey contextKey = "identity"

// IdentityHeader carries the caller's user ID. Authentication itself lives
// at the gateway; services trust the header the gateway injects.
const IdentityHeader = "X-User-ID"

// Identity copies the caller's user ID from the request header into the
// request context so handlers and the rate limiter share one extraction
// point.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get(IdentityHeader); id != "" {
				ctx := context.WithValue(r.Context(), IdentityKey, id)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the caller's user ID, or "" when the request
// was anonymous.
func IdentityFromContext(ctx context.Context) string {
	if v := ctx.Value(IdentityKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// RequireIdentity rejects requests that carry no user ID. Mutating routes
// sit behind it; read routes stay open.
func RequireIdentity(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFromContext(r.Context()) == "" {
				log.Warn("Request without identity rejected",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
