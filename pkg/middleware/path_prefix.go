package middleware

import (
	"net/http"
	"strings"
)

// PathPrefix scopes mw to requests whose path starts with prefix; everything
// else bypasses it. Used to hang route-group middleware (response cache,
// webhook signatures) off the single application chain.
func PathPrefix(prefix string, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
