package middleware

import (
	"crypto/subtle"
	"net/http"
)

// ResolverToken returns middleware that protects resolution endpoints with a
// dedicated bearer token, separate from the general API key. If token is
// empty the protected routes are disabled entirely rather than left open.
func ResolverToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeUnauthorized(w, "resolution endpoints are disabled")
				return
			}

			presented := extractToken(r)
			if presented == "" {
				writeUnauthorized(w, "missing resolver token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				writeUnauthorized(w, "invalid resolver token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
