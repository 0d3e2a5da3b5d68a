package middleware

import (
	"net/http"
	"strconv"

	"github.com/aniruddha1295/SkyFall-Monad/internal/metrics"
)

// Metrics returns middleware that counts requests per route pattern and
// status code. The route label uses the matched ServeMux pattern rather than
// the raw path so cardinality stays bounded.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.HTTPRequests.WithLabelValues(route, strconv.Itoa(rw.statusCode)).Inc()
		})
	}
}
