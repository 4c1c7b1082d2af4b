package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codesync/internal/metrics"
)

// unmatchedRoute labels requests no route matched, so random 404 paths
// don't each get their own series.
const unmatchedRoute = "unmatched"

// Metrics records request count and latency per chi route pattern.
// Mount it with r.Use on the root router; the pattern is read after the
// handler runs, once chi has finished matching.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
		})
	}
}
