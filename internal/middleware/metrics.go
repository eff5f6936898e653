package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cassiomorais/paycore/internal/infrastructure/observability"
	"github.com/go-chi/chi/v5"
)

// Metrics records request count and latency per route pattern. The chi
// pattern, not the raw path, is used as the label so payment ids do not
// explode series cardinality. Requests that never matched a route (bot
// probes against webhook paths, mostly) collapse into one label.
func Metrics(m *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}

			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.statusCode)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
		})
	}
}

// statusWriter captures the status code for the metrics labels. Handlers
// that never call WriteHeader implicitly answer 200.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
