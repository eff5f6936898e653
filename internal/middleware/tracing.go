package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Tracing opens an otel span per request, named after the matched chi
// pattern ("POST /api/v1/payments/{id}/capture") so span names stay
// low-cardinality. Unmatched requests fall back to the raw path.
func Tracing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operation := r.Method + " " + r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				operation = r.Method + " " + rctx.RoutePattern()
			}
			otelhttp.NewHandler(next, operation).ServeHTTP(w, r)
		})
	}
}
