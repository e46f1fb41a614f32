package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
)

// RequestIDHeader carries the correlation id in and out of the service
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 128

// resourceFields maps the collection in an /api route to the log field that
// names its {id}
var resourceFields = map[string]string{
	"users":      "user_id",
	"volunteers": "volunteer_id",
	"requests":   "request_id",
	"sessions":   "session_id",
	"reports":    "report_id",
}

// RequestIDMiddleware echoes a caller supplied X-Request-ID or mints one, and
// attaches it to the request logger
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(observability.WithRequestID(r.Context(), id)))
	})
}

// ObservabilityMiddleware traces one routed handler and records its metrics.
// Spans and logs are tagged with the resource the route addresses.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// route pattern keeps metric cardinality bounded
			route := r.Pattern
			if route == "" {
				route = r.URL.Path
			}

			ctx, span := observability.StartSpan(r.Context(), route)
			defer span.End()

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", r.UserAgent()),
			}
			if id := observability.RequestIDFromContext(ctx); id != "" {
				attrs = append(attrs, attribute.String("http.request_id", id))
			}
			if field, id := routedResource(r); field != "" {
				attrs = append(attrs, attribute.String("miniapp."+field, id))
				ctx = observability.WithFields(ctx, map[string]interface{}{field: id})
			}
			observability.SetSpanAttributes(span, attrs...)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rw, r.WithContext(ctx))

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
			observability.SetSpanAttributes(span,
				attribute.Int("http.status_code", rw.statusCode),
				attribute.String("http.status_class", statusClass(rw.statusCode)),
			)
		})
	}
}

// routedResource returns the log field and value for the {id} of a routed
// /api/<collection>/{id} request
func routedResource(r *http.Request) (string, string) {
	id := r.PathValue("id")
	if id == "" {
		return "", ""
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/")
	collection, _, _ := strings.Cut(path, "/")
	field, ok := resourceFields[collection]
	if !ok {
		return "", ""
	}
	return field, id
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
