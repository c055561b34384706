package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs request details and latency and feeds the HTTP metrics.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", elapsed.String(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
			if m != nil {
				// Label by route pattern, not raw path, to keep metric
				// cardinality bounded.
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				route = r.Method + " " + route
				m.HTTPRequests.WithLabelValues(route, http.StatusText(rec.status)).Inc()
				m.HTTPLatencyMS.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
