package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "savenbite"

// Metrics bundles the engine's Prometheus collectors. Callers own the
// registry so tests can register in isolation.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPLatencyMS *prometheus.HistogramVec

	LedgerOps       *prometheus.CounterVec
	SweepRuns       prometheus.Counter
	SweptSessions   prometheus.Counter
	SweptCarts      prometheus.Counter
	HistoryFailures prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		HTTPLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		LedgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Inventory ledger operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		SweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Number of expiration sweep passes.",
		}),
		SweptSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_sessions_total",
			Help:      "Checkout sessions expired by the sweeper.",
		}),
		SweptCarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_carts_total",
			Help:      "Carts cleared by the sweeper.",
		}),
		HistoryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_history_failures_total",
			Help:      "Status history appends that failed and were skipped.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPLatencyMS,
		m.LedgerOps,
		m.SweepRuns,
		m.SweptSessions,
		m.SweptCarts,
		m.HistoryFailures,
	)
	return m
}

// Handler serves the given registry at /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
