package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the dashboard service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveSessions  prometheus.Gauge
	BranchFailures  *prometheus.CounterVec
	FetchCycles     prometheus.Counter
}

// NewMetrics registers the collectors on the given registerer. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_active_sessions",
			Help: "Number of live dashboard sessions.",
		}),
		BranchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fetch_branch_failures_total",
			Help: "Failed fetch branches by branch name.",
		}, []string{"branch"}),
		FetchCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_fetch_cycles_total",
			Help: "Fetch cycles started across all sessions.",
		}),
	}
}

// ObserveBranch is wired into controllers as a branch observer so every
// settled fetch branch is counted, failures by name.
func (m *Metrics) ObserveBranch(branch string, err error) {
	if err != nil {
		m.BranchFailures.WithLabelValues(branch).Inc()
	}
}

// Instrument records request count and latency per chi route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
