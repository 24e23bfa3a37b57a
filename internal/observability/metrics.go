package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tecnico"

// Metrics groups the console's prometheus collectors on a private registry.
type Metrics struct {
	registry         *prometheus.Registry
	requestCount     *prometheus.CounterVec
	errorCount       *prometheus.CounterVec
	upstreamCount    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	scopeTickets     *prometheus.GaugeVec
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "requests_total",
			Help:      "Console API requests, labeled by route, method and status",
		}, []string{"path", "method", "status"}),
		errorCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "errors_total",
			Help:      "Console API errors, labeled by route, method and error code",
		}, []string{"path", "method", "code"}),
		upstreamCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "helpdesk",
			Name:      "calls_total",
			Help:      "Helpdesk API calls, labeled by operation and outcome",
		}, []string{"operation", "outcome"}),
		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "helpdesk",
			Name:      "call_duration_seconds",
			Help:      "Duration of helpdesk API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		scopeTickets: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "scope_count",
			Help:      "Last known ticket count per scope",
		}, []string{"scope"}),
	}
}

// Registry exposes the collectors for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for console API requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// RecordUpstream records one helpdesk call. outcome is "ok" or an error code.
func (m *Metrics) RecordUpstream(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamCount.WithLabelValues(operation, outcome).Inc()
	m.upstreamDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetScopeCount publishes the latest count for a scope.
func (m *Metrics) SetScopeCount(scope string, count int) {
	if m == nil {
		return
	}
	m.scopeTickets.WithLabelValues(scope).Set(float64(count))
}
