package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "ledger"

// Settlement outcomes counted by LedgerMetrics
const (
	OutcomeCreated    = "created"
	OutcomeFinalized  = "finalized"
	OutcomeCanceled   = "canceled"
	OutcomeConflicted = "conflicted"
)

// LedgerMetrics exposes business and HTTP metrics on a private registry.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	registry *prometheus.Registry

	recordsCommitted       *prometheus.CounterVec
	commitFailures         *prometheus.CounterVec
	settlements            *prometheus.CounterVec
	installmentsLiquidated prometheus.Counter
	reportDuration         *prometheus.HistogramVec
	httpRequests           *prometheus.CounterVec
	httpDuration           *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger collectors plus the Go and process
// collectors on a fresh registry.
func NewLedgerMetrics() *LedgerMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &LedgerMetrics{
		registry: registry,
		recordsCommitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_committed_total",
			Help:      "Ledger records written by batch commits",
		}, []string{"variant"}),
		commitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commit_failures_total",
			Help:      "Batch commits that stopped before writing every record",
		}, []string{"variant"}),
		settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "settlements_total",
			Help:      "Settlement lifecycle transitions by outcome",
		}, []string{"outcome"}),
		installmentsLiquidated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "installments_liquidated_total",
			Help:      "Settlement installments marked as paid",
		}),
		reportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "income_statement_duration_seconds",
			Help:      "Income statement generation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the underlying registry
func (m *LedgerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordsCommitted counts records written for a variant
func (m *LedgerMetrics) RecordsCommitted(variant string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsCommitted.WithLabelValues(variant).Add(float64(n))
}

// CommitFailed counts a partial commit
func (m *LedgerMetrics) CommitFailed(variant string) {
	if m == nil {
		return
	}
	m.commitFailures.WithLabelValues(variant).Inc()
}

// Settlement counts a settlement lifecycle outcome
func (m *LedgerMetrics) Settlement(outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

// InstallmentLiquidated counts a paid installment
func (m *LedgerMetrics) InstallmentLiquidated() {
	if m == nil {
		return
	}
	m.installmentsLiquidated.Inc()
}

// ObserveReport records an income statement generation
func (m *LedgerMetrics) ObserveReport(cacheHit bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "miss"
	if cacheHit {
		label = "hit"
	}
	m.reportDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// GinMiddleware records request counts and latency per matched route
func (m *LedgerMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
