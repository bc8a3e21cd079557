package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for Gatehouse.
// A nil *MetricsRegistry is valid and records nothing.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Storage Metrics
	StorageOpsTotal    *prometheus.CounterVec
	StorageOpDuration  *prometheus.HistogramVec
	StorageWriteErrors *prometheus.CounterVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	ApplicationsSubmitted *prometheus.CounterVec
	ApplicationsReviewed  *prometheus.CounterVec
	EligibilityRejections *prometheus.CounterVec
	EffectsTotal          *prometheus.CounterVec
	BackupJobDuration     prometheus.Histogram
}

// NewMetricsRegistry registers every metric on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatehouse_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gatehouse_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		StorageOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_storage_ops_total",
				Help: "Total collection reads and writes by collection and operation",
			},
			[]string{"collection", "op"},
		),
		StorageOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatehouse_storage_op_duration_seconds",
				Help:    "Collection read/write latency in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"collection", "op"},
		),
		StorageWriteErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_storage_errors_total",
				Help: "Failed collection operations by collection and operation",
			},
			[]string{"collection", "op"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		ApplicationsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_applications_submitted_total",
				Help: "Applications accepted by type and priority",
			},
			[]string{"type", "priority"},
		),
		ApplicationsReviewed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_applications_reviewed_total",
				Help: "Applications moved to the archive by type and decision",
			},
			[]string{"type", "status"},
		),
		EligibilityRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_eligibility_rejections_total",
				Help: "Eligibility checks that refused a submission, by reason",
			},
			[]string{"reason"},
		),
		EffectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_effects_total",
				Help: "Post-commit effects by name and outcome",
			},
			[]string{"effect", "outcome"},
		),
		BackupJobDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatehouse_backup_job_duration_seconds",
				Help:    "Collection backup job execution time in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
		),
	}
}

// ObserveStorage records one collection operation.
func (m *MetricsRegistry) ObserveStorage(collection, op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.StorageOpsTotal.WithLabelValues(collection, op).Inc()
	m.StorageOpDuration.WithLabelValues(collection, op).Observe(time.Since(started).Seconds())
	if err != nil {
		m.StorageWriteErrors.WithLabelValues(collection, op).Inc()
	}
}

func (m *MetricsRegistry) CacheHit(pattern string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(pattern).Inc()
}

func (m *MetricsRegistry) CacheMiss(pattern string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(pattern).Inc()
}

func (m *MetricsRegistry) ApplicationSubmitted(appType, priority string) {
	if m == nil {
		return
	}
	m.ApplicationsSubmitted.WithLabelValues(appType, priority).Inc()
}

func (m *MetricsRegistry) ApplicationReviewed(appType, status string) {
	if m == nil {
		return
	}
	m.ApplicationsReviewed.WithLabelValues(appType, status).Inc()
}

func (m *MetricsRegistry) EligibilityRejected(reason string) {
	if m == nil {
		return
	}
	m.EligibilityRejections.WithLabelValues(reason).Inc()
}

func (m *MetricsRegistry) EffectFinished(effect, outcome string) {
	if m == nil {
		return
	}
	m.EffectsTotal.WithLabelValues(effect, outcome).Inc()
}

func (m *MetricsRegistry) BackupFinished(started time.Time) {
	if m == nil {
		return
	}
	m.BackupJobDuration.Observe(time.Since(started).Seconds())
}
