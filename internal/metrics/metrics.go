// Package metrics exposes Prometheus metrics for the matcher.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Explanation outcomes.
const (
	ExplanationOK      = "ok"
	ExplanationError   = "error"
	ExplanationSkipped = "skipped"
)

// Manager owns every metric. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	recommendations        prometheus.Counter
	recommendationDuration prometheus.Histogram
	matchesReturned        prometheus.Histogram
	explanations           *prometheus.CounterVec
	catalogCareers         prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a manager on its own registry so default Go collectors
// stay out of the exposition.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "career_matcher",
		histogramBuckets: prometheus.DefBuckets,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recommendations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "recommendations_total",
		Help:      "Total number of recommendations served",
	})

	m.recommendationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "recommendation_duration_seconds",
		Help:      "Time spent ranking, filtering and explaining a recommendation",
		Buckets:   m.histogramBuckets,
	})

	m.matchesReturned = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "matches_returned",
		Help:      "Number of careers returned per recommendation",
		Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
	})

	m.explanations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "explanations_total",
		Help:      "AI explanations by outcome",
	}, []string{"outcome"})

	m.catalogCareers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "catalog_careers",
		Help:      "Number of careers in the loaded catalog",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordRecommendation counts one served recommendation.
func (m *Manager) RecordRecommendation(returned int, took time.Duration) {
	if m == nil {
		return
	}
	m.recommendations.Inc()
	m.recommendationDuration.Observe(took.Seconds())
	m.matchesReturned.Observe(float64(returned))
}

func (m *Manager) RecordExplanation(outcome string) {
	if m == nil {
		return
	}
	m.explanations.WithLabelValues(outcome).Inc()
}

func (m *Manager) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.catalogCareers.Set(float64(n))
}

func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(took.Seconds())
}

func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the exposition format for this manager's registry.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
