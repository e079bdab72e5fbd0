package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	attemptTransitions  *prometheus.CounterVec
	resultsPublished    *prometheus.CounterVec
	publicationLag      prometheus.Histogram
	publicationQueueLen prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors of the exam engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		attemptTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_attempt_transitions_total",
			Help: "Attempt state transitions by name.",
		}, []string{"transition"})

		resultsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_results_published_total",
			Help: "Published exam results by outcome.",
		}, []string{"outcome"})

		publicationLag = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exam_publication_lag_seconds",
			Help:    "Delay between a result becoming due and its publication.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900},
		})

		publicationQueueLen = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exam_publication_queue_length",
			Help: "Attempts waiting in the publication queue.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			attemptTransitions,
			resultsPublished,
			publicationLag,
			publicationQueueLen,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// AttemptTransitions exposes the attempt transition counter.
func AttemptTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptTransitions
}

// ResultsPublished exposes the publication counter.
func ResultsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return resultsPublished
}

// PublicationLag exposes the publication lag histogram.
func PublicationLag() prometheus.Histogram {
	RegisterMetrics()
	return publicationLag
}

// PublicationQueueLength exposes the queue length gauge.
func PublicationQueueLength() prometheus.Gauge {
	RegisterMetrics()
	return publicationQueueLen
}
