// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "boards"

var (
	// PublishTotal counts per-record publish attempts by result (succeeded, failed).
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Total number of article publish attempts",
		},
		[]string{"result"},
	)

	// CacheRequests counts read-cache lookups by query kind and result (hit, miss, error).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Total number of read cache lookups",
		},
		[]string{"kind", "result"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of generation calls in seconds",
			Buckets:   []float64{1, 5, 10, 20, 30, 45, 60, 90, 120, 180},
		},
		[]string{"mode", "result"},
	)

	// GenerationJobs tracks background generation jobs currently in each status.
	GenerationJobs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_jobs",
			Help:      "Number of generation jobs by status",
		},
		[]string{"status"},
	)
)

// RecordPublish records the outcome of one publish attempt.
func RecordPublish(succeeded bool) {
	if succeeded {
		PublishTotal.WithLabelValues("succeeded").Inc()
		return
	}
	PublishTotal.WithLabelValues("failed").Inc()
}

// MoveJob shifts one job between status gauges. An empty from only increments.
func MoveJob(from, to string) {
	if from != "" {
		GenerationJobs.WithLabelValues(from).Dec()
	}
	GenerationJobs.WithLabelValues(to).Inc()
}
