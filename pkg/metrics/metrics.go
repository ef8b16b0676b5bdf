package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Store metrics
	SessionsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scribe_sessions_total",
			Help: "Total number of recorded sessions",
		},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scribe_sessions_active",
			Help: "Number of sessions not yet ended",
		},
	)

	EventsAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_events_appended_total",
			Help: "Total number of events appended by category",
		},
		[]string{"category"},
	)

	// Ingest metrics
	BatchesIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scribe_batches_ingested_total",
			Help: "Total number of event batches accepted",
		},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scribe_batch_size_events",
			Help:    "Number of events per accepted batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
	)

	// Replay metrics
	ReplaysBuiltTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scribe_replays_built_total",
			Help: "Total number of replay payloads built",
		},
	)

	ReplayBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scribe_replay_build_duration_seconds",
			Help:    "Time taken to read and build one replay in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scribe_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(SessionsTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(EventsAppendedTotal)
	prometheus.MustRegister(BatchesIngestedTotal)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(ReplaysBuiltTotal)
	prometheus.MustRegister(ReplayBuildDuration)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
