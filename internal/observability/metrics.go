package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videotube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ToggleTotal counts toggle operations by edge kind and outcome.
	ToggleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_toggle_total",
		Help: "Total number of relationship toggles by edge kind and result",
	}, []string{"edge", "result"})

	// ToggleRetries counts retried toggle attempts caused by store contention.
	ToggleRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_toggle_retries_total",
		Help: "Total number of toggle attempts retried after contention",
	}, []string{"edge"})

	// ViewIncrementFailures counts swallowed view-counter failures by reason.
	ViewIncrementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_view_increment_failures_total",
		Help: "Total number of view increments that failed or hit a deleted video",
	}, []string{"reason"})

	// EventPublishFailures counts engagement events that could not be published.
	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videotube_event_publish_failures_total",
		Help: "Total number of engagement events that failed to publish",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
