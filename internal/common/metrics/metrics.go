// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	CacheHit      = "hit"
	CacheMiss     = "miss"
	CacheFallback = "fallback"
)

// DefaultBuckets are latency buckets in seconds; scoring calls are expected in the low milliseconds.
var DefaultBuckets = []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

var (
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grant_cache_requests_total",
			Help: "Aggregate cache lookups by group and outcome",
		},
		[]string{"group", "result"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grant_cache_invalidations_total",
			Help: "Aggregate cache invalidations by group",
		},
		[]string{"group"},
	)

	EngineOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grant_engine_operation_duration_seconds",
			Help:    "Duration of engine operations in seconds",
			Buckets: DefaultBuckets,
		},
		[]string{"operation"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: DefaultBuckets,
		},
		[]string{"task_type"},
	)
)
