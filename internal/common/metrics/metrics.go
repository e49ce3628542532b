// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation outcomes.
const (
	OutcomeMatched = "matched"
	OutcomeNoMatch = "no_match"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
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
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	EligibilityEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_evaluations_total",
			Help: "Eligibility evaluations by entry point and outcome",
		},
		[]string{"entry_point", "outcome"},
	)

	EligibilityReadinessScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eligibility_readiness_score",
			Help:    "Distribution of readiness scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	EligibilityMatchCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eligibility_match_count",
			Help:    "Number of programs returned per evaluation",
			Buckets: []float64{0, 1, 2, 3},
		},
	)

	EligibilityCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_cache_lookups_total",
			Help: "Result cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)
)

// ObserveEvaluation records a successful evaluation.
func ObserveEvaluation(entryPoint string, readinessScore, matchCount int) {
	outcome := OutcomeMatched
	if matchCount == 0 {
		outcome = OutcomeNoMatch
	}
	EligibilityEvaluations.WithLabelValues(entryPoint, outcome).Inc()
	EligibilityReadinessScore.Observe(float64(readinessScore))
	EligibilityMatchCount.Observe(float64(matchCount))
}
