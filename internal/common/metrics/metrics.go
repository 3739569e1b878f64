// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "candidate_evaluator"

// Job worker metrics, labelled by Zeebe task type.
var (
	WorkerJobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "jobs_completed_total",
		Help:      "Jobs completed, by task type.",
	}, []string{"task_type"})

	WorkerJobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "jobs_failed_total",
		Help:      "Jobs failed or thrown, by task type and error code.",
	}, []string{"task_type", "error_code"})

	// interviews take minutes, so the buckets reach 15m
	WorkerJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "job_duration_seconds",
		Help:      "Wall time spent in a job handler.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180, 420, 900},
	}, []string{"task_type"})

	WorkerJobsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "jobs_active",
		Help:      "Jobs currently being handled.",
	}, []string{"task_type"})
)

// Evaluation metrics.
var (
	PillarScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "evaluation",
		Name:      "pillar_score",
		Help:      "Pillar scores on the 0-100 scale.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	}, []string{"pillar"})

	PillarFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "evaluation",
		Name:      "pillar_failures_total",
		Help:      "Pillars that ended with status error.",
	}, []string{"pillar"})

	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "evaluation",
		Name:      "llm_fallbacks_total",
		Help:      "Scoring calls answered by the heuristic path instead of the model.",
	}, []string{"component"})

	QueueMessagesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intake",
		Name:      "messages_total",
		Help:      "Intake queue messages, by outcome.",
	}, []string{"outcome"})
)
