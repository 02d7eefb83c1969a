// Package metrics declares the prometheus collectors of the pipeline and the prediction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace          = "mlops"
	PipelineSubsystem  = "pipeline"
	ServingSubsystem   = "serving"
	ResultSuccess      = "success"
	ResultFailure      = "failure"
	ResultSkipped      = "skipped"
	PromotionCompleted = "registered"
	PromotionAborted   = "aborted"
)

// Variables declared for metrics.
var (
	CandidateCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: PipelineSubsystem,
		Name:      "candidate_total",
		Help:      "Counter of the number of evaluated candidates.",
	}, []string{"result"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: PipelineSubsystem,
		Name:      "evaluation_duration_seconds",
		Help:      "Histogram of the time spent retraining and scoring a candidate.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	PromotionCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: PipelineSubsystem,
		Name:      "promotion_total",
		Help:      "Counter of the number of promotion cycles by final state.",
	}, []string{"state"})

	PredictCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: ServingSubsystem,
		Name:      "predict_total",
		Help:      "Counter of the number of predictions.",
	}, []string{"result"})

	PredictDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: ServingSubsystem,
		Name:      "predict_duration_seconds",
		Help:      "Histogram of the prediction latency.",
		Buckets:   prometheus.DefBuckets,
	})

	PredictedDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: ServingSubsystem,
		Name:      "predicted_trip_duration_minutes",
		Help:      "Histogram of the predicted trip durations.",
		Buckets:   prometheus.LinearBuckets(0, 5, 13),
	})
)

