package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matcher_requests_total",
			Help: "Total matching requests by workflow mode",
		},
		[]string{"mode", "status"},
	)

	StageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matcher_pipeline_stage_total",
			Help: "Pipeline stage executions by outcome",
		},
		[]string{"stage", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "matcher_pipeline_stage_duration_seconds",
			Help: "Duration of pipeline stage executions in seconds",
		},
		[]string{"stage"},
	)

	ResumesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matcher_resumes_stored_total",
			Help: "Resume embeddings upserted into the vector store",
		},
	)

	MatchesEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matcher_matches_evaluated_total",
			Help: "Candidate match evaluations performed",
		},
	)
)

// ObserveStage records one stage execution with its duration and outcome.
func ObserveStage(stage string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StageTotal.WithLabelValues(stage, status).Inc()
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
