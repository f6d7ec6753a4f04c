package mdp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SolverMetrics exposes solve progress as Prometheus collectors. Counters
// are updated once per checkpoint, never from the hot loop.
type SolverMetrics struct {
	StatesResolved     *prometheus.CounterVec
	ActionsEvaluated   prometheus.Counter
	OutcomesEvaluated  prometheus.Counter
	CheckpointDuration prometheus.Histogram
	ResidentBytes      prometheus.Gauge
	CheckpointsLeft    prometheus.Gauge
}

// NewSolverMetrics creates the collectors and registers them with reg. A nil
// reg creates unregistered collectors.
func NewSolverMetrics(reg prometheus.Registerer) *SolverMetrics {
	f := promauto.With(reg)
	return &SolverMetrics{
		StatesResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trialmdp_states_resolved_total",
			Help: "States given a result record, by solver phase",
		}, []string{"phase"}),
		ActionsEvaluated: f.NewCounter(prometheus.CounterOpts{
			Name: "trialmdp_actions_evaluated_total",
			Help: "Candidate actions scored during induction",
		}),
		OutcomesEvaluated: f.NewCounter(prometheus.CounterOpts{
			Name: "trialmdp_outcomes_evaluated_total",
			Help: "Next-block outcomes with non-zero probability visited during induction",
		}),
		CheckpointDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trialmdp_checkpoint_duration_seconds",
			Help:    "Wall time to resolve one checkpoint",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12), // 0.1ms to ~7min
		}),
		ResidentBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "trialmdp_results_resident_bytes",
			Help: "Estimated memory held by allocated results shards",
		}),
		CheckpointsLeft: f.NewGauge(prometheus.GaugeOpts{
			Name: "trialmdp_checkpoints_remaining",
			Help: "Checkpoints not yet resolved",
		}),
	}
}
