// Package metrics defines ensemble-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ensemble counter vectors
var (
	ModelVotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "model_votes_total",
		Help:      "Total number of votes cast by each model",
	}, []string{"model", "vote"})

	EnsembleAdjustmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "ensemble_adjustments_total",
		Help:      "Total number of post-vote score adjustments by kind",
	}, []string{"adjustment"})
)

// Ensemble gauge vectors
var (
	ModelMultiplier = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "model_performance_multiplier",
		Help:      "Latest performance multiplier applied to each model's weight",
	}, []string{"model"})

	EnsembleScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "ensemble_score",
		Help:      "Final weighted score per side of the latest prediction",
	}, []string{"side"})

	BridgeBreakProbability = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "bridge_break_probability",
		Help:      "Break probability estimated by the bridge model on the latest run",
	})
)

// RecordModelVote records one model's vote.
func RecordModelVote(model, vote string) {
	ModelVotesTotal.WithLabelValues(model, vote).Inc()
}

// UpdateModelMultiplier sets the latest multiplier of a model.
func UpdateModelMultiplier(model string, multiplier float64) {
	ModelMultiplier.WithLabelValues(model).Set(multiplier)
}

// RecordAdjustment records an applied ensemble adjustment.
func RecordAdjustment(adjustment string) {
	EnsembleAdjustmentsTotal.WithLabelValues(adjustment).Inc()
}

// UpdateEnsembleScores sets the final scores of the latest run.
func UpdateEnsembleScores(tai, xiu, breakProb float64) {
	EnsembleScore.WithLabelValues("tai").Set(tai)
	EnsembleScore.WithLabelValues("xiu").Set(xiu)
	BridgeBreakProbability.Set(breakProb)
}
