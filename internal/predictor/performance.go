package predictor

import (
	"math"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// EvaluatePerformance scores a model's recent hit rate as a weight multiplier.
//
// For each of the last lookback rounds, the vote logged for the session before
// it is compared with that round's actual result. Half right gives 1.0; the
// result is clamped to [MinMultiplier, MaxMultiplier]. Sessions with no logged
// vote count as misses.
func EvaluatePerformance(history []models.Round, model string, log PredictionLog, cfg PerformanceConfig) float64 {
	if log == nil || !log.Has(model) || len(history) < 2 {
		return 1.0
	}

	lookback := cfg.Lookback
	if lookback > len(history)-1 {
		lookback = len(history) - 1
	}
	if lookback <= 0 {
		return 1.0
	}

	correct := 0
	for i := 0; i < lookback; i++ {
		predictedFor := history[len(history)-(i+2)].Session
		actual := history[len(history)-(i+1)].Result
		if vote, ok := log.Lookup(model, predictedFor); ok && vote.Matches(actual) {
			correct++
		}
	}

	half := float64(lookback) / 2
	score := 1.0 + (float64(correct)-half)/half
	return math.Max(cfg.MinMultiplier, math.Min(cfg.MaxMultiplier, score))
}
