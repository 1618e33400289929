package backtest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// MonteCarloConfig configures the random-guess baseline
type MonteCarloConfig struct {
	Iterations int
	Seed       int64
}

// MonteCarloResult compares an observed hit rate with coin-flip guessing
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	Observed            float64            `json:"observed_accuracy"`
	MeanAccuracy        float64            `json:"mean_accuracy"`
	StdAccuracy         float64            `json:"std_accuracy"`
	Percentile95        float64            `json:"percentile_95"`
	PValue              float64            `json:"p_value"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
}

// RunMonteCarlo simulates guessers that pick each of total rounds with a fair
// coin and reports how often they match or beat correct hits. PValue is the
// share of simulations at or above the observed accuracy.
func RunMonteCarlo(ctx context.Context, correct, total int, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if total <= 0 {
		return MonteCarloResult{}, fmt.Errorf("total must be positive")
	}
	if correct < 0 || correct > total {
		return MonteCarloResult{}, fmt.Errorf("correct must be within [0, %d], got %d", total, correct)
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed))
	observed := float64(correct) / float64(total)
	distribution := make([]float64, cfg.Iterations)
	atOrAbove := 0

	for i := 0; i < cfg.Iterations; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return MonteCarloResult{}, err
			}
		}
		hits := 0
		for r := 0; r < total; r++ {
			if rng.Float64() < 0.5 {
				hits++
			}
		}
		distribution[i] = float64(hits) / float64(total)
		if hits >= correct {
			atOrAbove++
		}
	}

	sort.Float64s(distribution)
	mean, std := meanStd(distribution)
	return MonteCarloResult{
		Iterations:          cfg.Iterations,
		Observed:            observed,
		MeanAccuracy:        mean,
		StdAccuracy:         std,
		Percentile95:        percentile(distribution, 0.95),
		PValue:              float64(atOrAbove) / float64(cfg.Iterations),
		ConfidenceIntervals: confidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
	}, nil
}

// confidenceIntervals returns the width of the central interval per level.
// sorted must be in ascending order.
func confidenceIntervals(sorted []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64, len(levels))
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		results[fmt.Sprintf("%.0f%%", level*100)] = percentile(sorted, 1.0-p) - percentile(sorted, p)
	}
	return results
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// percentile reads the p-quantile of an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
