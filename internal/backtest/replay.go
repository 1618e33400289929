// Package backtest replays the ensemble over recorded history and compares
// its hit rate with a random baseline.
package backtest

import (
	"fmt"

	"github.com/yourusername/taixiu-oracle/internal/models"
	"github.com/yourusername/taixiu-oracle/internal/predictor"
)

const (
	// DefaultWarmup is the number of rounds seen before the first scored prediction.
	DefaultWarmup = 5
	// DefaultWindow matches the number of rounds the live service feeds the ensemble.
	DefaultWindow = 100
)

// Step is one replayed prediction.
type Step struct {
	Session   int64         `json:"session"`
	Predicted models.Result `json:"predicted"`
	Actual    models.Result `json:"actual"`
	Correct   bool          `json:"correct"`
	Random    bool          `json:"random,omitempty"`
}

// ModelStats is the hit rate of one model over the replay. Abstentions are not scored.
type ModelStats struct {
	Votes    int     `json:"votes"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Metrics summarizes a replay.
type Metrics struct {
	Total             int                   `json:"total"`
	Correct           int                   `json:"correct"`
	Accuracy          float64               `json:"accuracy"`
	LongestWinStreak  int                   `json:"longest_win_streak"`
	LongestLossStreak int                   `json:"longest_loss_streak"`
	RandomPicks       int                   `json:"random_picks"`
	PerModel          map[string]ModelStats `json:"per_model"`
}

// Result is the outcome of Replay.
type Result struct {
	Metrics Metrics `json:"metrics"`
	Steps   []Step  `json:"steps,omitempty"`
}

// Replay walks history (oldest first) forward: before each round past warmup
// the engine predicts it from at most window of the rounds already seen. The
// engine's prediction log is written as in live operation, so pass a fresh engine.
func Replay(engine *predictor.Engine, history []models.Round, warmup, window int) (Result, error) {
	if engine == nil {
		return Result{}, fmt.Errorf("engine is required")
	}
	if warmup <= 0 {
		warmup = DefaultWarmup
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if len(history) <= warmup {
		return Result{}, fmt.Errorf("need more than %d rounds to replay, got %d", warmup, len(history))
	}

	res := Result{
		Metrics: Metrics{PerModel: make(map[string]ModelStats)},
		Steps:   make([]Step, 0, len(history)-warmup),
	}
	var win, loss int
	for i := warmup; i < len(history); i++ {
		outcome := engine.Predict(history[max(0, i-window):i])
		actual := history[i].Result

		step := Step{
			Session:   history[i].Session,
			Predicted: outcome.Prediction,
			Actual:    actual,
			Correct:   outcome.Prediction == actual,
			Random:    outcome.Random,
		}
		res.Steps = append(res.Steps, step)

		m := &res.Metrics
		m.Total++
		if step.Random {
			m.RandomPicks++
		}
		if step.Correct {
			m.Correct++
			win++
			loss = 0
		} else {
			loss++
			win = 0
		}
		m.LongestWinStreak = max(m.LongestWinStreak, win)
		m.LongestLossStreak = max(m.LongestLossStreak, loss)

		for model, vote := range outcome.Votes {
			if vote == models.VoteNone {
				continue
			}
			stats := m.PerModel[model]
			stats.Votes++
			if vote.Matches(actual) {
				stats.Correct++
			}
			m.PerModel[model] = stats
		}
	}

	res.Metrics.Accuracy = ratio(res.Metrics.Correct, res.Metrics.Total)
	for model, stats := range res.Metrics.PerModel {
		stats.Accuracy = ratio(stats.Correct, stats.Votes)
		res.Metrics.PerModel[model] = stats
	}
	return res, nil
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
