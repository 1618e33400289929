package predictor

import (
	"fmt"
	"math/rand"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// SecondarySource tags predictions made by the rule cascade.
const SecondarySource = "secondary"

// SecondaryResult is the rule cascade's vote and the rule that produced it.
type SecondaryResult struct {
	Prediction models.Result `json:"prediction"`
	Reason     string        `json:"reason"`
	Source     string        `json:"source"`
	Random     bool          `json:"random,omitempty"`
}

// SecondaryModel is an independent cascade of small fixed rules. It is
// weighted at a constant rate in the ensemble and never logged.
type SecondaryModel struct {
	cfg SecondaryConfig
	rng *rand.Rand
}

// NewSecondaryModel creates the rule cascade. rng drives the random fallbacks.
func NewSecondaryModel(cfg SecondaryConfig, rng *rand.Rand) *SecondaryModel {
	return &SecondaryModel{cfg: cfg, rng: rng}
}

// Name implements Model.
func (m *SecondaryModel) Name() string { return ModelSecondary }

// Predict implements Model.
func (m *SecondaryModel) Predict(history []models.Round) models.Vote {
	return models.VoteFor(m.Analyze(history).Prediction)
}

// Analyze runs the cascade; the first matching rule wins.
func (m *SecondaryModel) Analyze(history []models.Round) SecondaryResult {
	if len(history) < minPatternHistory {
		return m.random("insufficient data, random pick")
	}

	results := models.Results(history)
	recentRounds := tail(history, m.cfg.RecentWindow)
	recent := models.Results(recentRounds)

	switch patternKey(tail(results, 3)) {
	case "TXT":
		return m.result(models.ResultXiu, "alternating 1T1X pattern, next should be Xỉu")
	case "XTX":
		return m.result(models.ResultTai, "alternating 1X1T pattern, next should be Tài")
	}

	if len(results) >= 4 {
		switch patternKey(tail(results, 4)) {
		case "TTXX":
			return m.result(models.ResultTai, "2T2X pattern, next should be Tài")
		case "XXTT":
			return m.result(models.ResultXiu, "2X2T pattern, next should be Xỉu")
		}
	}

	if len(history) >= m.cfg.LongStreakMinHistory {
		last := tail(results, m.cfg.LongStreakWindow)
		if allEqual(last, models.ResultTai) {
			return m.result(models.ResultXiu, fmt.Sprintf("Tài streak of %d is too long, expecting Xỉu", len(last)))
		}
		if allEqual(last, models.ResultXiu) {
			return m.result(models.ResultTai, fmt.Sprintf("Xỉu streak of %d is too long, expecting Tài", len(last)))
		}
	}

	var sum float64
	for _, r := range recentRounds {
		sum += r.TotalScore
	}
	avg := sum / float64(len(recentRounds))
	if avg > m.cfg.HighScore {
		return m.result(models.ResultTai, fmt.Sprintf("high average score (%.1f), expecting Tài", avg))
	}
	if avg < m.cfg.LowScore {
		return m.result(models.ResultXiu, fmt.Sprintf("low average score (%.1f), expecting Xỉu", avg))
	}

	tai, xiu := countOutcomes(recent)
	if tai > xiu+m.cfg.RecentMargin {
		return m.result(models.ResultXiu, fmt.Sprintf("Tài dominates recent rounds (%d/%d), expecting Xỉu", tai, len(recent)))
	}
	if xiu > tai+m.cfg.RecentMargin {
		return m.result(models.ResultTai, fmt.Sprintf("Xỉu dominates recent rounds (%d/%d), expecting Tài", xiu, len(recent)))
	}

	overallTai, overallXiu := countOutcomes(results)
	if overallTai > overallXiu+m.cfg.OverallMargin {
		return m.result(models.ResultXiu, "more Tài overall, expecting Xỉu")
	}
	if overallXiu > overallTai+m.cfg.OverallMargin {
		return m.result(models.ResultTai, "more Xỉu overall, expecting Tài")
	}
	return m.random("balanced history, random pick")
}

func (m *SecondaryModel) result(r models.Result, reason string) SecondaryResult {
	return SecondaryResult{Prediction: r, Reason: reason, Source: SecondarySource}
}

func (m *SecondaryModel) random(reason string) SecondaryResult {
	return SecondaryResult{
		Prediction: randomResult(m.rng),
		Reason:     reason,
		Source:     SecondarySource,
		Random:     true,
	}
}

// randomResult draws Tài or Xỉu with equal probability.
func randomResult(rng *rand.Rand) models.Result {
	if rng.Float64() < 0.5 {
		return models.ResultTai
	}
	return models.ResultXiu
}
