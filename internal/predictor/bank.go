package predictor

import (
	"fmt"
	"math"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// TrendModel weighs recent outcomes more heavily and bets against the
// weighted majority unless a repeating pattern is found.
type TrendModel struct {
	cfg    TrendConfig
	streak StreakConfig
}

// NewTrendModel creates the trend model.
func NewTrendModel(cfg TrendConfig, streak StreakConfig) *TrendModel {
	return &TrendModel{cfg: cfg, streak: streak}
}

// Name implements Model.
func (m *TrendModel) Name() string { return ModelTrend }

// Predict implements Model.
func (m *TrendModel) Predict(history []models.Round) models.Vote {
	if len(history) < minPatternHistory {
		return models.VoteNone
	}
	if vote, ok := streakGate(DetectStreak(history, m.streak), m.cfg.Gate); ok {
		return vote
	}

	window := models.Results(tail(history, m.cfg.Window))
	var taiWeighted, xiuWeighted float64
	for i, r := range window {
		w := math.Pow(m.cfg.Decay, float64(i))
		if r == models.ResultTai {
			taiWeighted += w
		} else {
			xiuWeighted += w
		}
	}

	recent := tail(window, m.cfg.PatternWindow)
	if pattern, count := mostCommonPattern(recent, m.cfg.PatternLength); count >= m.cfg.PatternMinCount {
		return patternVote(pattern, recent)
	}

	total := taiWeighted + xiuWeighted
	if total > 0 && math.Abs(taiWeighted-xiuWeighted)/total >= m.cfg.ImbalanceRatio {
		if taiWeighted > xiuWeighted {
			return models.VoteXiu
		}
		return models.VoteTai
	}
	return models.VoteFor(lastResult(window).Opposite())
}

// patternVote votes Tài when the repeated pattern ends differently from the
// window and Xỉu when they end the same.
func patternVote(pattern, window []models.Result) models.Vote {
	if lastResult(pattern) != lastResult(window) {
		return models.VoteTai
	}
	return models.VoteXiu
}

// ShortPatternModel looks for a short run repeated inside a small window.
type ShortPatternModel struct {
	cfg    ShortPatternConfig
	streak StreakConfig
}

// NewShortPatternModel creates the short-pattern model.
func NewShortPatternModel(cfg ShortPatternConfig, streak StreakConfig) *ShortPatternModel {
	return &ShortPatternModel{cfg: cfg, streak: streak}
}

// Name implements Model.
func (m *ShortPatternModel) Name() string { return ModelShort }

// Predict implements Model.
func (m *ShortPatternModel) Predict(history []models.Round) models.Vote {
	if len(history) < minPatternHistory {
		return models.VoteNone
	}
	if vote, ok := streakGate(DetectStreak(history, m.streak), m.cfg.Gate); ok {
		return vote
	}

	window := models.Results(tail(history, m.cfg.Window))
	if pattern, count := mostCommonPattern(window, m.cfg.PatternLength); count >= m.cfg.PatternMinCount {
		return patternVote(pattern, window)
	}
	return models.VoteFor(lastResult(window).Opposite())
}

// MeanDeviationModel bets on the minority side when one side clearly
// dominates the window and otherwise reverses the last result.
type MeanDeviationModel struct {
	cfg    MeanDeviationConfig
	streak StreakConfig
}

// NewMeanDeviationModel creates the mean-deviation model.
func NewMeanDeviationModel(cfg MeanDeviationConfig, streak StreakConfig) *MeanDeviationModel {
	return &MeanDeviationModel{cfg: cfg, streak: streak}
}

// Name implements Model.
func (m *MeanDeviationModel) Name() string { return ModelMean }

// Predict implements Model.
func (m *MeanDeviationModel) Predict(history []models.Round) models.Vote {
	if len(history) < minPatternHistory {
		return models.VoteNone
	}
	if vote, ok := streakGate(DetectStreak(history, m.streak), m.cfg.Gate); ok {
		return vote
	}

	window := models.Results(tail(history, m.cfg.Window))
	tai, xiu := countOutcomes(window)
	deviation := math.Abs(float64(tai-xiu)) / float64(len(window))
	if deviation < m.cfg.DeviationRatio {
		return models.VoteFor(lastResult(window).Opposite())
	}
	if xiu > tai {
		return models.VoteTai
	}
	return models.VoteXiu
}

// RecentSwitchModel counts alternations in the recent window.
//
// Both branches reverse the last result; the ensemble weights were tuned with
// this behavior, so the switch threshold is kept but has no effect.
type RecentSwitchModel struct {
	cfg    RecentSwitchConfig
	streak StreakConfig
}

// NewRecentSwitchModel creates the recent-switch model.
func NewRecentSwitchModel(cfg RecentSwitchConfig, streak StreakConfig) *RecentSwitchModel {
	return &RecentSwitchModel{cfg: cfg, streak: streak}
}

// Name implements Model.
func (m *RecentSwitchModel) Name() string { return ModelSwitch }

// Predict implements Model.
func (m *RecentSwitchModel) Predict(history []models.Round) models.Vote {
	if len(history) < minPatternHistory {
		return models.VoteNone
	}
	if vote, ok := streakGate(DetectStreak(history, m.streak), m.cfg.Gate); ok {
		return vote
	}

	window := models.Results(tail(history, m.cfg.Window))
	if countSwitches(window) >= m.cfg.Switches {
		return models.VoteFor(lastResult(window).Opposite())
	}
	return models.VoteFor(lastResult(window).Opposite())
}

// BridgeResult is the outcome of the bridge-break model.
type BridgeResult struct {
	Prediction models.Vote `json:"prediction"`
	BreakProb  float64     `json:"breakProb"`
	Reason     string      `json:"reason"`
}

// BridgeModel estimates whether the current bridge (streak) is about to break
// using score volatility and recurring patterns on top of the streak detector.
type BridgeModel struct {
	cfg    BridgeConfig
	streak StreakConfig
}

// NewBridgeModel creates the smart bridge-break model.
func NewBridgeModel(cfg BridgeConfig, streak StreakConfig) *BridgeModel {
	return &BridgeModel{cfg: cfg, streak: streak}
}

// Name implements Model.
func (m *BridgeModel) Name() string { return ModelBridge }

// Predict implements Model.
func (m *BridgeModel) Predict(history []models.Round) models.Vote {
	return m.Analyze(history).Prediction
}

// Analyze returns the vote together with the adjusted break probability.
func (m *BridgeModel) Analyze(history []models.Round) BridgeResult {
	if len(history) < minPatternHistory {
		return BridgeResult{Prediction: models.VoteNone, Reason: "not enough history to judge the bridge"}
	}

	info := DetectStreak(history, m.streak)
	rounds := tail(history, m.cfg.Window)
	window := models.Results(rounds)

	var sum float64
	for _, r := range rounds {
		sum += r.TotalScore
	}
	avg := sum / float64(len(rounds))
	var deviation float64
	for _, r := range rounds {
		deviation += math.Abs(r.TotalScore - avg)
	}
	deviation /= float64(len(rounds))

	pattern, count := mostCommonPattern(window, m.cfg.PatternLength)
	stable := count >= m.cfg.StablePatternCount
	recent := tail(window, m.cfg.RecentWindow)

	breakProb := info.BreakProb
	var reason string
	switch {
	case info.Streak >= m.cfg.LongStreak:
		breakProb = math.Min(breakProb+m.cfg.LongBoost, m.cfg.LongCap)
		reason = fmt.Sprintf("streak of %d %s is long, bridge likely to break", info.Streak, info.CurrentResult)
	case info.Streak >= m.cfg.VolatileStreak && deviation > m.cfg.VolatileDeviation:
		breakProb = math.Min(breakProb+m.cfg.VolatileBoost, m.cfg.VolatileCap)
		reason = fmt.Sprintf("score volatility %.1f is high, break chance rising", deviation)
	case stable && allEqual(recent, info.CurrentResult):
		breakProb = math.Min(breakProb+m.cfg.PatternBoost, m.cfg.PatternCap)
		reason = fmt.Sprintf("repeating pattern %s detected, bridge may break", patternKey(pattern))
	default:
		breakProb = math.Max(breakProb-m.cfg.Decay, m.cfg.Floor)
		reason = "no strong break signal, following the bridge"
	}

	prediction := models.VoteFor(info.CurrentResult)
	if breakProb > m.cfg.BreakThreshold {
		prediction = models.VoteFor(info.CurrentResult.Opposite())
	}
	return BridgeResult{Prediction: prediction, BreakProb: breakProb, Reason: reason}
}
