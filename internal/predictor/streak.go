package predictor

import (
	"math"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// StreakInfo describes the trailing run of identical outcomes.
type StreakInfo struct {
	Streak        int           `json:"streak"`
	CurrentResult models.Result `json:"currentResult,omitempty"`
	BreakProb     float64       `json:"breakProb"`
}

// DetectStreak measures the trailing streak and estimates the probability that
// it ends next round from the volatility of the recent window.
func DetectStreak(history []models.Round, cfg StreakConfig) StreakInfo {
	if len(history) == 0 {
		return StreakInfo{}
	}

	current := history[len(history)-1].Result
	streak := 1
	for i := len(history) - 2; i >= 0; i-- {
		if history[i].Result != current {
			break
		}
		streak++
	}

	window := models.Results(tail(history, cfg.Window))
	switches := countSwitches(window)
	tai, xiu := countOutcomes(window)
	imbalance := math.Abs(float64(tai-xiu)) / float64(len(window))

	return StreakInfo{
		Streak:        streak,
		CurrentResult: current,
		BreakProb:     breakProbability(streak, switches, imbalance, cfg),
	}
}

// breakProbability maps a streak length and window volatility to the chance
// the streak ends next round. It never decreases as the streak grows.
func breakProbability(streak, switches int, imbalance float64, cfg StreakConfig) float64 {
	switch {
	case streak >= cfg.LongStreak:
		return math.Min(cfg.LongBase+float64(switches)/cfg.LongSwitchDiv+imbalance*cfg.LongImbalance, cfg.LongCap)
	case streak >= cfg.MidStreak:
		return math.Min(cfg.MidBase+float64(switches)/cfg.MidSwitchDiv+imbalance*cfg.MidImbalance, cfg.MidCap)
	case streak >= cfg.ChoppyStreak && switches >= cfg.ChoppySwitches:
		return cfg.ChoppyBreakProb
	}
	return 0
}

// isBadPattern flags histories that are either very choppy or stuck in a very
// long streak, where every model is less trustworthy.
func isBadPattern(history []models.Round, info StreakInfo, cfg EnsembleConfig) bool {
	if len(history) < minPatternHistory {
		return false
	}
	switches := countSwitches(models.Results(tail(history, cfg.BadPatternWindow)))
	return switches >= cfg.BadPatternSwitches || info.Streak >= cfg.BadPatternStreak
}
