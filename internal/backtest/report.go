package backtest

import (
	"fmt"
	"sort"
	"strings"
)

// Report bundles a replay with its random baseline.
type Report struct {
	Replay   Metrics          `json:"replay"`
	Baseline MonteCarloResult `json:"baseline"`
}

// String renders a short human readable summary.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rounds: %d  correct: %d  accuracy: %.2f%%\n", r.Replay.Total, r.Replay.Correct, r.Replay.Accuracy*100)
	fmt.Fprintf(&b, "longest win streak: %d  longest loss streak: %d\n", r.Replay.LongestWinStreak, r.Replay.LongestLossStreak)
	fmt.Fprintf(&b, "coin-flip baseline: mean %.2f%%  p95 %.2f%%  p-value %.3f\n",
		r.Baseline.MeanAccuracy*100, r.Baseline.Percentile95*100, r.Baseline.PValue)

	names := make([]string, 0, len(r.Replay.PerModel))
	for name := range r.Replay.PerModel {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := r.Replay.PerModel[name]
		fmt.Fprintf(&b, "  %-10s %4d votes  %.2f%%\n", name, s.Votes, s.Accuracy*100)
	}
	return b.String()
}
