package predictor

import (
	"strings"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// Model is a single heuristic in the bank.
type Model interface {
	Name() string
	// Predict returns VoteNone when history is too short to run the model.
	Predict(history []models.Round) models.Vote
}

// tail returns the last n elements of s (all of s when shorter).
func tail[T any](s []T, n int) []T {
	if n <= 0 {
		return s[:0]
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// countSwitches counts adjacent pairs with differing outcomes.
func countSwitches(results []models.Result) int {
	switches := 0
	for i := 1; i < len(results); i++ {
		if results[i] != results[i-1] {
			switches++
		}
	}
	return switches
}

// countOutcomes returns the number of Tài and Xỉu results.
func countOutcomes(results []models.Result) (tai, xiu int) {
	for _, r := range results {
		switch r {
		case models.ResultTai:
			tai++
		case models.ResultXiu:
			xiu++
		}
	}
	return tai, xiu
}

// allEqual reports whether every result equals want. Empty input is false.
func allEqual(results []models.Result, want models.Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r != want {
			return false
		}
	}
	return true
}

// mostCommonPattern finds the most frequent run of length consecutive results.
// Ties go to the pattern seen first. count is 0 when no window fits.
func mostCommonPattern(results []models.Result, length int) (pattern []models.Result, count int) {
	if length <= 0 || len(results) < length {
		return nil, 0
	}
	counts := make(map[string]int)
	first := make(map[string]int)
	order := make([]string, 0, len(results)-length+1)
	for i := 0; i+length <= len(results); i++ {
		key := patternKey(results[i : i+length])
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			first[key] = i
		}
		counts[key]++
	}
	best := ""
	for _, key := range order {
		if counts[key] > count {
			best, count = key, counts[key]
		}
	}
	start := first[best]
	return results[start : start+length], count
}

func patternKey(results []models.Result) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteByte(r.Letter())
	}
	return b.String()
}

// lastResult returns the most recent outcome of a non-empty slice.
func lastResult(results []models.Result) models.Result {
	return results[len(results)-1]
}

// reverseLast votes for the opposite of the most recent round.
func reverseLast(history []models.Round) models.Vote {
	return models.VoteFor(history[len(history)-1].Result.Opposite())
}

// streakGate applies the shared long-streak rule: reverse the streak when the
// break probability is high, otherwise ride it. ok is false when the streak is
// below the gate threshold and the model should use its own logic.
func streakGate(info StreakInfo, gate GateConfig) (vote models.Vote, ok bool) {
	if info.Streak < gate.StreakThreshold || !info.CurrentResult.Valid() {
		return models.VoteNone, false
	}
	if info.BreakProb > gate.ReverseAbove {
		return models.VoteFor(info.CurrentResult.Opposite()), true
	}
	return models.VoteFor(info.CurrentResult), true
}
