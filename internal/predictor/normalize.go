package predictor

import (
	"strings"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// NormalizeHistory turns upstream rounds (newest first) into the oldest-first
// history the models expect, keeping at most limit of the most recent rounds.
// Rounds with an unknown outcome label are dropped.
func NormalizeHistory(rounds []models.GameRound, limit int) []models.Round {
	if limit <= 0 || limit > len(rounds) {
		limit = len(rounds)
	}
	history := make([]models.Round, 0, limit)
	for i := limit - 1; i >= 0; i-- {
		r := rounds[i]
		if !r.KetQua.Valid() {
			continue
		}
		history = append(history, models.Round{
			Session:    r.Phien,
			Result:     r.KetQua,
			TotalScore: float64(r.Tong),
		})
	}
	return history
}

// Pattern renders up to n of the most recent upstream rounds (newest first) as
// a T/X string with the oldest on the left.
func Pattern(rounds []models.GameRound, n int) string {
	if n <= 0 || n > len(rounds) {
		n = len(rounds)
	}
	var b strings.Builder
	b.Grow(n)
	for i := n - 1; i >= 0; i-- {
		b.WriteByte(rounds[i].KetQua.Letter())
	}
	return b.String()
}
