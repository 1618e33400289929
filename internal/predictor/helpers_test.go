package predictor

import (
	"github.com/yourusername/taixiu-oracle/internal/models"
)

// rounds builds an oldest-first history from a T/X string. Sessions start at
// 1; Tài rounds total 12 and Xỉu rounds total 7 unless scores are given.
func rounds(pattern string, scores ...float64) []models.Round {
	out := make([]models.Round, len(pattern))
	for i, c := range pattern {
		r := models.Round{Session: int64(i + 1)}
		if c == 'T' {
			r.Result = models.ResultTai
			r.TotalScore = 12
		} else {
			r.Result = models.ResultXiu
			r.TotalScore = 7
		}
		if i < len(scores) {
			r.TotalScore = scores[i]
		}
		out[i] = r
	}
	return out
}

func repeatScore(score float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = score
	}
	return out
}
