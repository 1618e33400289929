package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

func TestEvaluatePerformance(t *testing.T) {
	cfg := DefaultConfig().Performance
	history := rounds("TTTTT")

	logVotes := func(vote models.Vote, sessions ...int64) PredictionLog {
		l := NewBoundedLog(0, 0)
		for _, s := range sessions {
			l.Record(ModelTrend, s, vote)
		}
		return l
	}

	tests := []struct {
		name    string
		history []models.Round
		log     PredictionLog
		want    float64
	}{
		{name: "nil log", history: history, log: nil, want: 1.0},
		{name: "model never logged", history: history, log: logVotes(models.VoteTai, 1), want: 1.0},
		{name: "history too short", history: rounds("T"), log: logVotes(models.VoteTai, 1), want: 1.0},
		{name: "all correct clamps to max", history: history, log: logVotes(models.VoteTai, 1, 2, 3, 4), want: 1.5},
		{name: "all wrong clamps to min", history: history, log: logVotes(models.VoteXiu, 1, 2, 3, 4), want: 0.5},
		{name: "half right is neutral", history: history, log: logVotes(models.VoteTai, 3, 4), want: 1.0},
		{name: "abstentions count as misses", history: history, log: logVotes(models.VoteNone, 1, 2, 3, 4), want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := ModelTrend
			if tt.name == "model never logged" {
				model = ModelShort
			}
			got := EvaluatePerformance(tt.history, model, tt.log, cfg)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluatePerformance_LookbackWindow(t *testing.T) {
	cfg := DefaultConfig().Performance
	history := rounds("TTTTTTTTTTTTTTT")

	l := NewBoundedLog(0, 0)
	// Only the 10 most recent evaluations count: sessions 5..14 predict 6..15.
	for s := int64(1); s <= 4; s++ {
		l.Record(ModelMean, s, models.VoteXiu)
	}
	for s := int64(5); s <= 14; s++ {
		l.Record(ModelMean, s, models.VoteTai)
	}

	assert.InDelta(t, 1.5, EvaluatePerformance(history, ModelMean, l, cfg), 1e-9)

	// 6 of 10 right: 1 + (6-5)/5.
	for s := int64(5); s <= 8; s++ {
		l.Record(ModelMean, s, models.VoteXiu)
	}
	assert.InDelta(t, 1.2, EvaluatePerformance(history, ModelMean, l, cfg), 1e-9)
}
