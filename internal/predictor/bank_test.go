package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

func defaultBank() map[string]Model {
	cfg := DefaultConfig()
	return map[string]Model{
		ModelTrend:  NewTrendModel(cfg.Trend, cfg.Streak),
		ModelShort:  NewShortPatternModel(cfg.Short, cfg.Streak),
		ModelMean:   NewMeanDeviationModel(cfg.Mean, cfg.Streak),
		ModelSwitch: NewRecentSwitchModel(cfg.Switch, cfg.Streak),
	}
}

func TestBankModels_Votes(t *testing.T) {
	bank := defaultBank()
	T, X := models.VoteTai, models.VoteXiu

	tests := []struct {
		name    string
		history string
		want    map[string]models.Vote
	}{
		{
			name:    "ride a fresh streak",
			history: "TTTTT",
			want:    map[string]models.Vote{ModelTrend: T, ModelShort: T, ModelMean: T, ModelSwitch: T},
		},
		{
			name:    "reverse a streak that is likely to break",
			history: "XTXTXTXTTTTTTTT",
			want:    map[string]models.Vote{ModelTrend: X, ModelShort: X, ModelMean: X, ModelSwitch: X},
		},
		{
			name:    "repeating pattern",
			history: "TXXTXXTX",
			want:    map[string]models.Vote{ModelTrend: T, ModelShort: X, ModelMean: T, ModelSwitch: T},
		},
		{
			name:    "no pattern reverses last",
			history: "TTXTXXXT",
			want:    map[string]models.Vote{ModelTrend: X, ModelShort: X, ModelMean: X, ModelSwitch: X},
		},
		{
			name:    "dominant side is countered by mean deviation",
			history: "TTTXTTTXTTXT",
			want:    map[string]models.Vote{ModelTrend: X, ModelShort: T, ModelMean: X, ModelSwitch: X},
		},
		{
			name:    "strict alternation",
			history: "TXTXTXTXTX",
			want:    map[string]models.Vote{ModelTrend: X, ModelShort: T, ModelMean: T, ModelSwitch: T},
		},
		{
			name:    "double pairs",
			history: "TTXXTTXXTX",
			want:    map[string]models.Vote{ModelTrend: T, ModelShort: T, ModelMean: T, ModelSwitch: T},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := rounds(tt.history)
			for name, want := range tt.want {
				assert.Equal(t, want, bank[name].Predict(h), "model %s", name)
			}
		})
	}
}

func TestBankModels_PatternAndDeviationBranches(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		model   Model
		history string
		want    models.Vote
	}{
		// A repeated pattern votes Tài when it ends unlike the window, Xỉu when alike.
		{name: "trend pattern ends unlike window", model: NewTrendModel(cfg.Trend, cfg.Streak), history: "TXTXTXTXT", want: models.VoteTai},
		{name: "trend pattern ends like window", model: NewTrendModel(cfg.Trend, cfg.Streak), history: "TXTXTXTXTX", want: models.VoteXiu},
		{name: "short pattern ends unlike window", model: NewShortPatternModel(cfg.Short, cfg.Streak), history: "TXTXTXTXTX", want: models.VoteTai},
		{name: "short pattern ends like window", model: NewShortPatternModel(cfg.Short, cfg.Streak), history: "TXXTXXTX", want: models.VoteXiu},
		// A large deviation bets on the minority side.
		{name: "mean deviation with Tài dominant", model: NewMeanDeviationModel(cfg.Mean, cfg.Streak), history: "TTTXTTTXTTXT", want: models.VoteXiu},
		{name: "mean deviation with Xỉu dominant", model: NewMeanDeviationModel(cfg.Mean, cfg.Streak), history: "XXXTXXXTXXTX", want: models.VoteTai},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.model.Predict(rounds(tt.history)))
		})
	}
}

func TestTrendModel_WeightedImbalance(t *testing.T) {
	cfg := DefaultConfig()
	m := NewTrendModel(cfg.Trend, cfg.Streak)

	// Recent Xỉu outweighs older Tài: bet on Tài.
	assert.Equal(t, models.VoteTai, m.Predict(rounds("TTXXXX")))
	// Balanced weights fall back to reversing the last result.
	assert.Equal(t, models.VoteXiu, m.Predict(rounds("XXTXTTTXXT")))
}

func TestBankModels_AbstainOnShortHistory(t *testing.T) {
	cfg := DefaultConfig()
	bridge := NewBridgeModel(cfg.Bridge, cfg.Streak)

	for _, h := range []string{"", "T", "TX"} {
		for name, m := range defaultBank() {
			assert.Equal(t, models.VoteNone, m.Predict(rounds(h)), "model %s history %q", name, h)
		}
		assert.Equal(t, models.VoteNone, bridge.Predict(rounds(h)))
	}
}

func TestBridgeModel_Analyze(t *testing.T) {
	cfg := DefaultConfig()
	m := NewBridgeModel(cfg.Bridge, cfg.Streak)

	tests := []struct {
		name      string
		history   string
		want      models.Vote
		breakProb float64
	}{
		{name: "stable pattern rides the bridge", history: "TTTTT", want: models.VoteTai, breakProb: 0.65},
		{name: "long streak breaks", history: "XTXTXTXTTTTTTTT", want: models.VoteXiu, breakProb: 0.9},
		{name: "no signal decays to floor", history: "TXXTXXTX", want: models.VoteXiu, breakProb: 0.15},
		{name: "no signal follows current", history: "TTXTXXXT", want: models.VoteTai, breakProb: 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.Analyze(rounds(tt.history))
			assert.Equal(t, tt.want, res.Prediction)
			assert.InDelta(t, tt.breakProb, res.BreakProb, 1e-9)
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestBridgeModel_VolatileScores(t *testing.T) {
	cfg := DefaultConfig()
	m := NewBridgeModel(cfg.Bridge, cfg.Streak)

	// Four Tài in a row with widely spread totals.
	h := rounds("XTXXTTTT", 3, 18, 4, 3, 18, 11, 18, 11)
	res := m.Analyze(h)
	require.Equal(t, 4, DetectStreak(h, cfg.Streak).Streak)
	assert.InDelta(t, 0.1, res.BreakProb, 1e-9)
	assert.Contains(t, res.Reason, "volatility")
	assert.Equal(t, models.VoteTai, res.Prediction)
}
