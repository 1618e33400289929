package predictor

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// Adjustment names reported in Outcome.Adjustments.
const (
	AdjustBadPattern  = "bad_pattern_dampening"
	AdjustTooManyTai  = "balance_favor_xiu"
	AdjustTooManyXiu  = "balance_favor_tai"
	AdjustBridgeBoost = "bridge_boost"
)

// Outcome is the ensemble decision plus everything that went into it.
type Outcome struct {
	Prediction  models.Result          `json:"prediction"`
	Session     int64                  `json:"session"`
	ScoreTai    float64                `json:"scoreTai"`
	ScoreXiu    float64                `json:"scoreXiu"`
	Votes       map[string]models.Vote `json:"votes"`
	Multipliers map[string]float64     `json:"multipliers"`
	Weights     map[string]float64     `json:"weights"`
	Streak      StreakInfo             `json:"streak"`
	Bridge      BridgeResult           `json:"bridge"`
	Secondary   SecondaryResult        `json:"secondary"`
	Adjustments []string               `json:"adjustments,omitempty"`
	// Random is set when the final label was drawn because there was no history.
	Random bool `json:"random,omitempty"`
}

// Reason joins the secondary and bridge explanations.
func (o Outcome) Reason() string {
	return fmt.Sprintf("%s | %s", o.Secondary.Reason, o.Bridge.Reason)
}

// Engine runs the model bank and combines the votes. It owns the prediction
// log and the random source and is not safe for concurrent use.
type Engine struct {
	cfg       Config
	rng       *rand.Rand
	log       PredictionLog
	bank      []Model
	bridge    *BridgeModel
	secondary *SecondaryModel
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRand injects the random source used by the random fallbacks.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithSeed seeds the random source deterministically.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithLog replaces the default bounded prediction log.
func WithLog(log PredictionLog) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine builds the bank from cfg.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = NewBoundedLog(cfg.Log.Capacity, cfg.Log.TTL)
	}

	e.bridge = NewBridgeModel(cfg.Bridge, cfg.Streak)
	e.bank = []Model{
		NewTrendModel(cfg.Trend, cfg.Streak),
		NewShortPatternModel(cfg.Short, cfg.Streak),
		NewMeanDeviationModel(cfg.Mean, cfg.Streak),
		NewRecentSwitchModel(cfg.Switch, cfg.Streak),
	}
	e.secondary = NewSecondaryModel(cfg.Secondary, e.rng)
	return e
}

// Log exposes the prediction log.
func (e *Engine) Log() PredictionLog {
	return e.log
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Predict runs every model over history (oldest first), records the bank's
// votes under the latest session and returns the weighted decision.
func (e *Engine) Predict(history []models.Round) Outcome {
	if len(history) == 0 {
		return Outcome{
			Prediction: randomResult(e.rng),
			Random:     true,
			Secondary:  SecondaryResult{Reason: "no history, random pick", Source: SecondarySource, Random: true},
		}
	}

	ens := e.cfg.Ensemble
	session := history[len(history)-1].Session
	out := Outcome{
		Session:     session,
		Votes:       make(map[string]models.Vote, len(BankModels)+1),
		Multipliers: make(map[string]float64, len(BankModels)+1),
		Weights:     make(map[string]float64, len(BankModels)+1),
		Streak:      DetectStreak(history, e.cfg.Streak),
	}

	if len(history) < ens.MinHistory {
		reverse := reverseLast(history)
		for _, m := range e.bank {
			out.Votes[m.Name()] = reverse
		}
		out.Bridge = BridgeResult{Prediction: reverse, Reason: "short history, reversing the last result"}
	} else {
		for _, m := range e.bank {
			out.Votes[m.Name()] = m.Predict(history)
		}
		out.Bridge = e.bridge.Analyze(history)
	}
	out.Votes[ModelBridge] = out.Bridge.Prediction
	out.Secondary = e.secondary.Analyze(history)
	out.Votes[ModelSecondary] = models.VoteFor(out.Secondary.Prediction)

	for _, name := range BankModels {
		e.log.Record(name, session, out.Votes[name])
	}

	for _, name := range BankModels {
		multiplier := EvaluatePerformance(history, name, e.log, e.cfg.Performance)
		out.Multipliers[name] = multiplier
		out.Weights[name] = ens.Weights.For(name) * multiplier
	}
	out.Multipliers[ModelSecondary] = 1.0
	out.Weights[ModelSecondary] = ens.Weights.Secondary

	for _, name := range scoredModels {
		switch out.Votes[name] {
		case models.VoteTai:
			out.ScoreTai += out.Weights[name]
		case models.VoteXiu:
			out.ScoreXiu += out.Weights[name]
		}
	}

	if isBadPattern(history, out.Streak, ens) {
		out.ScoreTai *= ens.Dampening
		out.ScoreXiu *= ens.Dampening
		out.Adjustments = append(out.Adjustments, AdjustBadPattern)
	}

	tai, _ := countOutcomes(models.Results(tail(history, ens.BalanceWindow)))
	switch {
	case tai >= ens.BalanceHigh:
		out.ScoreXiu += ens.BalanceBoost
		out.Adjustments = append(out.Adjustments, AdjustTooManyTai)
	case tai <= ens.BalanceLow:
		out.ScoreTai += ens.BalanceBoost
		out.Adjustments = append(out.Adjustments, AdjustTooManyXiu)
	}

	if out.Bridge.BreakProb > ens.BridgeBoostThreshold {
		if out.Bridge.Prediction == models.VoteTai {
			out.ScoreTai += ens.BridgeBoost
		} else {
			out.ScoreXiu += ens.BridgeBoost
		}
		out.Adjustments = append(out.Adjustments, AdjustBridgeBoost)
	}

	out.Prediction = models.ResultXiu
	if out.ScoreTai > out.ScoreXiu {
		out.Prediction = models.ResultTai
	}
	return out
}
