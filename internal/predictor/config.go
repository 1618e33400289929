// Package predictor implements the ensemble heuristic that predicts the next
// Tài/Xỉu outcome from an oldest-first history of rounds.
package predictor

import "time"

// Model names used as prediction log keys, weight keys and metric labels.
const (
	ModelTrend     = "trend"
	ModelShort     = "short"
	ModelMean      = "mean"
	ModelSwitch    = "switch"
	ModelBridge    = "bridge"
	ModelSecondary = "secondary"
)

// BankModels lists the logged, performance-weighted models in evaluation order.
var BankModels = []string{ModelTrend, ModelShort, ModelMean, ModelSwitch, ModelBridge}

var scoredModels = []string{ModelTrend, ModelShort, ModelMean, ModelSwitch, ModelBridge, ModelSecondary}

// minPatternHistory is the shortest history any model runs its own logic on.
const minPatternHistory = 3

// StreakConfig holds the break-probability policy of the streak detector.
type StreakConfig struct {
	Window int `mapstructure:"window"`

	LongStreak      int     `mapstructure:"long_streak"`
	LongBase        float64 `mapstructure:"long_base"`
	LongSwitchDiv   float64 `mapstructure:"long_switch_div"`
	LongImbalance   float64 `mapstructure:"long_imbalance"`
	LongCap         float64 `mapstructure:"long_cap"`
	MidStreak       int     `mapstructure:"mid_streak"`
	MidBase         float64 `mapstructure:"mid_base"`
	MidSwitchDiv    float64 `mapstructure:"mid_switch_div"`
	MidImbalance    float64 `mapstructure:"mid_imbalance"`
	MidCap          float64 `mapstructure:"mid_cap"`
	ChoppyStreak    int     `mapstructure:"choppy_streak"`
	ChoppySwitches  int     `mapstructure:"choppy_switches"`
	ChoppyBreakProb float64 `mapstructure:"choppy_break_prob"`
}

// GateConfig decides when a model follows or reverses a running streak
// instead of using its own pattern logic.
type GateConfig struct {
	StreakThreshold int     `mapstructure:"streak_threshold"`
	ReverseAbove    float64 `mapstructure:"reverse_above"`
}

// TrendConfig configures the recency-weighted trend model.
type TrendConfig struct {
	Gate            GateConfig `mapstructure:"gate"`
	Window          int        `mapstructure:"window"`
	Decay           float64    `mapstructure:"decay"`
	PatternWindow   int        `mapstructure:"pattern_window"`
	PatternLength   int        `mapstructure:"pattern_length"`
	PatternMinCount int        `mapstructure:"pattern_min_count"`
	ImbalanceRatio  float64    `mapstructure:"imbalance_ratio"`
}

// ShortPatternConfig configures the short repeating-pattern model.
type ShortPatternConfig struct {
	Gate            GateConfig `mapstructure:"gate"`
	Window          int        `mapstructure:"window"`
	PatternLength   int        `mapstructure:"pattern_length"`
	PatternMinCount int        `mapstructure:"pattern_min_count"`
}

// MeanDeviationConfig configures the count-deviation model.
type MeanDeviationConfig struct {
	Gate           GateConfig `mapstructure:"gate"`
	Window         int        `mapstructure:"window"`
	DeviationRatio float64    `mapstructure:"deviation_ratio"`
}

// RecentSwitchConfig configures the switch-counting model.
type RecentSwitchConfig struct {
	Gate     GateConfig `mapstructure:"gate"`
	Window   int        `mapstructure:"window"`
	Switches int        `mapstructure:"switches"`
}

// BridgeConfig configures the smart bridge-break model.
type BridgeConfig struct {
	Window             int     `mapstructure:"window"`
	PatternLength      int     `mapstructure:"pattern_length"`
	StablePatternCount int     `mapstructure:"stable_pattern_count"`
	RecentWindow       int     `mapstructure:"recent_window"`
	LongStreak         int     `mapstructure:"long_streak"`
	LongBoost          float64 `mapstructure:"long_boost"`
	LongCap            float64 `mapstructure:"long_cap"`
	VolatileStreak     int     `mapstructure:"volatile_streak"`
	VolatileDeviation  float64 `mapstructure:"volatile_deviation"`
	VolatileBoost      float64 `mapstructure:"volatile_boost"`
	VolatileCap        float64 `mapstructure:"volatile_cap"`
	PatternBoost       float64 `mapstructure:"pattern_boost"`
	PatternCap         float64 `mapstructure:"pattern_cap"`
	Decay              float64 `mapstructure:"decay"`
	Floor              float64 `mapstructure:"floor"`
	BreakThreshold     float64 `mapstructure:"break_threshold"`
}

// SecondaryConfig configures the rule-cascade heuristic.
type SecondaryConfig struct {
	RecentWindow         int     `mapstructure:"recent_window"`
	LongStreakWindow     int     `mapstructure:"long_streak_window"`
	LongStreakMinHistory int     `mapstructure:"long_streak_min_history"`
	HighScore            float64 `mapstructure:"high_score"`
	LowScore             float64 `mapstructure:"low_score"`
	RecentMargin         int     `mapstructure:"recent_margin"`
	OverallMargin        int     `mapstructure:"overall_margin"`
}

// PerformanceConfig bounds the per-model confidence multiplier.
type PerformanceConfig struct {
	Lookback      int     `mapstructure:"lookback"`
	MinMultiplier float64 `mapstructure:"min_multiplier"`
	MaxMultiplier float64 `mapstructure:"max_multiplier"`
}

// Weights are the base ensemble weights per model.
type Weights struct {
	Trend     float64 `mapstructure:"trend"`
	Short     float64 `mapstructure:"short"`
	Mean      float64 `mapstructure:"mean"`
	Switch    float64 `mapstructure:"switch"`
	Bridge    float64 `mapstructure:"bridge"`
	Secondary float64 `mapstructure:"secondary"`
}

// For returns the base weight of the named model, or 0 for unknown names.
func (w Weights) For(model string) float64 {
	switch model {
	case ModelTrend:
		return w.Trend
	case ModelShort:
		return w.Short
	case ModelMean:
		return w.Mean
	case ModelSwitch:
		return w.Switch
	case ModelBridge:
		return w.Bridge
	case ModelSecondary:
		return w.Secondary
	default:
		return 0
	}
}

// EnsembleConfig configures vote combination and the post adjustments.
type EnsembleConfig struct {
	MinHistory int     `mapstructure:"min_history"`
	Weights    Weights `mapstructure:"weights"`

	BadPatternWindow   int     `mapstructure:"bad_pattern_window"`
	BadPatternSwitches int     `mapstructure:"bad_pattern_switches"`
	BadPatternStreak   int     `mapstructure:"bad_pattern_streak"`
	Dampening          float64 `mapstructure:"dampening"`

	BalanceWindow int     `mapstructure:"balance_window"`
	BalanceHigh   int     `mapstructure:"balance_high"`
	BalanceLow    int     `mapstructure:"balance_low"`
	BalanceBoost  float64 `mapstructure:"balance_boost"`

	BridgeBoostThreshold float64 `mapstructure:"bridge_boost_threshold"`
	BridgeBoost          float64 `mapstructure:"bridge_boost"`
}

// LogConfig bounds the model prediction log.
type LogConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Config gathers every tunable of the predictor.
type Config struct {
	Streak      StreakConfig        `mapstructure:"streak"`
	Trend       TrendConfig         `mapstructure:"trend"`
	Short       ShortPatternConfig  `mapstructure:"short"`
	Mean        MeanDeviationConfig `mapstructure:"mean"`
	Switch      RecentSwitchConfig  `mapstructure:"switch"`
	Bridge      BridgeConfig        `mapstructure:"bridge"`
	Secondary   SecondaryConfig     `mapstructure:"secondary"`
	Performance PerformanceConfig   `mapstructure:"performance"`
	Ensemble    EnsembleConfig      `mapstructure:"ensemble"`
	Log         LogConfig           `mapstructure:"log"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Streak: StreakConfig{
			Window:          15,
			LongStreak:      8,
			LongBase:        0.6,
			LongSwitchDiv:   15,
			LongImbalance:   0.15,
			LongCap:         0.9,
			MidStreak:       5,
			MidBase:         0.35,
			MidSwitchDiv:    10,
			MidImbalance:    0.25,
			MidCap:          0.85,
			ChoppyStreak:    3,
			ChoppySwitches:  7,
			ChoppyBreakProb: 0.3,
		},
		Trend: TrendConfig{
			Gate:            GateConfig{StreakThreshold: 5, ReverseAbove: 0.75},
			Window:          15,
			Decay:           1.2,
			PatternWindow:   10,
			PatternLength:   4,
			PatternMinCount: 3,
			ImbalanceRatio:  0.25,
		},
		Short: ShortPatternConfig{
			Gate:            GateConfig{StreakThreshold: 4, ReverseAbove: 0.75},
			Window:          8,
			PatternLength:   3,
			PatternMinCount: 2,
		},
		Mean: MeanDeviationConfig{
			Gate:           GateConfig{StreakThreshold: 4, ReverseAbove: 0.75},
			Window:         12,
			DeviationRatio: 0.35,
		},
		Switch: RecentSwitchConfig{
			Gate:     GateConfig{StreakThreshold: 4, ReverseAbove: 0.75},
			Window:   10,
			Switches: 6,
		},
		Bridge: BridgeConfig{
			Window:             20,
			PatternLength:      3,
			StablePatternCount: 3,
			RecentWindow:       5,
			LongStreak:         6,
			LongBoost:          0.15,
			LongCap:            0.9,
			VolatileStreak:     4,
			VolatileDeviation:  3,
			VolatileBoost:      0.1,
			VolatileCap:        0.85,
			PatternBoost:       0.05,
			PatternCap:         0.8,
			Decay:              0.15,
			Floor:              0.15,
			BreakThreshold:     0.65,
		},
		Secondary: SecondaryConfig{
			RecentWindow:         5,
			LongStreakWindow:     6,
			LongStreakMinHistory: 9,
			HighScore:            10,
			LowScore:             8,
			RecentMargin:         1,
			OverallMargin:        2,
		},
		Performance: PerformanceConfig{
			Lookback:      10,
			MinMultiplier: 0.5,
			MaxMultiplier: 1.5,
		},
		Ensemble: EnsembleConfig{
			MinHistory: 5,
			Weights: Weights{
				Trend:     0.2,
				Short:     0.2,
				Mean:      0.25,
				Switch:    0.2,
				Bridge:    0.15,
				Secondary: 0.2,
			},
			BadPatternWindow:     15,
			BadPatternSwitches:   9,
			BadPatternStreak:     10,
			Dampening:            0.8,
			BalanceWindow:        10,
			BalanceHigh:          7,
			BalanceLow:           3,
			BalanceBoost:         0.15,
			BridgeBoostThreshold: 0.65,
			BridgeBoost:          0.2,
		},
		Log: LogConfig{
			Capacity: 500,
			TTL:      6 * time.Hour,
		},
	}
}
