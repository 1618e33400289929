package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-oracle/internal/datasource"
	"github.com/yourusername/taixiu-oracle/internal/logger"
	"github.com/yourusername/taixiu-oracle/internal/metrics"
	"github.com/yourusername/taixiu-oracle/internal/models"
	"github.com/yourusername/taixiu-oracle/internal/predictor"
)

// Snapshot is one computed prediction together with its ensemble breakdown.
type Snapshot struct {
	RunID       string                  `json:"runId"`
	Result      models.PredictionResult `json:"result"`
	Outcome     predictor.Outcome       `json:"outcome"`
	HistoryLen  int                     `json:"historyLen"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

// PredictionServiceConfig bounds how much upstream history is used.
type PredictionServiceConfig struct {
	// HistoryLimit is the number of most recent rounds fed to the ensemble.
	HistoryLimit int
	// PatternLength is the number of rounds rendered in the Pattern field.
	PatternLength int
}

// DefaultPredictionServiceConfig returns the standard 100/50 window.
func DefaultPredictionServiceConfig() PredictionServiceConfig {
	return PredictionServiceConfig{HistoryLimit: 100, PatternLength: 50}
}

// PredictionService owns the last seen round, the cached prediction and the
// ensemble (with its prediction log). It is safe for concurrent use; the
// ensemble run and cache update happen under one lock.
type PredictionService struct {
	source    datasource.HistorySource
	engine    *predictor.Engine
	cfg       PredictionServiceConfig
	logger    *logger.PredictionLogger
	validator *RoundValidator
	stats     *PredictionStats

	mu          sync.Mutex
	lastRoundID int64
	hasLast     bool
	cached      *Snapshot

	listenersMu sync.RWMutex
	listeners   []func(Snapshot)
}

// NewPredictionService creates a new prediction service
func NewPredictionService(
	source datasource.HistorySource,
	engine *predictor.Engine,
	cfg PredictionServiceConfig,
	log *logrus.Logger,
) *PredictionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	defaults := DefaultPredictionServiceConfig()
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaults.HistoryLimit
	}
	if cfg.PatternLength <= 0 {
		cfg.PatternLength = defaults.PatternLength
	}

	return &PredictionService{
		source:    source,
		engine:    engine,
		cfg:       cfg,
		logger:    logger.NewPredictionLogger(log),
		validator: NewRoundValidator(log),
		stats:     NewPredictionStats(),
	}
}

// OnUpdate registers fn to be called with every freshly computed snapshot.
// Callbacks run on the requesting goroutine after the lock is released.
func (s *PredictionService) OnUpdate(fn func(Snapshot)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Predict fetches the upstream history and returns the prediction for the
// round after the latest one. The ensemble only runs when a new round has
// appeared; otherwise the cached result is returned.
func (s *PredictionService) Predict(ctx context.Context) (models.PredictionResult, error) {
	rounds, err := s.source.FetchHistory(ctx)
	if err != nil {
		if errors.Is(err, datasource.ErrEmptyPayload) {
			s.stats.RecordEmptyPayload()
			return models.PredictionResult{}, fmt.Errorf("%w: %w", ErrNoData, err)
		}
		s.stats.RecordUpstreamError()
		s.logger.LogUpstreamFailure(s.source.Name(), err)
		return models.PredictionResult{}, fmt.Errorf("failed to fetch history: %w", err)
	}
	if len(rounds) == 0 {
		s.stats.RecordEmptyPayload()
		return models.PredictionResult{}, ErrNoData
	}

	snapshot, fresh, err := s.update(rounds)
	if err != nil {
		return models.PredictionResult{}, err
	}
	if fresh {
		s.notify(snapshot)
	}
	return snapshot.Result, nil
}

func (s *PredictionService) update(rounds []models.GameRound) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := rounds[0]
	if !s.hasLast || latest.Phien != s.lastRoundID {
		s.lastRoundID = latest.Phien
		s.hasLast = true
		snapshot := s.compute(rounds)
		s.cached = &snapshot
		return snapshot, true, nil
	}

	if s.cached == nil {
		return Snapshot{}, false, ErrNotReady
	}
	s.stats.RecordCacheHit()
	metrics.RecordCacheHit()
	s.logger.LogCachedResult(s.cached.Result.Phien)
	return *s.cached, false, nil
}

// compute runs the ensemble over the newest rounds. Callers hold s.mu.
func (s *PredictionService) compute(rounds []models.GameRound) Snapshot {
	start := time.Now()
	runID := uuid.NewString()
	latest := rounds[0]

	window := rounds
	if len(window) > s.cfg.HistoryLimit {
		window = window[:s.cfg.HistoryLimit]
	}
	if issues := s.validator.ValidateHistory(window); len(issues) > 0 {
		s.stats.RecordInvalidRounds(len(issues))
	}

	history := predictor.NormalizeHistory(rounds, s.cfg.HistoryLimit)
	outcome := s.engine.Predict(history)

	snapshot := Snapshot{
		RunID: runID,
		Result: models.PredictionResult{
			ID:            latest.ID,
			Phien:         latest.Phien,
			KetQua:        latest.KetQua,
			Tong:          latest.Tong,
			XucXac1:       latest.XucXac1,
			XucXac2:       latest.XucXac2,
			XucXac3:       latest.XucXac3,
			Pattern:       predictor.Pattern(rounds, s.cfg.PatternLength),
			PhienTiepTheo: latest.Phien + 1,
			DuDoan:        outcome.Prediction,
		},
		Outcome:     outcome,
		HistoryLen:  len(history),
		GeneratedAt: time.Now(),
	}

	s.stats.RecordRun(latest.Phien)
	s.record(snapshot, time.Since(start))
	return snapshot
}

func (s *PredictionService) record(snapshot Snapshot, elapsed time.Duration) {
	outcome := snapshot.Outcome
	metrics.RecordPrediction(models.VoteFor(outcome.Prediction).String(), snapshot.Result.Phien, elapsed.Seconds())
	metrics.UpdateEnsembleScores(outcome.ScoreTai, outcome.ScoreXiu, outcome.Bridge.BreakProb)
	for model, vote := range outcome.Votes {
		metrics.RecordModelVote(model, vote.String())
	}
	for model, multiplier := range outcome.Multipliers {
		metrics.UpdateModelMultiplier(model, multiplier)
	}
	for _, adj := range outcome.Adjustments {
		metrics.RecordAdjustment(adj)
		s.logger.LogAdjustment(snapshot.RunID, snapshot.Result.Phien, adj, outcome.ScoreTai, outcome.ScoreXiu)
	}

	s.logger.LogPrediction(
		snapshot.RunID,
		snapshot.Result.Phien,
		snapshot.Result.PhienTiepTheo,
		string(outcome.Prediction),
		outcome.ScoreTai,
		outcome.ScoreXiu,
		snapshot.HistoryLen,
		outcome.Reason(),
	)
}

func (s *PredictionService) notify(snapshot Snapshot) {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	for _, fn := range s.listeners {
		fn(snapshot)
	}
}

// Latest returns the cached snapshot without contacting upstream.
func (s *PredictionService) Latest() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil {
		return Snapshot{}, ErrNotReady
	}
	return *s.cached, nil
}

// Ready reports whether a prediction has been computed.
func (s *PredictionService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached != nil
}

// Stats returns the service counters.
func (s *PredictionService) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Reset forgets the last round, the cached prediction and the prediction log.
func (s *PredictionService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRoundID = 0
	s.hasLast = false
	s.cached = nil
	s.engine.Log().Reset()
	s.stats.Reset()
	s.logger.LogReset("requested")
}
