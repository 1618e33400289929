package service

import (
	"sync"
	"time"
)

// PredictionStats tracks counters of the prediction service since start or
// the last reset.
type PredictionStats struct {
	mu             sync.RWMutex
	StartTime      time.Time
	Runs           int
	CacheHits      int
	UpstreamErrors int
	EmptyPayloads  int
	InvalidRounds  int
	LastRunAt      time.Time
	LastSession    int64
}

// NewPredictionStats creates a new stats tracker
func NewPredictionStats() *PredictionStats {
	return &PredictionStats{StartTime: time.Now()}
}

// Reset resets all counters
func (s *PredictionStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.StartTime = time.Now()
	s.Runs = 0
	s.CacheHits = 0
	s.UpstreamErrors = 0
	s.EmptyPayloads = 0
	s.InvalidRounds = 0
	s.LastRunAt = time.Time{}
	s.LastSession = 0
}

// RecordRun records a fresh ensemble run
func (s *PredictionStats) RecordRun(session int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Runs++
	s.LastRunAt = time.Now()
	s.LastSession = session
}

// RecordCacheHit records a request answered from the cache
func (s *PredictionStats) RecordCacheHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CacheHits++
}

// RecordUpstreamError records a failed fetch
func (s *PredictionStats) RecordUpstreamError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpstreamErrors++
}

// RecordEmptyPayload records an empty or non-array upstream payload
func (s *PredictionStats) RecordEmptyPayload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EmptyPayloads++
}

// RecordInvalidRounds records rounds flagged by the round validator
func (s *PredictionStats) RecordInvalidRounds(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InvalidRounds += n
}

// StatsSnapshot is a copy of the counters safe to serialize.
type StatsSnapshot struct {
	Uptime         string    `json:"uptime"`
	Runs           int       `json:"runs"`
	CacheHits      int       `json:"cacheHits"`
	UpstreamErrors int       `json:"upstreamErrors"`
	EmptyPayloads  int       `json:"emptyPayloads"`
	InvalidRounds  int       `json:"invalidRounds"`
	LastRunAt      time.Time `json:"lastRunAt"`
	LastSession    int64     `json:"lastSession"`
}

// Snapshot returns a copy of the counters
func (s *PredictionStats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatsSnapshot{
		Uptime:         time.Since(s.StartTime).Round(time.Second).String(),
		Runs:           s.Runs,
		CacheHits:      s.CacheHits,
		UpstreamErrors: s.UpstreamErrors,
		EmptyPayloads:  s.EmptyPayloads,
		InvalidRounds:  s.InvalidRounds,
		LastRunAt:      s.LastRunAt,
		LastSession:    s.LastSession,
	}
}
