package predictor

import (
	"strconv"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// PredictionLog remembers what each model voted for a given session so its
// hit rate can be scored later.
type PredictionLog interface {
	Record(model string, session int64, vote models.Vote)
	Lookup(model string, session int64) (models.Vote, bool)
	// Has reports whether anything was ever recorded for model since the last Reset.
	Has(model string) bool
	Len() int
	Reset()
}

// BoundedLog is a PredictionLog that keeps at most capacity sessions per model
// and expires every entry after ttl.
type BoundedLog struct {
	mu       sync.Mutex
	entries  *cache.Cache
	order    map[string][]int64
	sessions map[string]map[int64]struct{}
	capacity int
	ttl      time.Duration
}

// NewBoundedLog creates a log. capacity <= 0 disables the per-model cap and
// ttl <= 0 disables expiry.
func NewBoundedLog(capacity int, ttl time.Duration) *BoundedLog {
	expiration := ttl
	cleanup := ttl * 2
	if ttl <= 0 {
		expiration = cache.NoExpiration
		cleanup = 0
	}
	return &BoundedLog{
		entries:  cache.New(expiration, cleanup),
		order:    make(map[string][]int64),
		sessions: make(map[string]map[int64]struct{}),
		capacity: capacity,
		ttl:      expiration,
	}
}

func logKey(model string, session int64) string {
	return model + ":" + strconv.FormatInt(session, 10)
}

// Record stores the vote, evicting the oldest session of the model when full.
func (l *BoundedLog) Record(model string, session int64, vote models.Vote) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen, ok := l.sessions[model]
	if !ok {
		seen = make(map[int64]struct{})
		l.sessions[model] = seen
	}
	if _, dup := seen[session]; !dup {
		seen[session] = struct{}{}
		l.order[model] = append(l.order[model], session)
	}
	l.entries.Set(logKey(model, session), vote, l.ttl)

	if l.capacity > 0 {
		for len(l.order[model]) > l.capacity {
			oldest := l.order[model][0]
			l.order[model] = l.order[model][1:]
			delete(seen, oldest)
			l.entries.Delete(logKey(model, oldest))
		}
	}
}

// Lookup returns the vote a model logged for session.
func (l *BoundedLog) Lookup(model string, session int64) (models.Vote, bool) {
	v, found := l.entries.Get(logKey(model, session))
	if !found {
		return models.VoteNone, false
	}
	vote, ok := v.(models.Vote)
	return vote, ok
}

// Has implements PredictionLog.
func (l *BoundedLog) Has(model string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.sessions[model]
	return ok
}

// Len returns the number of live entries across all models.
func (l *BoundedLog) Len() int {
	return l.entries.ItemCount()
}

// Reset drops every entry.
func (l *BoundedLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries.Flush()
	l.order = make(map[string][]int64)
	l.sessions = make(map[string]map[int64]struct{})
}
