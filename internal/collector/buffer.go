// Package collector keeps a rolling window of the most recent upstream rounds
// for republishing.
package collector

import (
	"encoding/json"
	"sort"
	"sync"
)

// DefaultCapacity is the number of rounds kept by default.
const DefaultCapacity = 50

// Buffer holds the newest rounds verbatim, newest first, keyed by round number.
// It has a single writer (the poll job) and many readers.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	entries  []entry
}

type entry struct {
	session int64
	raw     json.RawMessage
}

// NewBuffer creates a buffer. capacity <= 0 uses DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity, entries: make([]entry, 0, capacity)}
}

// Capacity returns the maximum number of rounds kept.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Add merges records into the buffer. Records without a round number are
// skipped, rounds already held are ignored, and the oldest rounds are dropped
// beyond capacity. It returns how many rounds were added and skipped.
func (b *Buffer) Add(records []json.RawMessage) (added, skipped int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	held := make(map[int64]struct{}, len(b.entries))
	for _, e := range b.entries {
		held[e.session] = struct{}{}
	}

	for _, raw := range records {
		session, ok := SessionOf(raw)
		if !ok {
			skipped++
			continue
		}
		if _, dup := held[session]; dup {
			continue
		}
		held[session] = struct{}{}
		b.entries = append(b.entries, entry{session: session, raw: append(json.RawMessage(nil), raw...)})
		added++
	}
	if added == 0 {
		return added, skipped
	}

	sort.SliceStable(b.entries, func(i, j int) bool {
		return b.entries[i].session > b.entries[j].session
	})
	if len(b.entries) > b.capacity {
		b.entries = b.entries[:b.capacity]
	}
	return added, skipped
}

// Snapshot returns a copy of the held rounds, newest first.
func (b *Buffer) Snapshot() []json.RawMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]json.RawMessage, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.raw
	}
	return out
}

// Latest returns the newest round number held.
func (b *Buffer) Latest() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.entries) == 0 {
		return 0, false
	}
	return b.entries[0].session, true
}

// Len returns the number of rounds held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = b.entries[:0]
}

// SessionOf extracts the Phien field of a round object. Numeric strings are
// accepted; missing, null, zero or non-numeric values are not.
func SessionOf(raw json.RawMessage) (int64, bool) {
	var probe struct {
		Phien *json.Number `json:"Phien"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.Phien == nil {
		return 0, false
	}
	session, err := probe.Phien.Int64()
	if err != nil || session == 0 {
		return 0, false
	}
	return session, true
}
