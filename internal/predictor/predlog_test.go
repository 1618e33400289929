package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

func TestBoundedLog_RecordAndLookup(t *testing.T) {
	l := NewBoundedLog(10, 0)

	assert.False(t, l.Has(ModelTrend))
	l.Record(ModelTrend, 100, models.VoteTai)
	l.Record(ModelShort, 100, models.VoteXiu)

	vote, ok := l.Lookup(ModelTrend, 100)
	require.True(t, ok)
	assert.Equal(t, models.VoteTai, vote)

	vote, ok = l.Lookup(ModelShort, 100)
	require.True(t, ok)
	assert.Equal(t, models.VoteXiu, vote)

	_, ok = l.Lookup(ModelMean, 100)
	assert.False(t, ok)
	assert.True(t, l.Has(ModelTrend))
	assert.Equal(t, 2, l.Len())
}

func TestBoundedLog_OverwriteKeepsOneEntry(t *testing.T) {
	l := NewBoundedLog(2, 0)

	l.Record(ModelTrend, 1, models.VoteTai)
	l.Record(ModelTrend, 1, models.VoteXiu)
	l.Record(ModelTrend, 2, models.VoteTai)

	vote, ok := l.Lookup(ModelTrend, 1)
	require.True(t, ok)
	assert.Equal(t, models.VoteXiu, vote)
	assert.Equal(t, 2, l.Len())
}

func TestBoundedLog_EvictsOldestPerModel(t *testing.T) {
	l := NewBoundedLog(3, 0)

	for s := int64(1); s <= 5; s++ {
		l.Record(ModelTrend, s, models.VoteTai)
	}
	l.Record(ModelMean, 1, models.VoteXiu)

	for s := int64(1); s <= 2; s++ {
		_, ok := l.Lookup(ModelTrend, s)
		assert.False(t, ok, "session %d should be evicted", s)
	}
	for s := int64(3); s <= 5; s++ {
		_, ok := l.Lookup(ModelTrend, s)
		assert.True(t, ok, "session %d should be kept", s)
	}
	_, ok := l.Lookup(ModelMean, 1)
	assert.True(t, ok)
	assert.Equal(t, 4, l.Len())
}

func TestBoundedLog_Expiry(t *testing.T) {
	l := NewBoundedLog(10, 50*time.Millisecond)
	l.Record(ModelSwitch, 9, models.VoteTai)

	_, ok := l.Lookup(ModelSwitch, 9)
	require.True(t, ok)

	time.Sleep(120 * time.Millisecond)

	_, ok = l.Lookup(ModelSwitch, 9)
	assert.False(t, ok)
	assert.True(t, l.Has(ModelSwitch))
}

func TestBoundedLog_Reset(t *testing.T) {
	l := NewBoundedLog(10, time.Hour)
	l.Record(ModelBridge, 1, models.VoteXiu)

	l.Reset()

	assert.False(t, l.Has(ModelBridge))
	assert.Equal(t, 0, l.Len())
	_, ok := l.Lookup(ModelBridge, 1)
	assert.False(t, ok)
}
