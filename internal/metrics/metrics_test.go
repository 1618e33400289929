package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordPrediction(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues("tai"))

	RecordPrediction("tai", 1234, 0.001)

	assert.Equal(t, before+1, testutil.ToFloat64(PredictionsTotal.WithLabelValues("tai")))
	assert.Equal(t, float64(1234), testutil.ToFloat64(LastSession))
}

func TestRecordUpstreamRequest(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name    string
		source  string
		outcome string
	}{
		{name: "success", source: "history", outcome: "success"},
		{name: "error", source: "history", outcome: "error"},
		{name: "collector source", source: "collector", outcome: "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := UpstreamRequestsTotal.WithLabelValues(tt.source, tt.outcome)
			before := testutil.ToFloat64(counter)
			RecordUpstreamRequest(tt.source, tt.outcome, 0.2)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestEnsembleMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordModelVote("trend", "tai")
		UpdateModelMultiplier("trend", 1.2)
		RecordAdjustment("bridge_boost")
		UpdateEnsembleScores(0.8, 0.4, 0.7)
	})

	assert.Equal(t, 1.2, testutil.ToFloat64(ModelMultiplier.WithLabelValues("trend")))
	assert.Equal(t, 0.4, testutil.ToFloat64(EnsembleScore.WithLabelValues("xiu")))
	assert.Equal(t, 0.7, testutil.ToFloat64(BridgeBreakProbability))
}

func TestCollectorMetrics(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(CollectorRecordsAddedTotal)

	RecordCollectorPoll("success", 0.1)
	RecordCollectorAdded(3, 50)

	assert.Equal(t, before+3, testutil.ToFloat64(CollectorRecordsAddedTotal))
	assert.Equal(t, float64(50), testutil.ToFloat64(CollectorBufferSize))
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordCacheHit()
	RecordCircuitBreakerTrip("history")
	UpdateStreamClients(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taixiu_prediction_cache_hits_total")
	assert.Contains(t, rec.Body.String(), "taixiu_stream_clients 2")
}

func BenchmarkRecordPrediction(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordPrediction("xiu", int64(i), 0.0001)
	}
}
