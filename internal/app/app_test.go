package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/taixiu-oracle/internal/config"
	"github.com/yourusername/taixiu-oracle/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// upstream serves a history of rounds newest first; latest advances by one
// every call when advance is set.
func upstream(t *testing.T, advance bool) *httptest.Server {
	t.Helper()
	var latest int64 = 1000
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := atomic.LoadInt64(&latest)
		if advance {
			session = atomic.AddInt64(&latest, 1)
		}
		rounds := make([]models.GameRound, 0, 20)
		for i := int64(0); i < 20; i++ {
			g := models.GameRound{ID: session - i, Phien: session - i, KetQua: models.ResultXiu, Tong: 8, XucXac1: 2, XucXac2: 3, XucXac3: 3}
			if (session-i)%3 == 0 {
				g.KetQua, g.Tong, g.XucXac1, g.XucXac2, g.XucXac3 = models.ResultTai, 13, 4, 4, 5
			}
			rounds = append(rounds, g)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rounds)
	}))
}

func testConfig(t *testing.T, url string) *config.Config {
	t.Helper()
	cfg, err := config.LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Server.Port = freePort(t)
	cfg.Upstream.HistoryURL = url
	cfg.Collector.SourceURL = url
	cfg.Collector.IntervalSeconds = 1
	cfg.Ensemble.Seed = 7
	require.NoError(t, config.Validate(cfg))
	return cfg
}

// freePort reserves an ephemeral port and releases it for the server under test.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNew_FullProcess(t *testing.T) {
	up := upstream(t, false)
	defer up.Close()

	a, err := New(testConfig(t, up.URL), quietLogger(), Options{Predictor: true, Collector: true, Version: "test"})
	require.NoError(t, err)
	require.NotNil(t, a.Service())
	require.NotNil(t, a.Collector())

	assert.Equal(t, http.StatusServiceUnavailable, get(t, a.Handler(), "/ready").Code)

	rec := get(t, a.Handler(), "/api/hitpro")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.PredictionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(1000), result.Phien)
	assert.Equal(t, int64(1001), result.PhienTiepTheo)
	assert.Len(t, result.Pattern, 20)
	assert.True(t, result.DuDoan.Valid())

	assert.Equal(t, http.StatusOK, get(t, a.Handler(), "/ready").Code)
	assert.Equal(t, http.StatusOK, get(t, a.Handler(), "/api/hitpro/detail").Code)

	require.NoError(t, a.Collector().Poll(context.Background()))
	rec = get(t, a.Handler(), "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 20)
	assert.Equal(t, float64(1000), history[0]["Phien"])

	metricsRec := get(t, a.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "taixiu_predictions_total")
}

func TestNew_CollectorOnly(t *testing.T) {
	up := upstream(t, false)
	defer up.Close()

	a, err := New(testConfig(t, up.URL), quietLogger(), Options{Collector: true})
	require.NoError(t, err)
	assert.Nil(t, a.Service())

	assert.Equal(t, http.StatusNotFound, get(t, a.Handler(), "/api/hitpro").Code)
	assert.Equal(t, http.StatusOK, get(t, a.Handler(), "/api/history").Code)
	assert.Equal(t, http.StatusNotFound, get(t, a.Handler(), "/ws").Code)
}

func TestNew_NothingToRun(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/history")
	cfg.Collector.Enabled = false

	_, err := New(cfg, quietLogger(), Options{Collector: true})
	assert.Error(t, err)
}

func TestNewEngine_SeedIsReproducible(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/history")
	cfg.Ensemble.Seed = 99

	a := NewEngine(cfg).Predict(nil)
	b := NewEngine(cfg).Predict(nil)
	assert.Equal(t, a.Prediction, b.Prediction)
	assert.True(t, a.Random)
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	up := upstream(t, true)
	defer up.Close()

	a, err := New(testConfig(t, up.URL), quietLogger(), Options{Predictor: true, Collector: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	assert.Eventually(t, func() bool { return a.Collector().Buffer().Len() >= 2 }, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ReportsListenFailure(t *testing.T) {
	busy := httptest.NewServer(http.NotFoundHandler())
	defer busy.Close()

	up := upstream(t, false)
	defer up.Close()
	cfg := testConfig(t, up.URL)
	cfg.Collector.Enabled = false
	cfg.Server.Port = busy.Listener.Addr().(*net.TCPAddr).Port

	a, err := New(cfg, quietLogger(), Options{Predictor: true})
	require.NoError(t, err)

	select {
	case err := <-runAsync(a):
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not fail on a busy port")
	}
}

func runAsync(a *App) <-chan error {
	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	return done
}
