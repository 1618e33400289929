package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/taixiu-oracle/internal/config"
	"github.com/yourusername/taixiu-oracle/internal/models"
)

const historyPayload = `[
	{"id": 3, "Phien": 1003, "Ket_qua": "Tài", "Tong": 12, "Xuc_xac_1": 3, "Xuc_xac_2": 4, "Xuc_xac_3": 5},
	{"id": 2, "Phien": 1002, "Ket_qua": "Xỉu", "Tong": 7, "Xuc_xac_1": 1, "Xuc_xac_2": 2, "Xuc_xac_3": 4},
	{"id": 1, "Phien": 1001, "Ket_qua": "Tài", "Tong": 15, "Xuc_xac_1": 5, "Xuc_xac_2": 5, "Xuc_xac_3": 5}
]`

func testClientConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.Timeout = 2 * time.Second
	cfg.RateLimit = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHistoryClient_FetchHistory(t *testing.T) {
	srv := serve(t, http.StatusOK, historyPayload)
	client := NewHistoryClient(NewRateLimitedHTTPClient(testClientConfig(), nil), HistorySourceName, srv.URL, nil)

	rounds, err := client.FetchHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, rounds, 3)

	assert.Equal(t, int64(1003), rounds[0].Phien)
	assert.Equal(t, models.ResultTai, rounds[0].KetQua)
	assert.Equal(t, 12, rounds[0].Tong)
	assert.Equal(t, 5, rounds[0].XucXac3)
	assert.Equal(t, models.ResultXiu, rounds[1].KetQua)
	assert.Equal(t, HistorySourceName, client.Name())
}

func TestHistoryClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "empty array", status: http.StatusOK, body: `[]`, want: ErrEmptyPayload},
		{name: "object payload", status: http.StatusOK, body: `{"error": "maintenance"}`, want: ErrEmptyPayload},
		{name: "not json", status: http.StatusOK, body: `<html>down</html>`, want: ErrEmptyPayload},
		{name: "malformed round", status: http.StatusOK, body: `[{"Phien": "abc"}]`, want: ErrInvalidData},
		{name: "server error", status: http.StatusBadGateway, body: `bad gateway`, want: ErrServerError},
		{name: "not found", status: http.StatusNotFound, body: `missing`, want: ErrServerError},
		{name: "rate limited", status: http.StatusTooManyRequests, body: ``, want: ErrRateLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			client := NewHistoryClient(NewRateLimitedHTTPClient(testClientConfig(), nil), HistorySourceName, srv.URL, nil)

			_, err := client.FetchHistory(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var dsErr DataSourceError
			require.True(t, errors.As(err, &dsErr))
			assert.Equal(t, HistorySourceName, dsErr.Source)
		})
	}
}

func TestHistoryClient_NetworkError(t *testing.T) {
	srv := serve(t, http.StatusOK, historyPayload)
	url := srv.URL
	srv.Close()

	client := NewHistoryClient(NewRateLimitedHTTPClient(testClientConfig(), nil), HistorySourceName, url, nil)
	_, err := client.FetchHistory(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkError)
}

func TestRateLimitedHTTPClient_Retries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(historyPayload))
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.MaxRetries = 3
	client := NewHistoryClient(NewRateLimitedHTTPClient(cfg, nil), HistorySourceName, srv.URL, nil)

	rounds, err := client.FetchHistory(context.Background())
	require.NoError(t, err)
	assert.Len(t, rounds, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRateLimitedHTTPClient_NoRetryByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHistoryClient(NewRateLimitedHTTPClient(testClientConfig(), nil), HistorySourceName, srv.URL, nil)
	_, err := client.FetchHistory(context.Background())

	assert.ErrorIs(t, err, ErrServerError)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRateLimitedHTTPClient_CircuitBreaker(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.CircuitBreakerMax = 2
	cfg.CircuitResetAfter = time.Hour
	httpClient := NewRateLimitedHTTPClient(cfg, nil)
	client := NewHistoryClient(httpClient, HistorySourceName, srv.URL, nil)

	for i := 0; i < 2; i++ {
		_, err := client.FetchHistory(context.Background())
		assert.ErrorIs(t, err, ErrServerError)
	}
	assert.True(t, httpClient.IsOpen())

	_, err := client.FetchHistory(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRateLimitedHTTPClient_CircuitHalfOpens(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(historyPayload))
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.CircuitBreakerMax = 1
	cfg.CircuitResetAfter = 20 * time.Millisecond
	httpClient := NewRateLimitedHTTPClient(cfg, nil)
	client := NewHistoryClient(httpClient, HistorySourceName, srv.URL, nil)

	_, err := client.FetchHistory(context.Background())
	require.Error(t, err)
	require.True(t, httpClient.IsOpen())

	healthy.Store(true)
	time.Sleep(40 * time.Millisecond)

	_, err = client.FetchHistory(context.Background())
	require.NoError(t, err)
	assert.False(t, httpClient.IsOpen())
}

func TestRateLimitedHTTPClient_HalfOpenAdmitsOneTrial(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(historyPayload))
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.CircuitBreakerMax = 1
	cfg.CircuitResetAfter = 20 * time.Millisecond
	httpClient := NewRateLimitedHTTPClient(cfg, nil)
	client := NewHistoryClient(httpClient, HistorySourceName, srv.URL, nil)

	_, err := client.FetchHistory(context.Background())
	require.Error(t, err)
	failing.Store(false)
	time.Sleep(40 * time.Millisecond)

	trialErr := make(chan error, 1)
	go func() {
		_, err := client.FetchHistory(context.Background())
		trialErr <- err
	}()
	<-arrived

	_, err = client.FetchHistory(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, httpClient.IsOpen())

	close(release)
	require.NoError(t, <-trialErr)
	assert.False(t, httpClient.IsOpen())
}

func TestRateLimitedHTTPClient_FailedTrialReopens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.CircuitBreakerMax = 1
	cfg.CircuitResetAfter = 20 * time.Millisecond
	httpClient := NewRateLimitedHTTPClient(cfg, nil)
	client := NewHistoryClient(httpClient, HistorySourceName, srv.URL, nil)

	_, err := client.FetchHistory(context.Background())
	require.Error(t, err)
	time.Sleep(40 * time.Millisecond)

	_, err = client.FetchHistory(context.Background())
	require.Error(t, err)
	assert.True(t, httpClient.IsOpen())

	_, err = client.FetchHistory(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFeedClient_FetchRecords(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "single object", body: `{"Phien": 5, "Ket_qua": "Tài"}`, want: 1},
		{name: "array", body: historyPayload, want: 3},
		{name: "array with scalars", body: `[{"Phien": 1}, 2, "x", null]`, want: 1},
		{name: "empty array", body: `[]`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, tt.body)
			client := NewFeedClient(NewRateLimitedHTTPClient(testClientConfig(), nil), FeedSourceName, srv.URL, nil)

			records, err := client.FetchRecords(context.Background())
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestSplitRecords_Invalid(t *testing.T) {
	_, err := SplitRecords(FeedSourceName, []byte("   "))
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = SplitRecords(FeedSourceName, []byte(`"text"`))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = SplitRecords(FeedSourceName, []byte(`{"Phien": `))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestDataSourceError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewDataSourceError("history", ErrCodeNetworkError, "failed to fetch upstream", cause)

	assert.Equal(t, "history: network_error: failed to fetch upstream (dial tcp: refused)", err.Error())
	assert.ErrorIs(t, err, ErrNetworkError)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrServerError)

	plain := NewDataSourceError("history", ErrCodeUnknown, "boom", nil)
	assert.Equal(t, "history: unknown: boom", plain.Error())
}

func TestFactory(t *testing.T) {
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			HistoryURL:        "http://upstream.local/history",
			TimeoutSeconds:    3,
			MaxRetries:        2,
			RateLimit:         4,
			CircuitBreakerMax: 7,
		},
		Collector: config.CollectorConfig{Enabled: true, SourceURL: "http://upstream.local/feed"},
	}
	f := NewFactory(cfg, nil)

	httpCfg := f.HTTPClientConfig()
	assert.Equal(t, 3*time.Second, httpCfg.Timeout)
	assert.Equal(t, 2, httpCfg.MaxRetries)
	assert.Equal(t, 7, httpCfg.CircuitBreakerMax)

	history, err := f.NewHistorySource()
	require.NoError(t, err)
	assert.Equal(t, HistorySourceName, history.Name())

	feed, err := f.NewRecordSource()
	require.NoError(t, err)
	assert.Equal(t, FeedSourceName, feed.Name())

	cfg.Collector.Enabled = false
	_, err = f.NewRecordSource()
	assert.Error(t, err)
}
