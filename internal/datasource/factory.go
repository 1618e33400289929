package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-oracle/internal/config"
)

// Source names used in logs and metric labels
const (
	HistorySourceName = "history"
	FeedSourceName    = "collector"
)

// Factory creates data sources based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// HTTPClientConfig derives the upstream client settings from configuration
func (f *Factory) HTTPClientConfig() HTTPClientConfig {
	httpCfg := DefaultHTTPClientConfig()
	up := f.config.Upstream
	if up.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(up.TimeoutSeconds) * time.Second
	}
	httpCfg.MaxRetries = up.MaxRetries
	httpCfg.RateLimit = up.RateLimit
	httpCfg.CircuitBreakerMax = up.CircuitBreakerMax
	return httpCfg
}

// NewHistorySource creates the prediction endpoint's history source
func (f *Factory) NewHistorySource() (HistorySource, error) {
	if f.config.Upstream.HistoryURL == "" {
		return nil, fmt.Errorf("upstream history_url is required")
	}
	client := NewRateLimitedHTTPClient(f.HTTPClientConfig(), f.logger)
	return NewHistoryClient(client, HistorySourceName, f.config.Upstream.HistoryURL, f.logger), nil
}

// NewRecordSource creates the collector's source. It uses its own HTTP client
// so collector failures never open the prediction path's circuit.
func (f *Factory) NewRecordSource() (RecordSource, error) {
	if !f.config.Collector.Enabled {
		return nil, fmt.Errorf("collector is disabled")
	}
	if f.config.Collector.SourceURL == "" {
		return nil, fmt.Errorf("collector source_url is required")
	}
	httpCfg := f.HTTPClientConfig()
	// The next tick is the retry.
	httpCfg.MaxRetries = 0
	client := NewRateLimitedHTTPClient(httpCfg, f.logger)
	return NewFeedClient(client, FeedSourceName, f.config.Collector.SourceURL, f.logger), nil
}
