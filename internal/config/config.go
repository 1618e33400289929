// Package config provides configuration management for the Tài/Xỉu oracle.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/taixiu-oracle/internal/predictor"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Upstream  UpstreamConfig  `mapstructure:"upstream" validate:"required"`
	Collector CollectorConfig `mapstructure:"collector"`
	Ensemble  EnsembleConfig  `mapstructure:"ensemble"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Stream    StreamConfig    `mapstructure:"stream"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents the public HTTP listener
type ServerConfig struct {
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	CORSAllowedOrigins  []string `mapstructure:"cors_allowed_origins"`
}

// UpstreamConfig represents the game history API the predictor polls
type UpstreamConfig struct {
	HistoryURL        string  `mapstructure:"history_url" validate:"required,url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit         float64 `mapstructure:"rate_limit" validate:"gte=0"`
	CircuitBreakerMax int     `mapstructure:"circuit_breaker_max" validate:"gte=0"`
	HistoryLimit      int     `mapstructure:"history_limit" validate:"required,gt=0"`
	PatternLength     int     `mapstructure:"pattern_length" validate:"required,gt=0"`
}

// CollectorConfig represents the rolling history collector
type CollectorConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	SourceURL       string `mapstructure:"source_url" validate:"omitempty,url"`
	IntervalSeconds int    `mapstructure:"interval_seconds" validate:"gte=0"`
	Capacity        int    `mapstructure:"capacity" validate:"gte=0,max=50"`
}

// EnsembleConfig overrides the predictor's base weights and log bounds.
// An unset weight keeps the default; a weight of 0 switches the model off.
type EnsembleConfig struct {
	TrendWeight     *float64 `mapstructure:"trend_weight" validate:"omitempty,gte=0"`
	ShortWeight     *float64 `mapstructure:"short_weight" validate:"omitempty,gte=0"`
	MeanWeight      *float64 `mapstructure:"mean_weight" validate:"omitempty,gte=0"`
	SwitchWeight    *float64 `mapstructure:"switch_weight" validate:"omitempty,gte=0"`
	BridgeWeight    *float64 `mapstructure:"bridge_weight" validate:"omitempty,gte=0"`
	SecondaryWeight *float64 `mapstructure:"secondary_weight" validate:"omitempty,gte=0"`
	LogCapacity     int     `mapstructure:"log_capacity" validate:"gte=0"`
	LogTTLMinutes   int     `mapstructure:"log_ttl_minutes" validate:"gte=0"`
	// Seed fixes the random source when non-zero.
	Seed int64 `mapstructure:"seed"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// StreamConfig represents the websocket prediction feed
type StreamConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ListenAddress returns the host:port the HTTP server binds to
func (c *Config) ListenAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// UpstreamTimeout returns the per-request upstream timeout
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

// CollectorInterval returns the collector polling interval
func (c *Config) CollectorInterval() time.Duration {
	return time.Duration(c.Collector.IntervalSeconds) * time.Second
}

// PredictorConfig applies the ensemble section on top of the predictor defaults.
// Unset weights and zero log bounds keep the default.
func (c *Config) PredictorConfig() predictor.Config {
	pc := predictor.DefaultConfig()
	e := c.Ensemble
	w := &pc.Ensemble.Weights

	override(&w.Trend, e.TrendWeight)
	override(&w.Short, e.ShortWeight)
	override(&w.Mean, e.MeanWeight)
	override(&w.Switch, e.SwitchWeight)
	override(&w.Bridge, e.BridgeWeight)
	override(&w.Secondary, e.SecondaryWeight)
	if e.LogCapacity > 0 {
		pc.Log.Capacity = e.LogCapacity
	}
	if e.LogTTLMinutes > 0 {
		pc.Log.TTL = time.Duration(e.LogTTLMinutes) * time.Minute
	}
	return pc
}

func override(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
