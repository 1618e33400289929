// Package config provides configuration management for the Tài/Xỉu oracle.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TAIXIU_UPSTREAM_HISTORY_URL.
	EnvPrefix = "TAIXIU"

	defaultConfigPath = "config/config.yaml"
	defaultHistoryURL = "https://api68-6tko.onrender.com/history"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing config file is not an error.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Missing files are skipped and existing
// variables are never overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// PORT is the conventional override on hosting platforms.
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "taixiu-oracle")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("upstream.history_url", defaultHistoryURL)
	v.SetDefault("upstream.timeout_seconds", 10)
	v.SetDefault("upstream.max_retries", 0)
	v.SetDefault("upstream.rate_limit", 5)
	v.SetDefault("upstream.circuit_breaker_max", 5)
	v.SetDefault("upstream.history_limit", 100)
	v.SetDefault("upstream.pattern_length", 50)

	v.SetDefault("collector.enabled", true)
	v.SetDefault("collector.source_url", defaultHistoryURL)
	v.SetDefault("collector.interval_seconds", 2)
	v.SetDefault("collector.capacity", 50)

	v.SetDefault("ensemble.trend_weight", 0.2)
	v.SetDefault("ensemble.short_weight", 0.2)
	v.SetDefault("ensemble.mean_weight", 0.25)
	v.SetDefault("ensemble.switch_weight", 0.2)
	v.SetDefault("ensemble.bridge_weight", 0.15)
	v.SetDefault("ensemble.secondary_weight", 0.2)
	v.SetDefault("ensemble.log_capacity", 500)
	v.SetDefault("ensemble.log_ttl_minutes", 360)
	v.SetDefault("ensemble.seed", 0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("stream.enabled", true)
	v.SetDefault("stream.path", "/ws")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}
