// Package config provides configuration management for the Tài/Xỉu oracle.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Upstream.PatternLength > cfg.Upstream.HistoryLimit {
		return fmt.Errorf("upstream pattern_length (%d) cannot exceed history_limit (%d)",
			cfg.Upstream.PatternLength, cfg.Upstream.HistoryLimit)
	}

	if cfg.Collector.Enabled {
		if cfg.Collector.SourceURL == "" {
			return fmt.Errorf("collector source_url is required when the collector is enabled")
		}
		if cfg.Collector.Capacity < 1 {
			return fmt.Errorf("collector capacity must be at least 1 when the collector is enabled")
		}
		if cfg.Collector.IntervalSeconds < 1 {
			return fmt.Errorf("collector interval_seconds must be at least 1 when the collector is enabled")
		}
	}

	w := cfg.PredictorConfig().Ensemble.Weights
	if w.Trend+w.Short+w.Mean+w.Switch+w.Bridge+w.Secondary == 0 {
		return fmt.Errorf("ensemble weights cannot all be zero")
	}

	if cfg.Metrics.Enabled && cfg.Stream.Enabled && cfg.Metrics.Path == cfg.Stream.Path {
		return fmt.Errorf("metrics and stream cannot share the path %q", cfg.Metrics.Path)
	}

	if cfg.IsProduction() && cfg.App.LogLevel == "debug" {
		return fmt.Errorf("debug logging is not allowed in production")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
