package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}

	log := newLogger(buf, "debug", "production")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = newLogger(buf, "warn", "development")
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNewLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "loud", "development")

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level")
}

func TestPredictionLoggerPrediction(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPredictionLogger(log)

	pl.LogPrediction("run-1", 1200, 1201, "Tài", 0.85, 0.2, 100, "pattern | bridge")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "predictor", logEntry["component"])
	assert.Equal(t, "run-1", logEntry["run_id"])
	assert.Equal(t, float64(1201), logEntry["next_session"])
	assert.Equal(t, "Tài", logEntry["prediction"])
	assert.Equal(t, "Prediction made", logEntry["msg"])
}

func TestPredictionLoggerAdjustment(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPredictionLogger(log)

	pl.LogAdjustment("run-2", 55, "bridge_boost", 0.3, 0.9)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "bridge_boost", logEntry["adjustment"])
	assert.Equal(t, "debug", logEntry["level"])
}

func TestPredictionLoggerUpstreamFailure(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPredictionLogger(log)

	pl.LogUpstreamFailure("history", errors.New("connection refused"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "connection refused", logEntry["error"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestCollectorLoggerPoll(t *testing.T) {
	log, buf := setupTestLogger()
	cl := NewCollectorLogger(log)

	cl.LogPoll("feed", 3, 1, 50, 12.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "collector", logEntry["component"])
	assert.Equal(t, float64(1), logEntry["added"])
	assert.Equal(t, float64(50), logEntry["buffered"])
}

func TestCollectorLoggerPollFailure(t *testing.T) {
	log, buf := setupTestLogger()
	cl := NewCollectorLogger(log)

	cl.LogPollFailure("feed", errors.New("timeout"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "timeout", logEntry["error"])
}

func TestAccessLoggerLevels(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewAccessLogger(log)

	al.LogRequest("req-1", "GET", "/api/hitpro", 200, 120, 3*time.Millisecond, "127.0.0.1")
	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "http", logEntry["component"])
	assert.Equal(t, float64(3), logEntry["duration_ms"])

	buf.Reset()
	al.LogRequest("req-2", "GET", "/api/hitpro", 500, 40, time.Millisecond, "127.0.0.1")
	assert.True(t, strings.Contains(buf.String(), `"level":"error"`))
}
