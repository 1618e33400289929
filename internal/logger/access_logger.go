// Package logger provides HTTP access logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AccessLogger records one line per served HTTP request.
type AccessLogger struct {
	*logrus.Entry
}

// NewAccessLogger creates a new access logger.
func NewAccessLogger(baseLogger *logrus.Logger) *AccessLogger {
	return &AccessLogger{
		Entry: baseLogger.WithField("component", "http"),
	}
}

// LogRequest logs a completed request. 5xx responses are logged as errors.
func (al *AccessLogger) LogRequest(requestID, method, path string, status, bytes int, duration time.Duration, remoteAddr string) {
	entry := al.WithFields(logrus.Fields{
		"request_id":  requestID,
		"method":      method,
		"path":        path,
		"status":      status,
		"bytes":       bytes,
		"duration_ms": float64(duration.Microseconds()) / 1000,
		"remote_addr": remoteAddr,
	})
	if status >= 500 {
		entry.Error("Request failed")
		return
	}
	entry.Info("Request served")
}
