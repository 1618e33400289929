// Package logger provides collector-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// CollectorLogger provides dedicated logging for the rolling history collector.
type CollectorLogger struct {
	*logrus.Entry
}

// NewCollectorLogger creates a new collector logger.
func NewCollectorLogger(baseLogger *logrus.Logger) *CollectorLogger {
	return &CollectorLogger{
		Entry: baseLogger.WithField("component", "collector"),
	}
}

// LogPoll logs a successful poll of the collector source.
func (cl *CollectorLogger) LogPoll(source string, received, added, buffered int, durationMs float64) {
	cl.WithFields(logrus.Fields{
		"source":      source,
		"received":    received,
		"added":       added,
		"buffered":    buffered,
		"duration_ms": durationMs,
	}).Debug("Collector poll completed")
}

// LogPollFailure logs a failed poll. The next tick retries.
func (cl *CollectorLogger) LogPollFailure(source string, err error) {
	cl.WithFields(logrus.Fields{
		"source": source,
		"error":  err.Error(),
	}).Warn("Collector poll failed")
}

// LogSkipped logs records dropped from a poll.
func (cl *CollectorLogger) LogSkipped(source string, skipped int, reason string) {
	cl.WithFields(logrus.Fields{
		"source":  source,
		"skipped": skipped,
		"reason":  reason,
	}).Debug("Collector skipped records")
}
