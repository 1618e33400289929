// Package logger provides prediction-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for prediction runs.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "predictor"),
	}
}

// LogPrediction logs a completed ensemble run.
func (pl *PredictionLogger) LogPrediction(runID string, session, nextSession int64, prediction string, scoreTai, scoreXiu float64, historyLen int, reason string) {
	pl.WithFields(logrus.Fields{
		"run_id":       runID,
		"session":      session,
		"next_session": nextSession,
		"prediction":   prediction,
		"score_tai":    scoreTai,
		"score_xiu":    scoreXiu,
		"history_len":  historyLen,
		"reason":       reason,
	}).Info("Prediction made")
}

// LogAdjustment logs a post-vote score adjustment such as bad-pattern
// dampening, balance correction or a bridge boost.
func (pl *PredictionLogger) LogAdjustment(runID string, session int64, adjustment string, scoreTai, scoreXiu float64) {
	pl.WithFields(logrus.Fields{
		"run_id":     runID,
		"session":    session,
		"adjustment": adjustment,
		"score_tai":  scoreTai,
		"score_xiu":  scoreXiu,
	}).Debug("Ensemble adjustment applied")
}

// LogCachedResult logs a request served from the cached prediction.
func (pl *PredictionLogger) LogCachedResult(session int64) {
	pl.WithField("session", session).Debug("Serving cached prediction")
}

// LogUpstreamFailure logs a failed upstream history fetch.
func (pl *PredictionLogger) LogUpstreamFailure(source string, err error) {
	pl.WithFields(logrus.Fields{
		"source": source,
		"error":  err.Error(),
	}).Warn("Upstream history fetch failed")
}

// LogReset logs a reset of the cached prediction state.
func (pl *PredictionLogger) LogReset(reason string) {
	pl.WithField("reason", reason).Info("Prediction state reset")
}
