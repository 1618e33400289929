// Package scheduler runs named polling jobs on fixed intervals.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrRunning is returned when jobs are changed while the scheduler runs.
var ErrRunning = errors.New("scheduler is running")

// JobFunc is one run of a scheduled job. ctx expires before the next tick.
type JobFunc func(ctx context.Context) error

// Scheduler manages interval jobs on top of a cron runner
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          map[string]cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler. Overlapping runs of the same job are
// skipped rather than queued.
func NewScheduler(logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{entry}), cron.SkipIfStillRunning(cronLogger{entry})),
		),
		logger:          entry,
		jobIDs:          make(map[string]cron.EntryID),
		gracefulTimeout: 10 * time.Second,
	}
}

// ScheduleEvery adds a job that runs every interval. Intervals below one
// second are raised to one second.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule %s: %w", name, ErrRunning)
	}
	if _, exists := s.jobIDs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}
	if interval < time.Second {
		interval = time.Second
	}

	timeout := interval
	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := job(ctx); err != nil {
			s.logger.WithFields(logrus.Fields{"job": name, "error": err.Error()}).Debug("Scheduled job returned an error")
		}
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs[name] = entryID
	s.logger.WithFields(logrus.Fields{"job": name, "interval": interval.String()}).Info("Scheduled job")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrRunning
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs up to the graceful timeout.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	done := s.cron.Stop().Done()
	s.isRunning = false

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the next run time of the named job, or the zero time.
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.jobIDs[name]
	if !ok || !s.isRunning {
		return time.Time{}
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return time.Time{}
	}
	return entry.Next
}

// Jobs returns the names of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		names = append(names, name)
	}
	return names
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove %s: %w", name, ErrRunning)
	}
	id, ok := s.jobIDs[name]
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(id)
	delete(s.jobIDs, name)
	s.logger.WithField("job", name).Info("Removed job")
	return nil
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
