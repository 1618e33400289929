package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-oracle/internal/datasource"
	"github.com/yourusername/taixiu-oracle/internal/logger"
	"github.com/yourusername/taixiu-oracle/internal/metrics"
	"github.com/yourusername/taixiu-oracle/internal/scheduler"
)

// JobName is the scheduler name of the poll job.
const JobName = "collector-poll"

// Collector polls a record source and merges what it sees into a Buffer.
type Collector struct {
	source datasource.RecordSource
	buffer *Buffer
	logger *logger.CollectorLogger
}

// NewCollector creates a collector writing into buffer.
func NewCollector(source datasource.RecordSource, buffer *Buffer, log *logrus.Logger) *Collector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Collector{
		source: source,
		buffer: buffer,
		logger: logger.NewCollectorLogger(log),
	}
}

// Buffer returns the buffer the collector writes to.
func (c *Collector) Buffer() *Buffer {
	return c.buffer
}

// Poll fetches the source once. Failures are logged and returned; the buffer is
// left untouched so the next tick simply retries.
func (c *Collector) Poll(ctx context.Context) error {
	start := time.Now()
	records, err := c.source.FetchRecords(ctx)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordCollectorPoll("error", elapsed.Seconds())
		if errors.Is(err, datasource.ErrEmptyPayload) || errors.Is(err, datasource.ErrInvalidData) {
			c.logger.LogSkipped(c.source.Name(), 1, err.Error())
		} else {
			c.logger.LogPollFailure(c.source.Name(), err)
		}
		return fmt.Errorf("collector poll: %w", err)
	}

	added, skipped := c.buffer.Add(records)
	buffered := c.buffer.Len()
	metrics.RecordCollectorPoll("success", elapsed.Seconds())
	metrics.RecordCollectorAdded(added, buffered)

	if skipped > 0 {
		c.logger.LogSkipped(c.source.Name(), skipped, "missing Phien")
	}
	c.logger.LogPoll(c.source.Name(), len(records), added, buffered, float64(elapsed.Microseconds())/1000)
	return nil
}

// History returns the buffered rounds, newest first.
func (c *Collector) History() []json.RawMessage {
	return c.buffer.Snapshot()
}

// Ready reports whether at least one round has been collected.
func (c *Collector) Ready() bool {
	return c.buffer.Len() > 0
}

// Schedule registers the poll job on s.
func (c *Collector) Schedule(s *scheduler.Scheduler, interval time.Duration) error {
	return s.ScheduleEvery(JobName, interval, c.Poll)
}
