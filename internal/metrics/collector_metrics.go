// Package metrics defines collector-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector metrics
var (
	CollectorPollsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "collector_polls_total",
		Help:      "Total number of collector polls by outcome",
	}, []string{"outcome"})

	CollectorRecordsAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "collector_records_added_total",
		Help:      "Total number of new rounds added to the rolling buffer",
	})

	CollectorBufferSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "collector_buffer_size",
		Help:      "Number of rounds currently held in the rolling buffer",
	})

	CollectorPollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "collector_poll_duration_seconds",
		Help:      "Duration of collector polls in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// RecordCollectorPoll records a poll outcome ("success" or "error").
func RecordCollectorPoll(outcome string, durationSeconds float64) {
	CollectorPollsTotal.WithLabelValues(outcome).Inc()
	CollectorPollDuration.Observe(durationSeconds)
}

// RecordCollectorAdded records rounds added by a poll and the resulting buffer size.
func RecordCollectorAdded(added, buffered int) {
	CollectorRecordsAddedTotal.Add(float64(added))
	CollectorBufferSize.Set(float64(buffered))
}
