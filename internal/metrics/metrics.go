// Package metrics provides the centralized Prometheus metrics registry.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "taixiu"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "predictions_total",
		Help:      "Total number of ensemble runs by predicted outcome",
	}, []string{"prediction"})
	PredictionCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "prediction_cache_hits_total",
		Help:      "Total number of requests answered from the cached prediction",
	})
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of upstream API requests by source and outcome",
	}, []string{"source", "outcome"})
	CircuitBreakerTripsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of upstream circuit breaker trips",
	}, []string{"source"})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total number of served HTTP requests",
	}, []string{"method", "route", "status"})
)

// Gauge metrics
var (
	LastSession = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_session",
		Help:      "Session number of the latest round used for a prediction",
	})
	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "stream_clients",
		Help:      "Number of connected websocket clients",
	})
)

// Histogram metrics
var (
	UpstreamRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of upstream API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "prediction_duration_seconds",
		Help:      "Duration of an ensemble run in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of served HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(PredictionCacheHitsTotal)
		registry.MustRegister(UpstreamRequestsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(HTTPRequestsTotal)

		registry.MustRegister(LastSession)
		registry.MustRegister(StreamClients)

		registry.MustRegister(UpstreamRequestDuration)
		registry.MustRegister(PredictionDuration)
		registry.MustRegister(HTTPRequestDuration)

		// Ensemble metrics
		registry.MustRegister(ModelVotesTotal)
		registry.MustRegister(ModelMultiplier)
		registry.MustRegister(EnsembleAdjustmentsTotal)
		registry.MustRegister(EnsembleScore)
		registry.MustRegister(BridgeBreakProbability)

		// Collector metrics
		registry.MustRegister(CollectorPollsTotal)
		registry.MustRegister(CollectorRecordsAddedTotal)
		registry.MustRegister(CollectorBufferSize)
		registry.MustRegister(CollectorPollDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records a fresh ensemble run.
func RecordPrediction(prediction string, session int64, durationSeconds float64) {
	PredictionsTotal.WithLabelValues(prediction).Inc()
	LastSession.Set(float64(session))
	PredictionDuration.Observe(durationSeconds)
}

// RecordCacheHit records a request served from the cached prediction.
func RecordCacheHit() {
	PredictionCacheHitsTotal.Inc()
}

// RecordUpstreamRequest records an upstream call and its latency.
func RecordUpstreamRequest(source, outcome string, durationSeconds float64) {
	UpstreamRequestsTotal.WithLabelValues(source, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip(source string) {
	CircuitBreakerTripsTotal.WithLabelValues(source).Inc()
}

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(durationSeconds)
}

// UpdateStreamClients sets the websocket client gauge.
func UpdateStreamClients(count int) {
	StreamClients.Set(float64(count))
}
