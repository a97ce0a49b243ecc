// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Prediction Pipeline Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of strategy predictions by outcome",
		},
		[]string{"outcome"}, // success, no_match, encode_error, model_error, error
	)

	PredictionStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prediction_stage_duration_seconds",
			Help:    "Duration of each prediction pipeline stage in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"stage"}, // lookup, encode, scale, pitstops, pitlap, tire, total
	)

	PredictedPitStops = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prediction_pit_stops",
			Help:    "Distribution of predicted pit stop counts",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	// Model Invocation Metrics
	ModelInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_invocations_total",
			Help: "Total number of model invocations",
		},
		[]string{"backend", "model", "outcome"}, // outcome: success, failure
	)

	ModelInvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_invocation_duration_seconds",
			Help:    "Duration of model invocations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"backend", "model"},
	)

	// Dataset Metrics
	DatasetLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_lookups_total",
			Help: "Total number of historical race lookups",
		},
		[]string{"result"}, // hit, miss, error
	)

	DatasetQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataset_query_duration_seconds",
			Help:    "Duration of DuckDB dataset queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Number of rows in the loaded historical dataset",
		},
	)

	// Prediction Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prediction_cache_hits_total",
			Help: "Total number of prediction cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prediction_cache_misses_total",
			Help: "Total number of prediction cache misses",
		},
	)

	// Artifact Metrics
	ArtifactReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_reloads_total",
			Help: "Total number of artifact bundle reloads",
		},
		[]string{"result"}, // success, failure
	)

	ArtifactLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artifact_loaded_timestamp_seconds",
			Help: "Unix time the current artifact bundle was loaded",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// History Metrics
	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_writes_total",
			Help: "Total number of prediction history writes",
		},
		[]string{"backend", "result"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordPrediction records the outcome of one pipeline run.
func RecordPrediction(outcome string, duration time.Duration) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
	PredictionStageDuration.WithLabelValues("total").Observe(duration.Seconds())
}

// ObserveStage records the duration of a single pipeline stage.
func ObserveStage(stage string, duration time.Duration) {
	PredictionStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordModelInvocation records a model call on the given backend.
func RecordModelInvocation(backend, model string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ModelInvocations.WithLabelValues(backend, model, outcome).Inc()
	ModelInvocationDuration.WithLabelValues(backend, model).Observe(duration.Seconds())
}

// RecordDatasetQuery records a DuckDB dataset query.
func RecordDatasetQuery(operation string, duration time.Duration) {
	DatasetQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDatasetLookup counts a historical row lookup by result.
func RecordDatasetLookup(result string) {
	DatasetLookups.WithLabelValues(result).Inc()
}

// RecordCacheAccess counts a prediction cache hit or miss.
func RecordCacheAccess(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// RecordArtifactReload records an artifact bundle reload attempt.
func RecordArtifactReload(err error, loadedAt time.Time) {
	if err != nil {
		ArtifactReloads.WithLabelValues("failure").Inc()
		return
	}
	ArtifactReloads.WithLabelValues("success").Inc()
	ArtifactLoadedTimestamp.Set(float64(loadedAt.Unix()))
}

// RecordHistoryWrite records a prediction history write.
func RecordHistoryWrite(backend string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	HistoryWrites.WithLabelValues(backend, result).Inc()
}
