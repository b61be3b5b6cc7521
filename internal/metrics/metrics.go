// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatstats_db_query_duration_seconds",
			Help:    "Duration of count store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstats_db_query_errors_total",
			Help: "Total number of count store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Bucket Processing Metrics
	BucketsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstats_buckets_processed_total",
			Help: "Buckets handled by the processor, by outcome",
		},
		[]string{"statistic", "level", "granularity", "outcome"}, // outcome: written, skipped, duplicate, empty, error
	)

	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstats_rows_written_total",
			Help: "Count rows persisted",
		},
		[]string{"level"},
	)

	RowsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstats_rows_filtered_total",
			Help: "Value function rows dropped because the entity is not valid",
		},
		[]string{"statistic", "level"},
	)

	ValueFunctionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatstats_value_function_duration_seconds",
			Help:    "Time spent computing a bucket's raw rows",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"statistic", "level", "granularity"},
	)

	// Run Metrics
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatstats_run_duration_seconds",
			Help:    "Duration of a rollup run in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
	)

	RunErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatstats_run_errors_total",
			Help: "Rollup runs aborted by an error",
		},
	)

	RunLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatstats_run_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful rollup run",
		},
	)

	FillLag = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chatstats_fill_lag_seconds",
			Help: "Age of the most recently filled bucket per statistic",
		},
		[]string{"statistic"},
	)

	// Collector Circuit Breaker Metrics
	CollectorBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chatstats_collector_breaker_state",
			Help: "Collector circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Event Publishing Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstats_events_published_total",
			Help: "Bucket notifications published, by result",
		},
		[]string{"result"},
	)

	// Event WAL Metrics
	WALWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatstats_wal_writes_total",
			Help: "Bucket events written to the WAL",
		},
	)

	WALRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstats_wal_retries_total",
			Help: "WAL republish attempts, by result",
		},
		[]string{"result"},
	)

	WALDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstats_wal_dropped_total",
			Help: "WAL entries dropped without being published, by reason",
		},
		[]string{"reason"},
	)

	WALPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatstats_wal_pending_entries",
			Help: "Bucket events waiting in the WAL for a successful publish",
		},
	)

	// HTTP API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstats_api_requests_total",
			Help: "HTTP API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatstats_api_request_duration_seconds",
			Help:    "HTTP API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatstats_api_active_requests",
			Help: "HTTP API requests currently being served",
		},
	)
)

// RecordDBQuery records a count store query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordBucket records the outcome of processing one bucket.
func RecordBucket(statistic, level, granularity, outcome string) {
	BucketsProcessed.WithLabelValues(statistic, level, granularity, outcome).Inc()
}

// RecordRowsWritten records persisted rows for a level
func RecordRowsWritten(level string, n int) {
	if n > 0 {
		RowsWritten.WithLabelValues(level).Add(float64(n))
	}
}

// RecordRowsFiltered records rows dropped by the validity filter
func RecordRowsFiltered(statistic, level string, n int) {
	if n > 0 {
		RowsFiltered.WithLabelValues(statistic, level).Add(float64(n))
	}
}

// RecordValueFunction records how long a value function took.
func RecordValueFunction(statistic, level, granularity string, duration time.Duration) {
	ValueFunctionDuration.WithLabelValues(statistic, level, granularity).Observe(duration.Seconds())
}

// RecordRun records a completed or aborted rollup run.
func RecordRun(duration time.Duration, err error) {
	RunDuration.Observe(duration.Seconds())
	if err != nil {
		RunErrors.Inc()
		return
	}
	RunLastSuccess.SetToCurrentTime()
}

// UpdateFillLag sets the lag between now and the statistic's last filled bucket.
func UpdateFillLag(statistic string, lastFilled, now time.Time) {
	lag := now.Sub(lastFilled).Seconds()
	if lag < 0 {
		lag = 0
	}
	FillLag.WithLabelValues(statistic).Set(lag)
}

// SetCollectorBreakerState records a breaker state transition.
// state follows gobreaker's ordering: 0 closed, 1 half-open, 2 open.
func SetCollectorBreakerState(name string, state int) {
	CollectorBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordEventPublish records a bucket notification publish attempt.
func RecordEventPublish(err error) {
	if err != nil {
		EventsPublished.WithLabelValues("error").Inc()
		return
	}
	EventsPublished.WithLabelValues("ok").Inc()
}

// RecordWALWrite records one event written to the WAL.
func RecordWALWrite() {
	WALWrites.Inc()
}

// RecordWALRetry records one republish attempt.
func RecordWALRetry(err error) {
	if err != nil {
		WALRetries.WithLabelValues("error").Inc()
		return
	}
	WALRetries.WithLabelValues("ok").Inc()
}

// RecordWALDropped records an entry given up on. reason is "expired" or
// "max_retries".
func RecordWALDropped(reason string) {
	WALDropped.WithLabelValues(reason).Inc()
}

// SetWALPending sets the number of unpublished WAL entries.
func SetWALPending(n int64) {
	WALPending.Set(float64(n))
}

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(started bool) {
	if started {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}
