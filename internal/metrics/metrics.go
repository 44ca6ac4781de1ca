// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the catalog store, job queue, dump
// pipeline, scheduler, and HTTP API.

var (
	// Catalog Metrics
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Duration of catalog store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_query_errors_total",
			Help: "Total number of catalog store query errors",
		},
		[]string{"operation", "table"},
	)

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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
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

	// Scheduler Metrics
	SchedulerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_tick_duration_seconds",
			Help:    "Duration of a scheduler tick's due-database scan and enqueue pass",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SchedulerDatabasesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_databases_scanned_total",
			Help: "Total number of database+tier pairs evaluated across all ticks",
		},
	)

	SchedulerJobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_enqueued_total",
			Help: "Total number of backup jobs enqueued by the scheduler",
		},
		[]string{"tier"},
	)

	SchedulerTickErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_tick_errors_total",
			Help: "Total number of scheduler ticks that failed before completing",
		},
	)

	// Queue Metrics
	QueuePublishTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_publish_total",
			Help: "Total number of backup job messages published to the queue",
		},
	)

	QueueConsumeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_consume_total",
			Help: "Total number of backup job messages consumed from the queue",
		},
		[]string{"outcome"}, // "ack", "nak", "term"
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of pending messages in the backup job stream",
		},
	)

	QueuePoisonMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_poison_messages_total",
			Help: "Total number of messages terminated after exceeding the poison redelivery threshold",
		},
	)

	// Worker / Pipeline Metrics
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_job_duration_seconds",
			Help:    "Duration of a backup job from dequeue to completion",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"engine_type", "tier"},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_jobs_processed_total",
			Help: "Total number of backup jobs processed, by outcome",
		},
		[]string{"engine_type", "tier", "outcome"}, // outcome: "success", "failure"
	)

	DumpBytesWritten = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_dump_bytes_written",
			Help:    "Size in bytes of completed backup dumps after compression",
			Buckets: prometheus.ExponentialBuckets(1<<20, 4, 10), // 1MiB .. ~256GiB
		},
		[]string{"engine_type"},
	)

	WorkerPoolActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_pool_active_jobs",
			Help: "Current number of jobs being processed by the worker pool",
		},
	)

	// Retention Metrics
	RetentionResultsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_results_deleted_total",
			Help: "Total number of backup result records pruned by the retention pass",
		},
		[]string{"tier"},
	)

	RetentionPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retention_pass_duration_seconds",
			Help:    "Duration of the daily retention pruning pass",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordCatalogQuery records a catalog store query metric.
func RecordCatalogQuery(operation, table string, duration time.Duration, err error) {
	CatalogQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		CatalogQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSchedulerTick records the outcome of one scheduler tick.
func RecordSchedulerTick(duration time.Duration, scanned int, enqueuedByTier map[string]int, err error) {
	SchedulerTickDuration.Observe(duration.Seconds())
	SchedulerDatabasesScanned.Add(float64(scanned))
	for tier, count := range enqueuedByTier {
		SchedulerJobsEnqueued.WithLabelValues(tier).Add(float64(count))
	}
	if err != nil {
		SchedulerTickErrors.Inc()
	}
}

// RecordJobCompletion records a finished backup job.
func RecordJobCompletion(engineType, tier string, duration time.Duration, bytesWritten int64, success bool) {
	JobDuration.WithLabelValues(engineType, tier).Observe(duration.Seconds())
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	JobsProcessed.WithLabelValues(engineType, tier, outcome).Inc()
	if success && bytesWritten > 0 {
		DumpBytesWritten.WithLabelValues(engineType).Observe(float64(bytesWritten))
	}
}

// RecordRetentionPass records a completed retention pruning pass.
func RecordRetentionPass(duration time.Duration, deletedByTier map[string]int) {
	RetentionPassDuration.Observe(duration.Seconds())
	for tier, count := range deletedByTier {
		RetentionResultsDeleted.WithLabelValues(tier).Add(float64(count))
	}
}
