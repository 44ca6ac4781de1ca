// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package metrics provides Prometheus metrics collection and export for observability.

It instruments the catalog store, the job queue, the scheduler tick loop,
the worker pool and dump pipeline, and the retention pass, alongside
standard HTTP API metrics. Metrics are exposed at /metrics in Prometheus
text format for scraping.
*/
package metrics
