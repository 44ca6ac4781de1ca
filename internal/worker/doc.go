// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worker implements the C3 worker pool: a small set of long-lived
// goroutines that pull BackupJobs off the queue one at a time, drive them
// through the backup pipeline, and record the outcome in the history
// store, per SPEC_FULL.md §4.3.
//
// Each worker owns the full lifecycle of one job at a time: it writes a
// pending BackupResult before the pipeline ever runs (the "started"
// marker), flips it to in_progress, invokes the pipeline, and finalizes
// it as completed or failed. The queue message is acked on success,
// termed once a delivery has crossed the poison threshold, and nak'd
// otherwise so the queue's own visibility-timeout mechanism drives the
// next retry. No separate retry bookkeeping exists outside the queue.
package worker
