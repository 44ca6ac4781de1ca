// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package scheduler implements the C1 tick loop and the C5 retention timer:
the two time-driven services that decide when backups run and when old
results get pruned.

TickService wakes every SchedulerConfig.TickInterval, scans enabled
databases, and for each one walks its policy's tiers in fixed order
(hourly, daily, weekly, monthly, yearly), enqueuing at most one job for
the first tier whose schedule predicate fires. RetentionTimerService
wakes on a configurable cron schedule and runs history's tiered
retention pass against every database in the catalog.

Both are suture.Service implementations meant to be added to the
scheduling-layer supervisor; a failure in one never affects the other or
the worker pool.
*/
package scheduler
