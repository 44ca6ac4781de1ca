// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package history implements C5: the durable record of backup execution
attempts (§4.5) and the daily tiered retention pass that prunes them.

BackupResult rows are keyed so that ascending row-key iteration within a
partition yields reverse-chronological order (domain.ResultRowKey); this
package never re-derives that encoding, only stores and queries by it.
*/
package history
