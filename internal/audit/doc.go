// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records AuditLog entries for user- and system-initiated
// actions against the catalog, per SPEC_FULL.md §4.6's
// "audit.append(entry) — fire-and-forget from the core; audit failures
// never fail the operation they describe" contract.
//
// Callers never branch on a Recorder's return value because it has none:
// a failed append is logged here and nowhere else propagates it.
package audit
