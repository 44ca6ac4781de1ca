// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package domain defines the tagged record types that cross every layer of
// the orchestrator: engines, databases, backup policies, jobs, results,
// audit entries, users, access requests, and app settings.
//
// Every entity that is persisted in the key-partitioned catalog or history
// store implements a symmetric pair of codec methods, ToRow/FromRow (or the
// job-specific ToMessage/FromMessage), so that storage concerns never leak
// dynamically-typed maps across package boundaries the way the source
// system's dict-based entities did. Row-key construction for BackupResult
// and AuditLog is considered part of the wire format, not an implementation
// detail, and must not change without a data migration.
package domain
