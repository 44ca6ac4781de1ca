// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog is the control-plane store: engines, databases, backup
// policies, users, access requests, settings, audit log and backup result
// history, all persisted in one SQLite file and keyed by the domain
// package's (partition, row_key) scheme.
package catalog
