// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the C8 HTTP surface: the thin REST layer listed in
// SPEC_FULL.md §6, one handler function per route, routed with
// github.com/go-chi/chi/v5. The Server satisfies suture's Service contract
// so it runs as a supervised component of the API layer alongside the
// scheduler and worker pool.
package api
