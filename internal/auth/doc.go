// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth issues and validates the bearer tokens the HTTP API gates
// its routes behind, and hashes the passwords backing domain.User records.
// It implements the minimal static-credential authentication named in
// SPEC_FULL.md §4.8: a signed JWT carrying username and role, checked
// against the user catalog at login and on every subsequent request. Full
// OIDC/AD integration is out of scope.
package auth
