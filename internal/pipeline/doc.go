// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline implements C4: dispatching a BackupJob to the
// engine-appropriate dump tool, streaming its output through optional gzip
// compression and a running checksum, and uploading the result to the blob
// store.
//
// Execute runs the stages in order: credential resolution, engine
// dispatch, subprocess execution with a hard timeout, compression, upload,
// and result recording. Each stage's failure surfaces as a
// *domain.DomainError of the appropriate kind so the worker can record it
// on the BackupResult without inspecting lower-level error types.
//
// TestConnection and Discover are lighter-weight variants used by the
// corresponding HTTP endpoints rather than the scheduled backup path.
package pipeline
