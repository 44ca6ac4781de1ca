// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package blobstore implements the local-filesystem-backed object store that
holds completed backup artifacts.

Blobs are addressed by a name of the form database_type/database_id/timestamp.ext
(§3, §9), written atomically via a temp-file-then-rename so a reader never
observes a partially-written artifact, and never deleted except by the
retention pass or an explicit API delete.
*/
package blobstore
