// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package secrets resolves Engine and Database credentials at dispatch time.

An Engine or Database stores either a plaintext password (development mode
only), an encrypted password produced by config.CredentialEncryptor, or a
reference to a named secret resolved from the process environment
(password_secret_name). Resolution always happens at the point of use; the
canonical value for an inherited credential lives on the Engine (§3.5).
*/
package secrets
