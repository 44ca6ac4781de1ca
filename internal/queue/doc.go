// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package queue implements the durable at-least-once job queue (§10) that
sits between the scheduler (C1) and the worker pool (C3): a JetStream
stream holding serialized domain.BackupJob messages, consumed through a
durable pull consumer with explicit ack/nak/term control.

A BackupJob is delivered at least once. The worker pool acks on success,
naks on a transient failure (triggering redelivery after AckWait), and
terms once a message's delivery count crosses the configured poison
threshold, moving it permanently out of the redelivery rotation.
*/
package queue
