// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package domain

import (
	"fmt"
	"strings"
	"time"
)

// ResultStatus is the lifecycle state of one backup execution attempt.
type ResultStatus string

const (
	StatusPending    ResultStatus = "pending"
	StatusInProgress ResultStatus = "in_progress"
	StatusCompleted  ResultStatus = "completed"
	StatusFailed     ResultStatus = "failed"
	StatusCancelled  ResultStatus = "cancelled"
)

// maxTicks is .NET's DateTime.MaxValue.Ticks: the largest tick value any
// realistic timestamp subtracts from, guaranteeing the inverted value is
// always non-negative and always fits in 19 digits. A tick is 100ns, so
// ticks(t) = unix_seconds(t) * 10_000_000. This constant and the row-key
// format below are a wire format, not an implementation detail: existing
// data depends on it (§9, §11).
const maxTicks int64 = 3155378975999999999

// maxMicros is the inversion base for AuditLog row keys: the largest
// uint64 value, used so (maxMicros - micros(t)) never underflows for any
// timestamp after the Unix epoch.
const maxMicros uint64 = 18446744073709551615

// ticksOf converts t to .NET-style 100ns ticks since the Unix epoch, the
// same unit the inverted BackupResult row key is built from.
func ticksOf(t time.Time) int64 {
	return t.UnixNano() / 100
}

// BackupResult is the durable history record of one execution attempt.
type BackupResult struct {
	ID              string       `json:"id"`
	JobID           string       `json:"job_id"`
	DatabaseID      string       `json:"database_id"`
	DatabaseName    string       `json:"database_name"`
	DatabaseType    EngineType   `json:"database_type"`
	Status          ResultStatus `json:"status"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	DurationSeconds float64      `json:"duration_seconds,omitempty"`
	BlobName        string       `json:"blob_name,omitempty"`
	BlobURL         string       `json:"blob_url,omitempty"`
	FileSizeBytes   int64        `json:"file_size_bytes,omitempty"`
	FileFormat      string       `json:"file_format,omitempty"`
	Checksum        string       `json:"checksum,omitempty"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	ErrorDetails    string       `json:"error_details,omitempty"`
	RetryCount      int          `json:"retry_count"`
	TriggeredBy     TriggeredBy  `json:"triggered_by"`
	Tier            *Tier        `json:"tier"`
	CreatedAt       time.Time    `json:"created_at"`
}

// EffectiveTier returns the result's tier, treating a nil tier (manual
// triggers, or legacy records) as TierDaily per §4.5's read-path rule.
func (r *BackupResult) EffectiveTier() Tier {
	if r.Tier == nil {
		return TierDaily
	}
	return *r.Tier
}

// MarkStarted transitions a freshly-created result into pending, fixing
// CreatedAt (and therefore the row key) for the remainder of its lifecycle.
func (r *BackupResult) MarkStarted(now time.Time) {
	r.Status = StatusPending
	r.CreatedAt = ensureNaiveUTC(now)
}

// MarkInProgress records the moment execution actually begins.
func (r *BackupResult) MarkInProgress(now time.Time) {
	r.Status = StatusInProgress
	started := ensureNaiveUTC(now)
	r.StartedAt = &started
}

// MarkCompleted finalizes a successful run.
func (r *BackupResult) MarkCompleted(now time.Time, blobName, blobURL, fileFormat, checksum string, size int64) {
	r.Status = StatusCompleted
	completed := ensureNaiveUTC(now)
	r.CompletedAt = &completed
	r.BlobName = blobName
	r.BlobURL = blobURL
	r.FileFormat = fileFormat
	r.Checksum = checksum
	r.FileSizeBytes = size
	if r.StartedAt != nil {
		r.DurationSeconds = completed.Sub(*r.StartedAt).Seconds()
	}
}

// MarkFailed finalizes a failed run with a human-readable message and an
// error kind.
func (r *BackupResult) MarkFailed(now time.Time, message, kind string) {
	r.Status = StatusFailed
	completed := ensureNaiveUTC(now)
	r.CompletedAt = &completed
	r.ErrorMessage = message
	r.ErrorDetails = kind
	if r.StartedAt != nil {
		r.DurationSeconds = completed.Sub(*r.StartedAt).Seconds()
	}
}

// ResultRowKey builds the inverted-timestamp row key per §3:
//
//	row_key = fmt(MAX_TICKS - ticks(created_at), "019d") + "_" + id
//
// Lexicographic ascending order on this key equals chronological descending
// order on created_at, which every read path and the retention pass rely
// on.
func ResultRowKey(createdAt time.Time, id string) string {
	inverted := maxTicks - ticksOf(ensureNaiveUTC(createdAt))
	return fmt.Sprintf("%019d_%s", inverted, id)
}

// ResultPartition is the partition a result belongs to: YYYY-MM-DD of its
// CreatedAt.
func ResultPartition(createdAt time.Time) string {
	return ensureNaiveUTC(createdAt).Format("2006-01-02")
}

// Row returns the (partition, row_key) pair for r.
func (r *BackupResult) Row() (partition, row string) {
	return ResultPartition(r.CreatedAt), ResultRowKey(r.CreatedAt, r.ID)
}

// ResultIDFromRowKey recovers the BackupResult id from a row key,
// preserving the source format's legacy fallback: a row key with no
// underscore, or one no longer than 20 characters, is treated as being the
// id itself rather than an inverted-ticks-prefixed key.
func ResultIDFromRowKey(rowKey string) string {
	if idx := strings.Index(rowKey, "_"); idx >= 0 && len(rowKey) > 20 {
		return rowKey[idx+1:]
	}
	return rowKey
}

// AuditRowKey builds the inverted-timestamp row key for an AuditLog entry:
//
//	row_key = fmt(MAX_U64 - micros(timestamp), "016d") + "_" + id
func AuditRowKey(timestamp time.Time, id string) string {
	micros := uint64(ensureNaiveUTC(timestamp).UnixMicro())
	inverted := maxMicros - micros
	return fmt.Sprintf("%016d_%s", inverted, id)
}

// AuditPartition is the partition an AuditLog entry belongs to: YYYYMM of
// its timestamp.
func AuditPartition(timestamp time.Time) string {
	return ensureNaiveUTC(timestamp).Format("200601")
}
