// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/logging"
)

// Appender is the subset of catalog.Store the recorder appends through,
// satisfied by *catalog.Store.
type Appender interface {
	AppendAudit(ctx context.Context, a *domain.AuditLog) error
}

// Recorder appends AuditLog entries without ever surfacing a failure to
// its caller.
type Recorder struct {
	store  Appender
	logger zerolog.Logger
}

// New builds a Recorder backed by store.
func New(store Appender) *Recorder {
	return &Recorder{store: store, logger: logging.WithComponent("audit")}
}

// Record appends one entry, logging and swallowing any error: the action
// being audited has already happened by the time Record is called, and a
// broken audit trail must never unwind it.
func (r *Recorder) Record(ctx context.Context, userID, action, resourceType, resourceID string, status domain.AuditStatus, details string) {
	entry := &domain.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       status,
		Details:      details,
	}
	if err := r.store.AppendAudit(ctx, entry); err != nil {
		r.logger.Warn().Err(err).
			Str("action", action).
			Str("resource_type", resourceType).
			Str("resource_id", resourceID).
			Msg("failed to append audit log entry")
	}
}

// Success is a convenience wrapper for Record with status=success.
func (r *Recorder) Success(ctx context.Context, userID, action, resourceType, resourceID, details string) {
	r.Record(ctx, userID, action, resourceType, resourceID, domain.AuditSuccess, details)
}

// Failure is a convenience wrapper for Record with status=failure.
func (r *Recorder) Failure(ctx context.Context, userID, action, resourceType, resourceID, details string) {
	r.Record(ctx, userID, action, resourceType, resourceID, domain.AuditFailure, details)
}

// RecordAsync appends in a background goroutine on a context detached
// from ctx's cancellation, bounded by a short timeout. Use this from HTTP
// handlers that must not let a slow audit write add to response latency;
// the worker pool and other background services should call Record
// directly since they already run off the request path.
func (r *Recorder) RecordAsync(userID, action, resourceType, resourceID string, status domain.AuditStatus, details string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.Record(ctx, userID, action, resourceType, resourceID, status, details)
	}()
}
