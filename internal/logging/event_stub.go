// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !nats

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// EventLogger provides specialized logging for event processing.
// This is a stub implementation for non-NATS builds.
type EventLogger struct{}

// NewEventLogger creates a logger configured for event processing.
func NewEventLogger() *EventLogger {
	return &EventLogger{}
}

// NewEventLoggerWithLogger creates an EventLogger with a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEventLoggerWithLogger(_ zerolog.Logger) *EventLogger {
	return &EventLogger{}
}

// WithFields returns a new EventLogger with additional default fields.
func (e *EventLogger) WithFields(_ map[string]interface{}) *EventLogger {
	return e
}

// Debug logs a debug message (no-op).
func (e *EventLogger) Debug(_ string, _ ...interface{}) {}

// Info logs an info message (no-op).
func (e *EventLogger) Info(_ string, _ ...interface{}) {}

// Warn logs a warning message (no-op).
func (e *EventLogger) Warn(_ string, _ ...interface{}) {}

// Error logs an error message (no-op).
func (e *EventLogger) Error(_ string, _ ...interface{}) {}

// DebugContext logs a debug message with context (no-op).
func (e *EventLogger) DebugContext(_ context.Context, _ string, _ ...interface{}) {}

// InfoContext logs an info message with context (no-op).
func (e *EventLogger) InfoContext(_ context.Context, _ string, _ ...interface{}) {}

// WarnContext logs a warning message with context (no-op).
func (e *EventLogger) WarnContext(_ context.Context, _ string, _ ...interface{}) {}

// ErrorContext logs an error message with context (no-op).
func (e *EventLogger) ErrorContext(_ context.Context, _ string, _ ...interface{}) {}

// LogJobReceived logs when a backup job message is received (no-op).
func (e *EventLogger) LogJobReceived(_ context.Context, _, _, _ string) {}

// LogJobProcessed logs when a backup job completes successfully (no-op).
func (e *EventLogger) LogJobProcessed(_ context.Context, _ string, _ int64) {}

// LogJobFailed logs when backup job processing fails (no-op).
func (e *EventLogger) LogJobFailed(_ context.Context, _ string, _ error) {}

// LogDuplicate logs when a duplicate job delivery is detected (no-op).
func (e *EventLogger) LogDuplicate(_ context.Context, _, _ string) {}

// LogPoisonMessage logs when a job is terminated as a poison message (no-op).
func (e *EventLogger) LogPoisonMessage(_ context.Context, _ string, _ error, _ int) {}

// LogJobPublished logs when a backup job is published to the queue (no-op).
func (e *EventLogger) LogJobPublished(_ context.Context, _, _ string) {}

// LogConsumerStarted logs when a queue consumer starts pulling messages (no-op).
func (e *EventLogger) LogConsumerStarted(_, _ string) {}

// LogConsumerStopped logs when a queue consumer stops (no-op).
func (e *EventLogger) LogConsumerStopped(_ string) {}
