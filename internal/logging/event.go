// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build nats

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// EventLogger provides specialized logging for backup job queue processing.
// This logger is designed for NATS JetStream consumers with domain-specific
// methods for common job lifecycle events.
type EventLogger struct {
	logger zerolog.Logger
}

// NewEventLogger creates a logger configured for event processing.
// If logger is nil, uses the global logger with component field.
func NewEventLogger() *EventLogger {
	return &EventLogger{
		logger: With().Str("component", "eventprocessor").Logger(),
	}
}

// NewEventLoggerWithLogger creates an EventLogger with a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value (copy-on-write semantics)
func NewEventLoggerWithLogger(logger zerolog.Logger) *EventLogger {
	return &EventLogger{
		logger: logger.With().Str("component", "eventprocessor").Logger(),
	}
}

// WithFields returns a new EventLogger with additional default fields.
func (e *EventLogger) WithFields(fields map[string]interface{}) *EventLogger {
	ctx := e.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &EventLogger{logger: ctx.Logger()}
}

// Debug logs a debug message.
func (e *EventLogger) Debug(msg string, fields ...interface{}) {
	event := e.logger.Debug()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// Info logs an info message.
func (e *EventLogger) Info(msg string, fields ...interface{}) {
	event := e.logger.Info()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// Warn logs a warning message.
func (e *EventLogger) Warn(msg string, fields ...interface{}) {
	event := e.logger.Warn()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// Error logs an error message.
func (e *EventLogger) Error(msg string, fields ...interface{}) {
	event := e.logger.Error()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// DebugContext logs a debug message with context (for correlation ID).
func (e *EventLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	logger := e.loggerWithContext(ctx)
	event := logger.Debug()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// InfoContext logs an info message with context.
func (e *EventLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	logger := e.loggerWithContext(ctx)
	event := logger.Info()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// WarnContext logs a warning message with context.
func (e *EventLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	logger := e.loggerWithContext(ctx)
	event := logger.Warn()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// ErrorContext logs an error message with context.
func (e *EventLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	logger := e.loggerWithContext(ctx)
	event := logger.Error()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// loggerWithContext returns a logger with context fields added.
func (e *EventLogger) loggerWithContext(ctx context.Context) zerolog.Logger {
	logCtx := e.logger.With()

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logCtx = logCtx.Str("request_id", requestID)
	}

	return logCtx.Logger()
}

// ============================================================
// Job Queue Logging Methods
// ============================================================

// LogJobReceived logs when a backup job message is received from the queue.
func (e *EventLogger) LogJobReceived(ctx context.Context, jobID, databaseID, engineType string) {
	e.InfoContext(ctx, "job received",
		"job_id", jobID,
		"database_id", databaseID,
		"engine_type", engineType,
	)
}

// LogJobProcessed logs when a backup job completes successfully.
func (e *EventLogger) LogJobProcessed(ctx context.Context, jobID string, durationMs int64) {
	e.InfoContext(ctx, "job processed",
		"job_id", jobID,
		"duration_ms", durationMs,
	)
}

// LogJobFailed logs when backup job processing fails.
func (e *EventLogger) LogJobFailed(ctx context.Context, jobID string, err error) {
	logger := e.loggerWithContext(ctx)
	event := logger.Error().
		Str("job_id", jobID).
		Err(err)
	event.Msg("job processing failed")
}

// LogDuplicate logs when a duplicate job delivery is detected.
func (e *EventLogger) LogDuplicate(ctx context.Context, jobID, reason string) {
	e.DebugContext(ctx, "duplicate job skipped",
		"job_id", jobID,
		"reason", reason,
	)
}

// LogPoisonMessage logs when a job is terminated after exceeding the poison
// redelivery threshold.
func (e *EventLogger) LogPoisonMessage(ctx context.Context, jobID string, err error, deliveryCount int) {
	logger := e.loggerWithContext(ctx)
	event := logger.Warn().
		Str("job_id", jobID).
		Err(err).
		Int("delivery_count", deliveryCount)
	event.Msg("job terminated as poison message")
}

// LogJobPublished logs when a backup job is published to the queue.
func (e *EventLogger) LogJobPublished(ctx context.Context, jobID, subject string) {
	e.DebugContext(ctx, "job published",
		"job_id", jobID,
		"subject", subject,
	)
}

// LogConsumerStarted logs when a queue consumer starts pulling messages.
func (e *EventLogger) LogConsumerStarted(stream, durable string) {
	e.Info("consumer started",
		"stream", stream,
		"durable", durable,
	)
}

// LogConsumerStopped logs when a queue consumer stops.
func (e *EventLogger) LogConsumerStopped(stream string) {
	e.Info("consumer stopped",
		"stream", stream,
	)
}
