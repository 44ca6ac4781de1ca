// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/history"
	"github.com/dilux/backupd/internal/logging"
	"github.com/dilux/backupd/internal/metrics"
)

// PolicyReader is the subset of catalog.Store the retention timer reads
// policies through.
type PolicyReader interface {
	ListDatabases(ctx context.Context, engineID string) ([]*domain.Database, error)
	GetEngine(ctx context.Context, id string) (*domain.Engine, error)
	GetPolicy(ctx context.Context, id string) (*domain.BackupPolicy, error)
	GetSettings(ctx context.Context) (*domain.AppSettings, error)
}

// RetentionRunner is the subset of history.Store the retention timer
// drives; satisfied by *history.Store.
type RetentionRunner interface {
	RunRetentionPass(ctx context.Context, databaseID string, policy *domain.BackupPolicy, blobs history.BlobDeleter) (*history.RetentionResult, error)
}

// RetentionTimerService is part of C5: a daily cron-scheduled pass that
// applies each database's policy's tiered retention rules against its
// completed BackupResults.
type RetentionTimerService struct {
	catalog PolicyReader
	history RetentionRunner
	blobs   history.BlobDeleter
	cfg     config.SchedulerConfig
	logger  zerolog.Logger
}

// NewRetentionTimerService builds a RetentionTimerService.
func NewRetentionTimerService(catalog PolicyReader, historyStore RetentionRunner, blobs history.BlobDeleter, cfg config.SchedulerConfig) *RetentionTimerService {
	return &RetentionTimerService{
		catalog: catalog,
		history: historyStore,
		blobs:   blobs,
		cfg:     cfg,
		logger:  logging.WithComponent("retention-timer"),
	}
}

// Serve implements suture.Service: it registers the configured cron
// expression and blocks until ctx is canceled.
func (s *RetentionTimerService) Serve(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(s.cfg.RetentionCron, func() {
		s.runPass(context.Background())
	})
	if err != nil {
		return domain.NewValidationError("invalid retention cron expression: " + err.Error())
	}

	s.logger.Info().Str("cron", s.cfg.RetentionCron).Msg("retention timer starting")
	c.Start()
	defer func() {
		stopCtx := c.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(30 * time.Second):
		}
	}()

	<-ctx.Done()
	s.logger.Info().Msg("retention timer stopping")
	return ctx.Err()
}

// String implements fmt.Stringer for suture's service identification.
func (s *RetentionTimerService) String() string {
	return "retention-timer"
}

// runPass applies retention for every database in the catalog, per §4.5.
// Per-database errors are collected and logged; the pass always
// continues to the next database.
func (s *RetentionTimerService) runPass(ctx context.Context) {
	start := time.Now()
	s.logger.Info().Msg("retention pass starting")

	databases, err := s.catalog.ListDatabases(ctx, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list databases for retention pass")
		return
	}

	settings, err := s.catalog.GetSettings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load settings for retention pass")
		return
	}

	deletedByTier := make(map[string]int)
	var failures int

	for _, d := range databases {
		policyID, err := resolveEffectivePolicyID(ctx, s.catalog, d, settings.DefaultPolicyID)
		if err != nil {
			s.logger.Error().Err(err).Str("database_id", d.ID).Msg("failed to resolve policy for retention pass")
			failures++
			continue
		}
		policy, err := s.catalog.GetPolicy(ctx, policyID)
		if err != nil {
			s.logger.Error().Err(err).Str("database_id", d.ID).Msg("failed to load policy for retention pass")
			failures++
			continue
		}

		result, err := s.history.RunRetentionPass(ctx, d.ID, policy, s.blobs)
		if err != nil {
			s.logger.Error().Err(err).Str("database_id", d.ID).Msg("retention pass failed for database")
			failures++
			continue
		}
		for _, rerr := range result.Errors {
			s.logger.Error().Err(rerr).Str("database_id", d.ID).Msg("retention pass record error")
		}
		for tier, count := range result.DeletedByTier {
			deletedByTier[string(tier)] += count
		}
	}

	metrics.RecordRetentionPass(time.Since(start), deletedByTier)
	s.logger.Info().
		Int("databases", len(databases)).
		Int("failures", failures).
		Interface("deleted_by_tier", deletedByTier).
		Dur("duration", time.Since(start)).
		Msg("retention pass complete")
}
