// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/logging"
	"github.com/dilux/backupd/internal/metrics"
)

// CatalogReader is the subset of catalog.Store the tick loop reads from.
type CatalogReader interface {
	ListDatabases(ctx context.Context, engineID string) ([]*domain.Database, error)
	GetEngine(ctx context.Context, id string) (*domain.Engine, error)
	GetPolicy(ctx context.Context, id string) (*domain.BackupPolicy, error)
	GetSettings(ctx context.Context) (*domain.AppSettings, error)
}

// HistoryReader is the subset of history.Store the tick loop reads from.
type HistoryReader interface {
	LastCompleted(ctx context.Context, databaseID string, tier domain.Tier) (*domain.BackupResult, error)
}

// Enqueuer is the subset of queue.Queue the tick loop publishes through.
type Enqueuer interface {
	Publish(ctx context.Context, job *domain.BackupJob) error
}

// TickService is the C1 scheduler: a fixed-cadence tick loop that scans
// enabled databases and enqueues at most one backup job per database per
// tick.
type TickService struct {
	catalog CatalogReader
	history HistoryReader
	queue   Enqueuer
	cfg     config.SchedulerConfig
	logger  zerolog.Logger

	policyCache sync.Map // policy id -> *domain.BackupPolicy
	engineCache sync.Map // engine id -> *domain.Engine
}

// NewTickService builds a TickService.
func NewTickService(catalog CatalogReader, history HistoryReader, queue Enqueuer, cfg config.SchedulerConfig) *TickService {
	return &TickService{
		catalog: catalog,
		history: history,
		queue:   queue,
		cfg:     cfg,
		logger:  logging.WithComponent("scheduler-tick"),
	}
}

// Serve implements suture.Service. It ticks immediately on start (so a
// freshly restarted scheduler doesn't wait a full interval before its
// first catch-up pass) and then on cfg.TickInterval until ctx is
// canceled.
func (t *TickService) Serve(ctx context.Context) error {
	t.logger.Info().Dur("interval", t.cfg.TickInterval).Msg("scheduler tick loop starting")

	ticker := time.NewTicker(t.cfg.TickInterval)
	defer ticker.Stop()

	t.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("scheduler tick loop stopping")
			return ctx.Err()
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// String implements fmt.Stringer for suture's service identification.
func (t *TickService) String() string {
	return "scheduler-tick"
}

// tick runs exactly one pass: §4.1 steps 1-6.
func (t *TickService) tick(ctx context.Context) {
	start := time.Now()
	t.policyCache = sync.Map{}
	t.engineCache = sync.Map{}

	now := domain.EnsureNaiveUTC(domain.Now())

	databases, err := t.catalog.ListDatabases(ctx, "")
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to list databases for scheduler tick")
		metrics.RecordSchedulerTick(time.Since(start), 0, nil, err)
		return
	}

	settings, err := t.catalog.GetSettings(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to load settings for scheduler tick")
		metrics.RecordSchedulerTick(time.Since(start), 0, nil, err)
		return
	}

	sem := make(chan struct{}, t.concurrency())
	var wg sync.WaitGroup
	var mu sync.Mutex
	enqueuedByTier := make(map[string]int)
	scanned := 0

	for _, d := range databases {
		if !d.Enabled {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(d *domain.Database) {
			defer wg.Done()
			defer func() { <-sem }()

			tier, err := t.evaluateDatabase(ctx, d, settings, now)
			mu.Lock()
			scanned++
			if err == nil && tier != "" {
				enqueuedByTier[string(tier)]++
			}
			mu.Unlock()
			if err != nil {
				t.logger.Error().Err(err).Str("database_id", d.ID).Msg("scheduler evaluation failed for database")
			}
		}(d)
	}
	wg.Wait()

	metrics.RecordSchedulerTick(time.Since(start), scanned, enqueuedByTier, nil)
	t.logger.Debug().
		Int("databases_scanned", scanned).
		Interface("enqueued_by_tier", enqueuedByTier).
		Dur("duration", time.Since(start)).
		Msg("scheduler tick complete")
}

func (t *TickService) concurrency() int {
	if t.cfg.TickConcurrency < 1 {
		return 8
	}
	return t.cfg.TickConcurrency
}

// evaluateDatabase resolves d's effective policy, walks its tiers in
// fixed order, and enqueues at most one job. It returns the tier that
// fired (empty if none did).
func (t *TickService) evaluateDatabase(ctx context.Context, d *domain.Database, settings *domain.AppSettings, now time.Time) (domain.Tier, error) {
	policy, err := t.resolvePolicy(ctx, d, settings)
	if err != nil {
		return "", err
	}

	for _, tier := range domain.TierOrder {
		tierCfg := policy.TierConfig(tier)
		if !tierCfg.Enabled {
			continue
		}

		last, err := t.history.LastCompleted(ctx, d.ID, tier)
		if err != nil {
			return "", err
		}
		var lastAt *time.Time
		if last != nil {
			lastAt = &last.CreatedAt
		}

		if !domain.ShouldRun(tier, tierCfg, lastAt, now) {
			continue
		}

		job, err := t.buildJob(ctx, d, tier, now)
		if err != nil {
			return "", err
		}
		if job == nil {
			// No resolvable credentials: logged by buildJob, skip this
			// database this tick without treating it as an error.
			return "", nil
		}
		if err := t.queue.Publish(ctx, job); err != nil {
			return "", err
		}
		return tier, nil
	}
	return "", nil
}

// resolvePolicy implements §4.1 step 4a, caching lookups within the tick.
func (t *TickService) resolvePolicy(ctx context.Context, d *domain.Database, settings *domain.AppSettings) (*domain.BackupPolicy, error) {
	policyID, err := resolveEffectivePolicyID(ctx, cachedEngineGetter{t}, d, settings.DefaultPolicyID)
	if err != nil {
		return nil, err
	}
	return t.getPolicy(ctx, policyID)
}

// cachedEngineGetter adapts TickService's cached getEngine to
// engineGetter, so resolveEffectivePolicyID benefits from the tick's
// engine cache too.
type cachedEngineGetter struct{ t *TickService }

func (c cachedEngineGetter) GetEngine(ctx context.Context, id string) (*domain.Engine, error) {
	return c.t.getEngine(ctx, id)
}

func (t *TickService) getPolicy(ctx context.Context, id string) (*domain.BackupPolicy, error) {
	if cached, ok := t.policyCache.Load(id); ok {
		return cached.(*domain.BackupPolicy), nil
	}
	policy, err := t.catalog.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	t.policyCache.Store(id, policy)
	return policy, nil
}

func (t *TickService) getEngine(ctx context.Context, id string) (*domain.Engine, error) {
	if id == "" {
		return nil, nil
	}
	if cached, ok := t.engineCache.Load(id); ok {
		return cached.(*domain.Engine), nil
	}
	engine, err := t.catalog.GetEngine(ctx, id)
	if err != nil {
		return nil, err
	}
	t.engineCache.Store(id, engine)
	return engine, nil
}

// buildJob implements §4.1 steps 5-6: resolve credentials (engine or
// database, per use_engine_credentials) and construct the queue message.
// Returns a nil job (not an error) when no username can be resolved, per
// the spec's "log error and skip this database" rule.
func (t *TickService) buildJob(ctx context.Context, d *domain.Database, tier domain.Tier, now time.Time) (*domain.BackupJob, error) {
	username := d.Username
	secretName := d.PasswordSecretName
	password := d.Password
	host := d.Host
	port := d.Port

	if d.UseEngineCredentials {
		engine, err := t.getEngine(ctx, d.EngineID)
		if err != nil {
			return nil, err
		}
		if engine != nil {
			username = engine.Username
			secretName = engine.PasswordSecretName
			password = engine.Password
			if host == "" {
				host = engine.Host
			}
			if port == 0 {
				port = engine.Port
			}
		}
	}

	if username == "" {
		t.logger.Error().Str("database_id", d.ID).Msg("no resolvable username, skipping scheduled backup")
		return nil, nil
	}

	return &domain.BackupJob{
		ID:                 uuid.NewString(),
		DatabaseID:         d.ID,
		DatabaseName:       d.Name,
		DatabaseType:       d.DatabaseType,
		Host:               host,
		Port:               port,
		TargetDatabase:     d.DatabaseName,
		Username:           username,
		PasswordSecretName: secretName,
		Password:           password,
		Compression:        d.Compression,
		BackupDestination:  d.BackupDestination,
		TriggeredBy:        domain.TriggeredByScheduler,
		Tier:               tierPtr(tier),
		ScheduledAt:        now,
		CreatedAt:          now,
	}, nil
}

func tierPtr(tier domain.Tier) *domain.Tier { return &tier }
