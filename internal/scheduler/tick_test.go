// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
)

type fakeCatalog struct {
	databases []*domain.Database
	engines   map[string]*domain.Engine
	policies  map[string]*domain.BackupPolicy
	settings  *domain.AppSettings
}

func (f *fakeCatalog) ListDatabases(ctx context.Context, engineID string) ([]*domain.Database, error) {
	return f.databases, nil
}

func (f *fakeCatalog) GetEngine(ctx context.Context, id string) (*domain.Engine, error) {
	e, ok := f.engines[id]
	if !ok {
		return nil, domain.NewNotFoundError("engine not found")
	}
	return e, nil
}

func (f *fakeCatalog) GetPolicy(ctx context.Context, id string) (*domain.BackupPolicy, error) {
	p, ok := f.policies[id]
	if !ok {
		return nil, domain.NewNotFoundError("policy not found")
	}
	return p, nil
}

func (f *fakeCatalog) GetSettings(ctx context.Context) (*domain.AppSettings, error) {
	return f.settings, nil
}

type fakeHistory struct {
	last map[string]*domain.BackupResult // key: databaseID+"/"+tier
}

func (f *fakeHistory) LastCompleted(ctx context.Context, databaseID string, tier domain.Tier) (*domain.BackupResult, error) {
	return f.last[databaseID+"/"+string(tier)], nil
}

type fakeEnqueuer struct {
	published []*domain.BackupJob
}

func (f *fakeEnqueuer) Publish(ctx context.Context, job *domain.BackupJob) error {
	f.published = append(f.published, job)
	return nil
}

func hourlyOnlyPolicy(id string) *domain.BackupPolicy {
	return &domain.BackupPolicy{
		ID:     id,
		Hourly: domain.TierConfig{Enabled: true, KeepCount: 3, IntervalHours: 1},
	}
}

func TestTickService_FreshDatabase_EnqueuesOneJob(t *testing.T) {
	ctx := context.Background()
	db := &domain.Database{ID: "db-1", Name: "orders", Enabled: true, PolicyID: "p1", Username: "root", DatabaseType: domain.EngineMySQL}
	catalog := &fakeCatalog{
		databases: []*domain.Database{db},
		engines:   map[string]*domain.Engine{},
		policies:  map[string]*domain.BackupPolicy{"p1": hourlyOnlyPolicy("p1")},
		settings:  &domain.AppSettings{DefaultPolicyID: "p1"},
	}
	hist := &fakeHistory{last: map[string]*domain.BackupResult{}}
	enq := &fakeEnqueuer{}

	svc := NewTickService(catalog, hist, enq, config.SchedulerConfig{TickInterval: time.Hour, TickConcurrency: 8})
	svc.tick(ctx)

	require.Len(t, enq.published, 1)
	require.Equal(t, "db-1", enq.published[0].DatabaseID)
	require.Equal(t, domain.TierHourly, *enq.published[0].Tier)
	require.Equal(t, domain.TriggeredByScheduler, enq.published[0].TriggeredBy)
}

func TestTickService_MultiTierSameTick_StopsAtFirstFiring(t *testing.T) {
	ctx := context.Background()
	db := &domain.Database{ID: "db-1", Name: "orders", Enabled: true, PolicyID: "p1", Username: "root", DatabaseType: domain.EngineMySQL}
	policy := &domain.BackupPolicy{
		ID:      "p1",
		Hourly:  domain.TierConfig{Enabled: true, KeepCount: 3, IntervalHours: 1},
		Daily:   domain.TierConfig{Enabled: true, KeepCount: 7, Time: "02:00"},
		Weekly:  domain.TierConfig{Enabled: true, KeepCount: 4, DayOfWeek: 0, Time: "03:00"},
	}
	catalog := &fakeCatalog{
		databases: []*domain.Database{db},
		engines:   map[string]*domain.Engine{},
		policies:  map[string]*domain.BackupPolicy{"p1": policy},
		settings:  &domain.AppSettings{DefaultPolicyID: "p1"},
	}
	hist := &fakeHistory{last: map[string]*domain.BackupResult{}}
	enq := &fakeEnqueuer{}

	svc := NewTickService(catalog, hist, enq, config.SchedulerConfig{TickInterval: time.Hour, TickConcurrency: 8})
	svc.tick(ctx)

	require.Len(t, enq.published, 1)
	require.Equal(t, domain.TierHourly, *enq.published[0].Tier)
}

func TestTickService_DisabledDatabase_Skipped(t *testing.T) {
	ctx := context.Background()
	db := &domain.Database{ID: "db-1", Enabled: false, PolicyID: "p1", Username: "root"}
	catalog := &fakeCatalog{
		databases: []*domain.Database{db},
		policies:  map[string]*domain.BackupPolicy{"p1": hourlyOnlyPolicy("p1")},
		settings:  &domain.AppSettings{DefaultPolicyID: "p1"},
	}
	hist := &fakeHistory{last: map[string]*domain.BackupResult{}}
	enq := &fakeEnqueuer{}

	svc := NewTickService(catalog, hist, enq, config.SchedulerConfig{TickInterval: time.Hour, TickConcurrency: 8})
	svc.tick(ctx)

	require.Empty(t, enq.published)
}

func TestTickService_NoUsernameResolvable_SkipsWithoutError(t *testing.T) {
	ctx := context.Background()
	db := &domain.Database{ID: "db-1", Enabled: true, PolicyID: "p1"}
	catalog := &fakeCatalog{
		databases: []*domain.Database{db},
		policies:  map[string]*domain.BackupPolicy{"p1": hourlyOnlyPolicy("p1")},
		settings:  &domain.AppSettings{DefaultPolicyID: "p1"},
	}
	hist := &fakeHistory{last: map[string]*domain.BackupResult{}}
	enq := &fakeEnqueuer{}

	svc := NewTickService(catalog, hist, enq, config.SchedulerConfig{TickInterval: time.Hour, TickConcurrency: 8})
	svc.tick(ctx)

	require.Empty(t, enq.published)
}

func TestTickService_UsesEngineCredentialsAndPolicy(t *testing.T) {
	ctx := context.Background()
	db := &domain.Database{
		ID: "db-1", Enabled: true, EngineID: "eng-1",
		UseEngineCredentials: true, UseEnginePolicy: true,
		DatabaseType: domain.EngineMySQL,
	}
	engine := &domain.Engine{
		ID: "eng-1", Username: "svc_backup", Password: "stored",
		Host: "db.internal", Port: 3306, PolicyID: "p-engine",
	}
	catalog := &fakeCatalog{
		databases: []*domain.Database{db},
		engines:   map[string]*domain.Engine{"eng-1": engine},
		policies:  map[string]*domain.BackupPolicy{"p-engine": hourlyOnlyPolicy("p-engine")},
		settings:  &domain.AppSettings{DefaultPolicyID: "production-standard"},
	}
	hist := &fakeHistory{last: map[string]*domain.BackupResult{}}
	enq := &fakeEnqueuer{}

	svc := NewTickService(catalog, hist, enq, config.SchedulerConfig{TickInterval: time.Hour, TickConcurrency: 8})
	svc.tick(ctx)

	require.Len(t, enq.published, 1)
	job := enq.published[0]
	require.Equal(t, "svc_backup", job.Username)
	require.Equal(t, "db.internal", job.Host)
	require.Equal(t, 3306, job.Port)
}

func TestTickService_HourlyRespectsInterval(t *testing.T) {
	ctx := context.Background()
	db := &domain.Database{ID: "db-1", Enabled: true, PolicyID: "p1", Username: "root"}
	catalog := &fakeCatalog{
		databases: []*domain.Database{db},
		policies:  map[string]*domain.BackupPolicy{"p1": hourlyOnlyPolicy("p1")},
		settings:  &domain.AppSettings{DefaultPolicyID: "p1"},
	}
	recent := domain.EnsureNaiveUTC(domain.Now().Add(-10 * time.Minute))
	hist := &fakeHistory{last: map[string]*domain.BackupResult{
		"db-1/hourly": {CreatedAt: recent, Status: domain.StatusCompleted},
	}}
	enq := &fakeEnqueuer{}

	svc := NewTickService(catalog, hist, enq, config.SchedulerConfig{TickInterval: time.Hour, TickConcurrency: 8})
	svc.tick(ctx)

	require.Empty(t, enq.published)
}
