// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/pipeline"
	"github.com/dilux/backupd/internal/queue"
)

func testQueueConfig(t *testing.T) config.QueueConfig {
	t.Helper()
	return config.QueueConfig{
		EmbeddedServer:  true,
		StoreDir:        t.TempDir(),
		StreamName:      "BACKUP_JOBS_" + t.Name(),
		DurableConsumer: "worker-pool",
		WorkerAckWait:   2 * time.Second,
		PoisonThreshold: 5,
	}
}

func testJob(id string) *domain.BackupJob {
	tier := domain.TierDaily
	return &domain.BackupJob{
		ID:             id,
		DatabaseID:     "db-1",
		DatabaseName:   "orders",
		DatabaseType:   domain.EngineMySQL,
		Host:           "localhost",
		Port:           3306,
		TargetDatabase: "orders",
		Username:       "root",
		TriggeredBy:    domain.TriggeredByScheduler,
		Tier:           &tier,
		ScheduledAt:    time.Now().UTC(),
		CreatedAt:      time.Now().UTC(),
	}
}

type fakeExecutor struct {
	mu     sync.Mutex
	calls  int
	err    error
	result *pipeline.Result
}

func (f *fakeExecutor) Execute(_ context.Context, _ *domain.BackupJob) (*pipeline.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHistory struct {
	mu   sync.Mutex
	puts []domain.BackupResult
}

func (f *fakeHistory) Put(_ context.Context, r *domain.BackupResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, *r)
	return nil
}

func (f *fakeHistory) snapshot() []domain.BackupResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.BackupResult, len(f.puts))
	copy(out, f.puts)
	return out
}

type fakeAudit struct {
	mu      sync.Mutex
	records []string
}

func (f *fakeAudit) Record(_ context.Context, _, action, _, _ string, status domain.AuditStatus, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, action+":"+string(status))
}

func TestPool_ProcessesJobSuccessfully(t *testing.T) {
	ctx := context.Background()
	q, err := queue.Connect(ctx, testQueueConfig(t))
	require.NoError(t, err)
	t.Cleanup(q.Close)

	require.NoError(t, q.Publish(ctx, testJob("job-1")))

	exec := &fakeExecutor{result: &pipeline.Result{
		BlobName:      "mysql/db-1/20260730_120000.sql",
		BlobURL:       "file:///data/mysql/db-1/20260730_120000.sql",
		FileSizeBytes: 42,
		FileFormat:    "sql",
		Checksum:      "deadbeef",
	}}
	hist := &fakeHistory{}
	aud := &fakeAudit{}
	pool := NewPool(q, exec, hist, aud, config.WorkerConfig{PoolSize: 1})

	poolCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- pool.Serve(poolCtx) }()

	require.Eventually(t, func() bool {
		return len(hist.snapshot()) >= 3
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	puts := hist.snapshot()
	require.Len(t, puts, 3)
	require.Equal(t, domain.StatusPending, puts[0].Status)
	require.Equal(t, domain.StatusInProgress, puts[1].Status)
	require.Equal(t, domain.StatusCompleted, puts[2].Status)
	require.Equal(t, "mysql/db-1/20260730_120000.sql", puts[2].BlobName)
	require.Equal(t, 1, exec.callCount())

	aud.mu.Lock()
	defer aud.mu.Unlock()
	require.Contains(t, aud.records, "backup.execute:success")
}

func TestPool_PoisonMessageIsTermedAfterThreshold(t *testing.T) {
	ctx := context.Background()
	cfg := testQueueConfig(t)
	cfg.PoisonThreshold = 1
	q, err := queue.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(q.Close)

	require.NoError(t, q.Publish(ctx, testJob("job-poison")))

	exec := &fakeExecutor{err: domain.NewBackupExecutionError("mysqldump failed: access denied", nil)}
	hist := &fakeHistory{}
	aud := &fakeAudit{}
	pool := NewPool(q, exec, hist, aud, config.WorkerConfig{PoolSize: 1})

	poolCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- pool.Serve(poolCtx) }()

	require.Eventually(t, func() bool {
		return exec.callCount() >= 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	puts := hist.snapshot()
	require.Len(t, puts, 6) // pending, in_progress, failed — twice (one per delivery)
	last := puts[len(puts)-1]
	require.Equal(t, domain.StatusFailed, last.Status)
	require.Equal(t, 2, last.RetryCount)
	require.Contains(t, last.ErrorMessage, "access denied")

	aud.mu.Lock()
	defer aud.mu.Unlock()
	require.Contains(t, aud.records, "backup.execute:failure")
}

func TestPool_DefaultPoolSize(t *testing.T) {
	pool := NewPool(nil, nil, nil, nil, config.WorkerConfig{})
	require.Equal(t, 5, pool.poolSize())

	pool = NewPool(nil, nil, nil, nil, config.WorkerConfig{PoolSize: 3})
	require.Equal(t, 3, pool.poolSize())
}

func TestPool_String(t *testing.T) {
	pool := NewPool(nil, nil, nil, nil, config.WorkerConfig{})
	require.Equal(t, "worker-pool", pool.String())
}
