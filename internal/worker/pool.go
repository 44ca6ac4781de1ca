// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/logging"
	"github.com/dilux/backupd/internal/metrics"
	"github.com/dilux/backupd/internal/pipeline"
	"github.com/dilux/backupd/internal/queue"
)

// fetchWait bounds each poll for work so a worker rechecks ctx between
// long-poll attempts instead of blocking for the full visibility window
// with nothing queued.
const fetchWait = 5 * time.Second

// Fetcher is the subset of queue.Queue a worker pulls jobs through,
// satisfied by *queue.Queue.
type Fetcher interface {
	Fetch(ctx context.Context, batchSize int, maxWait time.Duration) ([]*queue.Message, error)
}

// Executor is the subset of pipeline.Pipeline a worker drives a job
// through, satisfied by *pipeline.Pipeline.
type Executor interface {
	Execute(ctx context.Context, job *domain.BackupJob) (*pipeline.Result, error)
}

// HistoryWriter is the subset of history.Store a worker persists
// BackupResult transitions through, satisfied by *history.Store.
type HistoryWriter interface {
	Put(ctx context.Context, r *domain.BackupResult) error
}

// AuditRecorder is the subset of audit.Recorder a worker appends
// completion entries through, satisfied by *audit.Recorder.
type AuditRecorder interface {
	Record(ctx context.Context, userID, action, resourceType, resourceID string, status domain.AuditStatus, details string)
}

// Pool is the C3 worker pool: poolSize long-lived goroutines, each
// running its own fetch-process loop independently of the others.
type Pool struct {
	queue    Fetcher
	pipeline Executor
	history  HistoryWriter
	audit    AuditRecorder
	cfg      config.WorkerConfig
	logger   zerolog.Logger
}

// NewPool builds a Pool.
func NewPool(q Fetcher, p Executor, h HistoryWriter, a AuditRecorder, cfg config.WorkerConfig) *Pool {
	return &Pool{
		queue:    q,
		pipeline: p,
		history:  h,
		audit:    a,
		cfg:      cfg,
		logger:   logging.WithComponent("worker-pool"),
	}
}

func (p *Pool) poolSize() int {
	if p.cfg.PoolSize < 1 {
		return 5
	}
	return p.cfg.PoolSize
}

// Serve implements suture.Service, running poolSize workers until ctx is
// canceled.
func (p *Pool) Serve(ctx context.Context) error {
	size := p.poolSize()
	p.logger.Info().Int("pool_size", size).Msg("worker pool starting")

	var wg sync.WaitGroup
	wg.Add(size)
	for i := 0; i < size; i++ {
		go func(id int) {
			defer wg.Done()
			p.run(ctx, id)
		}(i)
	}
	wg.Wait()

	p.logger.Info().Msg("worker pool stopped")
	return ctx.Err()
}

// String implements fmt.Stringer for suture's service identification.
func (p *Pool) String() string {
	return "worker-pool"
}

// run is one worker's fetch-process loop: receive(1, visibility_timeout),
// process, repeat, observing ctx between messages.
func (p *Pool) run(ctx context.Context, id int) {
	log := p.logger.With().Int("worker_id", id).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := p.queue.Fetch(ctx, 1, fetchWait)
		if err != nil {
			log.Error().Err(err).Msg("fetch failed")
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		for _, msg := range msgs {
			p.process(ctx, msg)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// process runs one job through its full pending -> in_progress ->
// completed/failed lifecycle and resolves the queue message's
// ack/nak/term outcome, per §4.3 step 2.
func (p *Pool) process(ctx context.Context, msg *queue.Message) {
	job := msg.Job
	log := p.logger.With().Str("job_id", job.ID).Str("database_id", job.DatabaseID).Logger()

	result := &domain.BackupResult{
		JobID:        job.ID,
		DatabaseID:   job.DatabaseID,
		DatabaseName: job.DatabaseName,
		DatabaseType: job.DatabaseType,
		TriggeredBy:  job.TriggeredBy,
		Tier:         job.Tier,
	}
	result.MarkStarted(domain.Now())
	if err := p.history.Put(ctx, result); err != nil {
		log.Error().Err(err).Msg("failed to persist pending backup result")
		if nakErr := msg.Nak(); nakErr != nil {
			log.Error().Err(nakErr).Msg("failed to nak message after pending-write failure")
		}
		return
	}

	result.MarkInProgress(domain.Now())
	if err := p.history.Put(ctx, result); err != nil {
		log.Error().Err(err).Msg("failed to persist in-progress backup result")
	}

	// Single well-defined cancellation point between queue receipt and
	// pipeline invocation: a shutdown signal arriving here lets the job
	// redeliver cleanly instead of starting a dump that would immediately
	// be killed by the canceled context.
	if ctx.Err() != nil {
		_ = msg.Nak()
		return
	}

	started := time.Now()
	pr, execErr := p.pipeline.Execute(ctx, job)
	duration := time.Since(started)
	tier := string(result.EffectiveTier())

	if execErr != nil {
		p.finishFailed(ctx, log, msg, result, execErr, duration, tier)
		return
	}
	p.finishCompleted(ctx, log, msg, result, pr, duration, tier)
}

func (p *Pool) finishFailed(ctx context.Context, log zerolog.Logger, msg *queue.Message, result *domain.BackupResult, execErr error, duration time.Duration, tier string) {
	kind, _ := domain.KindOf(execErr)
	result.RetryCount = int(msg.DeliveryCount())
	result.MarkFailed(domain.Now(), execErr.Error(), string(kind))
	if err := p.history.Put(ctx, result); err != nil {
		log.Error().Err(err).Msg("failed to persist failed backup result")
	}
	metrics.RecordJobCompletion(string(result.DatabaseType), tier, duration, 0, false)
	if p.audit != nil {
		p.audit.Record(ctx, "", "backup.execute", "database", result.DatabaseID, domain.AuditFailure, execErr.Error())
	}

	if msg.IsPoison() {
		log.Warn().Uint64("delivery_count", msg.DeliveryCount()).Msg("backup job exceeded poison threshold, terminating")
		if err := msg.Term(); err != nil {
			log.Error().Err(err).Msg("failed to term poison message")
		}
		return
	}
	if err := msg.Nak(); err != nil {
		log.Error().Err(err).Msg("failed to nak failed message")
	}
}

func (p *Pool) finishCompleted(ctx context.Context, log zerolog.Logger, msg *queue.Message, result *domain.BackupResult, pr *pipeline.Result, duration time.Duration, tier string) {
	result.MarkCompleted(domain.Now(), pr.BlobName, pr.BlobURL, pr.FileFormat, pr.Checksum, pr.FileSizeBytes)
	if err := p.history.Put(ctx, result); err != nil {
		log.Error().Err(err).Msg("failed to persist completed backup result")
	}
	metrics.RecordJobCompletion(string(result.DatabaseType), tier, duration, pr.FileSizeBytes, true)
	log.Info().
		Str("blob_name", pr.BlobName).
		Str("size", humanize.Bytes(uint64(pr.FileSizeBytes))).
		Dur("duration", duration).
		Msg("backup completed")
	if p.audit != nil {
		details := pr.BlobName + " (" + humanize.Bytes(uint64(pr.FileSizeBytes)) + ")"
		p.audit.Record(ctx, "", "backup.execute", "database", result.DatabaseID, domain.AuditSuccess, details)
	}
	if err := msg.Ack(); err != nil {
		log.Error().Err(err).Msg("failed to ack completed message")
	}
}
