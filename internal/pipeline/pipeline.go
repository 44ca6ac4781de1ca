// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/logging"
)

// CredentialResolver is the subset of secrets.Resolver the pipeline depends
// on, satisfied by *secrets.Resolver.
type CredentialResolver interface {
	ResolvePassword(ctx context.Context, secretName, storedPassword string) (string, error)
}

// BlobPutter is the subset of blobstore.Store the pipeline uploads through,
// satisfied by *blobstore.Store.
type BlobPutter interface {
	Put(ctx context.Context, name string, r io.Reader) (int64, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// Result is what the pipeline hands back to the worker for a completed
// dump, per §4.4 step 6.
type Result struct {
	BlobName      string
	BlobURL       string
	FileSizeBytes int64
	FileFormat    string
	Checksum      string
}

// Pipeline executes the dump -> compress -> checksum -> upload sequence
// for one BackupJob at a time. A Pipeline is safe for concurrent use by
// multiple workers; all per-job state lives in execution().
type Pipeline struct {
	cfg        config.PipelineConfig
	credential CredentialResolver
	blobs      BlobPutter
	logger     zerolog.Logger
}

// New builds a Pipeline.
func New(cfg config.PipelineConfig, credential CredentialResolver, blobs BlobPutter) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		credential: credential,
		blobs:      blobs,
		logger:     logging.WithComponent("pipeline"),
	}
}

// Execute runs the full backup pipeline for job and returns the recorded
// artifact location, or a *domain.DomainError describing which stage
// failed.
func (p *Pipeline) Execute(ctx context.Context, job *domain.BackupJob) (*Result, error) {
	start := time.Now()
	log := p.logger.With().Str("database_id", job.DatabaseID).Str("job_id", job.ID).Logger()

	password, err := p.credential.ResolvePassword(ctx, job.PasswordSecretName, job.Password)
	if err != nil {
		return nil, err
	}

	timeout := p.cfg.DumpTimeout
	if timeout <= 0 {
		timeout = 3600 * time.Second
	}
	dumpCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	spec, err := p.buildDumpSpec(dumpCtx, job, password)
	if err != nil {
		return nil, err
	}

	ext := fileExtension(job.DatabaseType, job.Compression)
	blobName := blobNameFor(job, p.timestamp())

	source, finish, cleanup, err := spec.start(dumpCtx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	useCompression := job.Compression && job.DatabaseType != domain.EngineSQLServer
	size, checksum, uploadErr := p.uploadStream(dumpCtx, blobName, source, useCompression)

	// finish must run after the stream has been fully drained: for the
	// streaming tools its Wait() only returns once stdout reaches EOF, and
	// for file-backed tools the process has already exited by the time
	// start() returned a reader at all.
	if finishErr := finish(); finishErr != nil {
		if uploadErr == nil {
			p.deleteOrphanedBlob(ctx, blobName)
		}
		return nil, finishErr
	}
	if uploadErr != nil {
		return nil, uploadErr
	}

	log.Info().
		Str("blob_name", blobName).
		Int64("file_size_bytes", size).
		Dur("duration", time.Since(start)).
		Msg("backup pipeline completed")

	return &Result{
		BlobName:      blobName,
		BlobURL:       p.blobs.URL(blobName),
		FileSizeBytes: size,
		FileFormat:    ext,
		Checksum:      checksum,
	}, nil
}

// deleteOrphanedBlob removes a blob that was uploaded successfully but
// whose dump process turned out to have failed, preserving the invariant
// that a completed BackupResult's blob exists while a failed one's does
// not. Uses ctx rather than the (possibly already-expired) dump context,
// since this is cleanup, not part of the dump itself.
func (p *Pipeline) deleteOrphanedBlob(ctx context.Context, blobName string) {
	if err := p.blobs.Delete(ctx, blobName); err != nil {
		p.logger.Warn().Err(err).Str("blob_name", blobName).Msg("failed to delete orphaned blob after dump failure")
	}
}

// timestamp formats the instant used to build this job's blob name, per
// §3/§9's {YYYYMMDD_HHMMSS} convention.
func (p *Pipeline) timestamp() string {
	return domain.Now().Format("20060102_150405")
}

func blobNameFor(job *domain.BackupJob, ts string) string {
	ext := fileExtension(job.DatabaseType, job.Compression)
	return fmt.Sprintf("%s/%s/%s.%s", job.DatabaseType, job.DatabaseID, ts, ext)
}

// fileExtension implements the §4.4 file-format-selection table: SQL
// Server's .bak artifact ignores compression; MySQL and PostgreSQL append
// .gz when compression is requested.
func fileExtension(engineType domain.EngineType, compression bool) string {
	if engineType == domain.EngineSQLServer {
		return "bak"
	}
	if compression {
		return "sql.gz"
	}
	return "sql"
}

// ContentType returns the upload content-type for a compressed or plain
// artifact, per §4.4 step 5.
func ContentType(compression bool, engineType domain.EngineType) string {
	if compression && engineType != domain.EngineSQLServer {
		return "application/gzip"
	}
	return "application/sql"
}
