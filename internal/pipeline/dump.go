// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dilux/backupd/internal/domain"
)

// stderrTailLimit is the maximum number of trailing stderr bytes carried on
// a BackupExecutionError, per §4.4 step 3.
const stderrTailLimit = 2048

// tailBuffer is an io.Writer that keeps only the last n bytes written to
// it, so a dump tool's stderr can be captured without unbounded growth.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}

// dumpSpec describes how to invoke one engine's dump tool and how to read
// its output once it has run.
type dumpSpec struct {
	cmd        *exec.Cmd
	stderr     *tailBuffer
	fileBacked bool   // true for sqlcmd, which writes a .bak file rather than streaming stdout
	resultPath string // valid only when fileBacked
	tempDir    string // removed wholesale on cleanup when set, instead of just resultPath
}

// start launches the dump tool. For stdout-streaming tools (mysqldump,
// pg_dump) it returns immediately with a reader over the live pipe; the
// caller must call finish after fully consuming it. For file-backed tools
// (sqlcmd) it runs the command to completion before returning, since the
// artifact only exists once the process exits.
func (s *dumpSpec) start(ctx context.Context) (io.Reader, func() error, func(), error) {
	if s.fileBacked {
		return s.startFileBacked(ctx)
	}
	return s.startStreaming(ctx)
}

func (s *dumpSpec) startStreaming(ctx context.Context) (io.Reader, func() error, func(), error) {
	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return nil, nil, func() {}, domain.NewBackupExecutionError("create dump stdout pipe", err)
	}
	s.cmd.Stderr = s.stderr

	if err := s.cmd.Start(); err != nil {
		return nil, nil, func() {}, domain.NewConnectionError("launch dump tool", err)
	}

	finish := func() error {
		err := s.cmd.Wait()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return domain.NewTimeoutError("dump tool exceeded timeout", ctx.Err())
		}
		return domain.NewBackupExecutionError("dump tool exited with error: "+s.stderr.String(), err)
	}

	return stdout, finish, func() {}, nil
}

func (s *dumpSpec) startFileBacked(ctx context.Context) (io.Reader, func() error, func(), error) {
	s.cmd.Stderr = s.stderr

	runErr := s.cmd.Run()
	cleanup := func() { os.RemoveAll(s.tempDir) } //nolint:errcheck // best-effort temp artifact cleanup

	if runErr != nil {
		if ctx.Err() != nil {
			return nil, nil, cleanup, domain.NewTimeoutError("dump tool exceeded timeout", ctx.Err())
		}
		return nil, nil, cleanup, domain.NewBackupExecutionError("dump tool exited with error: "+s.stderr.String(), runErr)
	}

	f, err := os.Open(s.resultPath) //nolint:gosec // resultPath is a process-generated temp file
	if err != nil {
		return nil, nil, cleanup, domain.NewStorageError("open dump artifact", err)
	}
	finish := func() error { return f.Close() }
	return f, finish, cleanup, nil
}

// buildDumpSpec dispatches on job.DatabaseType to build the correct
// subprocess invocation, per §4.4 step 2. The command is bound to ctx so
// the hard timeout in Execute actually kills a runaway dump tool.
func (p *Pipeline) buildDumpSpec(ctx context.Context, job *domain.BackupJob, password string) (*dumpSpec, error) {
	switch job.DatabaseType {
	case domain.EngineMySQL:
		return p.mysqlDumpSpec(ctx, job, password)
	case domain.EnginePostgreSQL:
		return p.postgresDumpSpec(ctx, job, password)
	case domain.EngineSQLServer:
		return p.sqlServerDumpSpec(ctx, job, password)
	default:
		return nil, domain.NewValidationError("unsupported database_type: " + string(job.DatabaseType))
	}
}

func (p *Pipeline) mysqldumpPath() string {
	if p.cfg.MysqldumpPath != "" {
		return p.cfg.MysqldumpPath
	}
	return "mysqldump"
}

func (p *Pipeline) pgDumpPath() string {
	if p.cfg.PgDumpPath != "" {
		return p.cfg.PgDumpPath
	}
	return "pg_dump"
}

func (p *Pipeline) sqlcmdPath() string {
	if p.cfg.SqlcmdPath != "" {
		return p.cfg.SqlcmdPath
	}
	return "sqlcmd"
}

func (p *Pipeline) mysqlDumpSpec(ctx context.Context, job *domain.BackupJob, password string) (*dumpSpec, error) {
	args := []string{
		"--single-transaction", "--routines", "--triggers", "--events",
		"--set-gtid-purged=OFF", "--skip-lock-tables", "--quick", "--hex-blob",
		"-h", job.Host, "-P", strconv.Itoa(job.Port), "-u", job.Username,
		job.TargetDatabase,
	}
	cmd := exec.CommandContext(ctx, p.mysqldumpPath(), args...) //nolint:gosec // args are built from validated catalog fields, not user shell input
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+password)

	return &dumpSpec{cmd: cmd, stderr: newTailBuffer(stderrTailLimit)}, nil
}

func (p *Pipeline) postgresDumpSpec(ctx context.Context, job *domain.BackupJob, password string) (*dumpSpec, error) {
	args := []string{
		"--format=plain", "--no-owner", "--no-privileges", "--clean", "--if-exists",
		"-h", job.Host, "-p", strconv.Itoa(job.Port), "-U", job.Username,
		"-d", job.TargetDatabase,
	}
	cmd := exec.CommandContext(ctx, p.pgDumpPath(), args...) //nolint:gosec // args are built from validated catalog fields, not user shell input
	cmd.Env = append(os.Environ(), "PGPASSWORD="+password)

	return &dumpSpec{cmd: cmd, stderr: newTailBuffer(stderrTailLimit)}, nil
}

// sqlServerDumpSpec invokes the server's own BACKUP DATABASE command via
// sqlcmd, writing to a server-local path that sqlcmd's host then reads back
// (the source this pipeline is modeled on used a placeholder SELECT query;
// a production target must issue the real BACKUP DATABASE statement).
func (p *Pipeline) sqlServerDumpSpec(ctx context.Context, job *domain.BackupJob, password string) (*dumpSpec, error) {
	dir, err := os.MkdirTemp("", "backupd-mssql-*")
	if err != nil {
		return nil, domain.NewStorageError("create sqlserver staging directory", err)
	}
	resultPath := filepath.Join(dir, job.TargetDatabase+".bak")

	query := fmt.Sprintf(
		"BACKUP DATABASE [%s] TO DISK = N'%s' WITH INIT, COMPRESSION, CHECKSUM",
		job.TargetDatabase, resultPath,
	)
	args := []string{
		"-S", fmt.Sprintf("%s,%d", job.Host, job.Port),
		"-U", job.Username, "-d", job.TargetDatabase,
		"-Q", query, "-b",
	}
	cmd := exec.CommandContext(ctx, p.sqlcmdPath(), args...) //nolint:gosec // args are built from validated catalog fields, not user shell input
	cmd.Env = append(os.Environ(), "SQLCMDPASSWORD="+password)

	return &dumpSpec{cmd: cmd, stderr: newTailBuffer(stderrTailLimit), fileBacked: true, resultPath: resultPath, tempDir: dir}, nil
}
