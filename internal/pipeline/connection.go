// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dilux/backupd/internal/domain"
)

// ConnectionTestResult is the §6 POST /databases/test-connection response
// body.
type ConnectionTestResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ErrorType  string `json:"error_type,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

const (
	errorTypeAuth        = "auth_error"
	errorTypeNetwork     = "network_error"
	errorTypeMissingTool = "missing_tool"
	errorTypeTimeout     = "timeout_error"
	errorTypeUnknown     = "unknown_error"
)

// TestConnection runs a lightweight variant of dump pipeline steps 1-3: it
// resolves credentials and invokes the engine's own client tool to run a
// trivial query, bounded by a short timeout, per §4.4's connection-testing
// endpoint.
func (p *Pipeline) TestConnection(ctx context.Context, job *domain.BackupJob) *ConnectionTestResult {
	start := time.Now()
	elapsed := func() int64 { return time.Since(start).Milliseconds() }

	password, err := p.credential.ResolvePassword(ctx, job.PasswordSecretName, job.Password)
	if err != nil {
		return &ConnectionTestResult{Success: false, Message: err.Error(), ErrorType: errorTypeAuth, DurationMS: elapsed()}
	}

	timeout := p.cfg.ConnectionTimeout
	if timeout <= 0 || timeout > 30*time.Second {
		timeout = 30 * time.Second
	}
	testCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	var toolPath string

	switch job.DatabaseType {
	case domain.EngineMySQL:
		toolPath = p.mysqlClientPath()
		cmd = exec.CommandContext(testCtx, toolPath, //nolint:gosec // args built from validated catalog fields
			"-h", job.Host, "-P", strconv.Itoa(job.Port), "-u", job.Username, "-e", "SELECT 1")
		cmd.Env = append(os.Environ(), "MYSQL_PWD="+password)
	case domain.EnginePostgreSQL:
		toolPath = p.psqlClientPath()
		cmd = exec.CommandContext(testCtx, toolPath, //nolint:gosec // args built from validated catalog fields
			"-h", job.Host, "-p", strconv.Itoa(job.Port), "-U", job.Username,
			"-d", job.TargetDatabase, "-c", "SELECT 1")
		cmd.Env = append(os.Environ(), "PGPASSWORD="+password)
	case domain.EngineSQLServer:
		toolPath = p.sqlcmdPath()
		cmd = exec.CommandContext(testCtx, toolPath, //nolint:gosec // args built from validated catalog fields
			"-S", fmt.Sprintf("%s,%d", job.Host, job.Port), "-U", job.Username, "-Q", "SELECT 1", "-b")
		cmd.Env = append(os.Environ(), "SQLCMDPASSWORD="+password)
	default:
		return &ConnectionTestResult{Success: false, Message: "unsupported database_type: " + string(job.DatabaseType), ErrorType: errorTypeUnknown, DurationMS: elapsed()}
	}

	if _, lookErr := exec.LookPath(toolPath); lookErr != nil {
		return &ConnectionTestResult{
			Success:    false,
			Message:    fmt.Sprintf("client tool %q not found on PATH", toolPath),
			ErrorType:  errorTypeMissingTool,
			DurationMS: elapsed(),
		}
	}

	stderr := newTailBuffer(stderrTailLimit)
	cmd.Stderr = stderr

	runErr := cmd.Run()
	if runErr == nil {
		return &ConnectionTestResult{Success: true, Message: "connection succeeded", DurationMS: elapsed()}
	}

	if testCtx.Err() != nil {
		return &ConnectionTestResult{Success: false, Message: "connection test timed out", ErrorType: errorTypeTimeout, DurationMS: elapsed()}
	}

	return &ConnectionTestResult{
		Success:    false,
		Message:    stderr.String(),
		ErrorType:  classifyConnectionError(stderr.String()),
		DurationMS: elapsed(),
	}
}

// classifyConnectionError maps a client tool's stderr output onto a stable
// error_type, distinguishing auth failures from network failures per
// §4.4's connection-test contract.
func classifyConnectionError(stderr string) string {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "access denied"),
		strings.Contains(lower, "password authentication failed"),
		strings.Contains(lower, "login failed"),
		strings.Contains(lower, "authentication failed"):
		return errorTypeAuth
	case strings.Contains(lower, "can't connect"),
		strings.Contains(lower, "could not connect"),
		strings.Contains(lower, "network-related"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no route to host"),
		strings.Contains(lower, "timeout"):
		return errorTypeNetwork
	default:
		return errorTypeUnknown
	}
}

func (p *Pipeline) mysqlClientPath() string {
	if p.cfg.MySQLClientPath != "" {
		return p.cfg.MySQLClientPath
	}
	return "mysql"
}

func (p *Pipeline) psqlClientPath() string {
	if p.cfg.PsqlClientPath != "" {
		return p.cfg.PsqlClientPath
	}
	return "psql"
}
