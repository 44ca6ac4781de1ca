// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dilux/backupd/internal/domain"
)

// discoveryQuery returns the engine-appropriate enumeration query named in
// §4.4's discovery endpoint.
func discoveryQuery(engineType domain.EngineType) (string, error) {
	switch engineType {
	case domain.EngineMySQL:
		return "SHOW DATABASES", nil
	case domain.EnginePostgreSQL:
		return "SELECT datname FROM pg_database WHERE datistemplate = false", nil
	case domain.EngineSQLServer:
		return "SET NOCOUNT ON; SELECT name FROM sys.databases WHERE database_id > 4", nil
	default:
		return "", domain.NewValidationError("unsupported database_type: " + string(engineType))
	}
}

// Discover lists the databases visible on engine, flagging system
// databases and databases already tracked in the catalog, per §4.4's
// discovery endpoint. existingByName maps a lowercased database name to
// the catalog id of the Database row already tracking it, if any.
func (p *Pipeline) Discover(ctx context.Context, engine *domain.Engine, password string, existingByName map[string]string) ([]domain.DiscoveredDatabase, error) {
	query, err := discoveryQuery(engine.EngineType)
	if err != nil {
		return nil, err
	}

	timeout := p.cfg.ConnectionTimeout
	if timeout <= 0 || timeout > 30*time.Second {
		timeout = 30 * time.Second
	}
	discoverCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names, err := p.runDiscoveryQuery(discoverCtx, engine, password, query)
	if err != nil {
		return nil, err
	}

	systemNames := domain.SystemDatabases[engine.EngineType]
	results := make([]domain.DiscoveredDatabase, 0, len(names))
	for _, name := range names {
		d := domain.DiscoveredDatabase{
			Name:     name,
			IsSystem: systemNames[name],
		}
		if id, ok := existingByName[strings.ToLower(name)]; ok {
			d.Exists = true
			d.ExistingID = id
		}
		results = append(results, d)
	}
	return results, nil
}

func (p *Pipeline) runDiscoveryQuery(ctx context.Context, engine *domain.Engine, password, query string) ([]string, error) {
	var cmd *exec.Cmd

	switch engine.EngineType {
	case domain.EngineMySQL:
		cmd = exec.CommandContext(ctx, p.mysqlClientPath(), //nolint:gosec // args built from validated catalog fields
			"-h", engine.Host, "-P", strconv.Itoa(engine.Port), "-u", engine.Username, "-N", "-e", query)
		cmd.Env = append(os.Environ(), "MYSQL_PWD="+password)
	case domain.EnginePostgreSQL:
		cmd = exec.CommandContext(ctx, p.psqlClientPath(), //nolint:gosec // args built from validated catalog fields
			"-h", engine.Host, "-p", strconv.Itoa(engine.Port), "-U", engine.Username,
			"-d", "postgres", "-t", "-A", "-c", query)
		cmd.Env = append(os.Environ(), "PGPASSWORD="+password)
	case domain.EngineSQLServer:
		cmd = exec.CommandContext(ctx, p.sqlcmdPath(), //nolint:gosec // args built from validated catalog fields
			"-S", fmt.Sprintf("%s,%d", engine.Host, engine.Port), "-U", engine.Username,
			"-Q", query, "-h", "-1", "-W", "-b")
		cmd.Env = append(os.Environ(), "SQLCMDPASSWORD="+password)
	default:
		return nil, domain.NewValidationError("unsupported database_type: " + string(engine.EngineType))
	}

	var stdout bytes.Buffer
	stderr := newTailBuffer(stderrTailLimit)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, domain.NewTimeoutError("discovery query exceeded timeout", ctx.Err())
		}
		return nil, domain.NewConnectionError("discovery query failed: "+stderr.String(), err)
	}

	return parseDiscoveryRows(stdout.String()), nil
}

// parseDiscoveryRows splits a client tool's row-per-line output into
// trimmed, non-empty database names.
func parseDiscoveryRows(output string) []string {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
