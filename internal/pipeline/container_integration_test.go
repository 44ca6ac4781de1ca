// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build integration

package pipeline

import (
	"context"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
)

// skipIfNoDocker skips the test when the Docker daemon isn't reachable,
// matching the rest of the pack's Docker-gated integration tests.
func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "docker", "info").Run(); err != nil {
		t.Skip("skipping: docker not available")
	}
}

// skipIfMissing skips the test when tool isn't on PATH. The pipeline
// shells out to the database's own client binary rather than a Go
// driver, so the integration test needs that binary installed locally
// even though the database itself runs in a container.
func skipIfMissing(t *testing.T, tool string) {
	t.Helper()
	if _, err := exec.LookPath(tool); err != nil {
		t.Skipf("skipping: %s not found on PATH", tool)
	}
}

func TestPipeline_TestConnection_AgainstRealMySQL(t *testing.T) {
	skipIfNoDocker(t)
	skipIfMissing(t, "mysql")

	ctx := context.Background()
	container, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("backupd_test"),
		mysql.WithUsername("backupd"),
		mysql.WithPassword("backupd-test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(90*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() { require.NoError(t, container.Terminate(ctx)) }()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	p := New(config.PipelineConfig{ConnectionTimeout: 10 * time.Second}, &fakeResolver{password: "backupd-test-password"}, newMemBlobs())

	job := &domain.BackupJob{
		DatabaseType:   domain.EngineMySQL,
		Host:           host,
		Port:           portNum,
		Username:       "backupd",
		TargetDatabase: "backupd_test",
	}

	result := p.TestConnection(ctx, job)
	require.True(t, result.Success, "expected connection test to succeed: %s", result.Message)
}

func TestPipeline_Discover_AgainstRealPostgres(t *testing.T) {
	skipIfNoDocker(t)
	skipIfMissing(t, "psql")

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("backupd_test"),
		postgres.WithUsername("backupd"),
		postgres.WithPassword("backupd-test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() { require.NoError(t, container.Terminate(ctx)) }()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	p := New(config.PipelineConfig{ConnectionTimeout: 10 * time.Second}, &fakeResolver{password: "backupd-test-password"}, newMemBlobs())

	engine := &domain.Engine{
		ID:         "engine-pg-it",
		EngineType: domain.EnginePostgreSQL,
		Host:       host,
		Port:       portNum,
		Username:   "backupd",
	}

	discovered, err := p.Discover(ctx, engine, "backupd-test-password", map[string]string{})
	require.NoError(t, err)

	var found bool
	for _, d := range discovered {
		if d.Name == "backupd_test" {
			found = true
		}
	}
	require.True(t, found, "expected discovery to surface the seeded database")
}
