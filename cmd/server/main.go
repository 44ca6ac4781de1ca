// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dilux/backupd/internal/api"
	"github.com/dilux/backupd/internal/audit"
	"github.com/dilux/backupd/internal/auth"
	"github.com/dilux/backupd/internal/blobstore"
	"github.com/dilux/backupd/internal/catalog"
	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/history"
	"github.com/dilux/backupd/internal/logging"
	"github.com/dilux/backupd/internal/pipeline"
	"github.com/dilux/backupd/internal/queue"
	"github.com/dilux/backupd/internal/scheduler"
	"github.com/dilux/backupd/internal/secrets"
	"github.com/dilux/backupd/internal/supervisor"
	"github.com/dilux/backupd/internal/worker"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Logging isn't initialized yet; this is the one place backupd
		// writes straight to stderr.
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	log := logging.WithComponent("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := catalog.Open(ctx, cfg.Catalog.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open catalog store")
	}
	defer func() {
		if cerr := cat.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("failed to close catalog store")
		}
	}()

	if err := cat.SeedSystemPolicies(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed system retention policies")
	}

	hist := history.New(cat.DB())

	blobs, err := blobstore.New(cfg.BlobStore.RootDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open blob store")
	}

	q, err := queue.Connect(ctx, cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to job queue")
	}
	defer q.Close()

	resolver, err := secrets.NewResolverFromConfig(&cfg.Security)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build secrets resolver")
	}

	pipe := pipeline.New(cfg.Pipeline, resolver, blobs)
	auditor := audit.New(cat)

	jwtMgr, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build JWT manager")
	}

	tickSvc := scheduler.NewTickService(cat, hist, q, cfg.Scheduler)
	retentionSvc := scheduler.NewRetentionTimerService(cat, hist, blobs, cfg.Scheduler)
	pool := worker.NewPool(q, pipe, hist, auditor, cfg.Worker)

	apiServer := api.New(*cfg, api.Deps{
		Catalog:  cat,
		History:  hist,
		Blobs:    blobs,
		Queue:    q,
		Pipeline: pipe,
		Secrets:  resolver,
		Auditor:  auditor,
		JWT:      jwtMgr,
	})

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build supervisor tree")
	}

	tree.AddSchedulingService(tickSvc)
	tree.AddSchedulingService(retentionSvc)
	tree.AddProcessingService(pool)
	tree.AddAPIService(apiServer)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("environment", cfg.Server.Environment).
		Msg("backupd starting")

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("supervisor tree exited with error")
		}
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("supervisor tree exited with error during shutdown")
		}
	case <-time.After(cfg.Server.ShutdownTimeout + 10*time.Second):
		log.Warn().Msg("timed out waiting for supervisor tree to stop")
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			log.Warn().Str("service", fmt.Sprintf("%v", svc)).Msg("service failed to stop cleanly")
		}
	}

	log.Info().Msg("backupd stopped gracefully")
}
