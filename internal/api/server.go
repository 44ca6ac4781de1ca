// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dilux/backupd/internal/audit"
	"github.com/dilux/backupd/internal/auth"
	"github.com/dilux/backupd/internal/blobstore"
	"github.com/dilux/backupd/internal/catalog"
	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/history"
	"github.com/dilux/backupd/internal/logging"
	"github.com/dilux/backupd/internal/pipeline"
	"github.com/dilux/backupd/internal/queue"
	"github.com/dilux/backupd/internal/secrets"
)

// Server is the C8 HTTP surface. It implements suture.Service so it can be
// supervised as part of the api-layer alongside the rest of the process.
type Server struct {
	cfg      config.Config
	catalog  *catalog.Store
	history  *history.Store
	blobs    *blobstore.Store
	queue    *queue.Queue
	pipeline *pipeline.Pipeline
	secrets  *secrets.Resolver
	auditor  *audit.Recorder
	jwt      *auth.JWTManager

	httpServer *http.Server
}

// Deps bundles every collaborator Server needs, built once at startup in
// cmd/server/main.go.
type Deps struct {
	Catalog  *catalog.Store
	History  *history.Store
	Blobs    *blobstore.Store
	Queue    *queue.Queue
	Pipeline *pipeline.Pipeline
	Secrets  *secrets.Resolver
	Auditor  *audit.Recorder
	JWT      *auth.JWTManager
}

// New builds a Server from cfg and deps, wiring the chi router and its
// middleware stack.
func New(cfg config.Config, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		catalog:  deps.Catalog,
		history:  deps.History,
		blobs:    deps.Blobs,
		queue:    deps.Queue,
		pipeline: deps.Pipeline,
		secrets:  deps.Secrets,
		auditor:  deps.Auditor,
		jwt:      deps.JWT,
	}

	handler := s.routes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Handler returns the fully wired http.Handler, for use in tests with
// httptest.NewServer/NewRecorder.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDWithLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(corsMiddleware(s.cfg.Security.CORSOrigins))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/databases", s.handleListDatabases)
		r.Post("/databases", s.handleCreateDatabase)
		r.Put("/databases/{id}", s.handleUpdateDatabase)
		r.Delete("/databases/{id}", s.handleDeleteDatabase)
		r.With(httprate.LimitByIP(s.cfg.Security.RateLimitReqs, s.cfg.Security.RateLimitWindow)).
			Post("/databases/{id}/backup", s.handleTriggerBackup)
		r.Post("/databases/test-connection", s.handleTestConnection)

		r.Get("/backups", s.handleListBackups)
		r.Delete("/backups/{id}", s.handleDeleteBackup)
		r.Delete("/backups/delete", s.handleDeleteBackupByBlobName)
		r.Post("/backups/delete-bulk", s.handleBulkDeleteBackups)

		r.Get("/engines", s.handleListEngines)
		r.Post("/engines", s.handleCreateEngine)
		r.Get("/engines/{id}", s.handleGetEngine)
		r.Put("/engines/{id}", s.handleUpdateEngine)
		r.Delete("/engines/{id}", s.handleDeleteEngine)
		r.Get("/engines/{id}/discover", s.handleDiscoverEngine)

		r.Get("/backup-policies", s.handleListPolicies)
		r.Post("/backup-policies", s.handleCreatePolicy)
		r.Get("/backup-policies/{id}", s.handleGetPolicy)
		r.Put("/backup-policies/{id}", s.handleUpdatePolicy)
		r.Delete("/backup-policies/{id}", s.handleDeletePolicy)

		r.Get("/audit", s.handleListAudit)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Get("/users/{id}", s.handleGetUser)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Delete("/users/{id}", s.handleDeleteUser)
		})
	})

	return r
}

// Serve runs the HTTP server until ctx is canceled, satisfying suture's
// Service contract for the api-layer supervisor.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// String identifies this service in suture's event log.
func (s *Server) String() string {
	return "api.Server"
}
