// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/history"
	"github.com/dilux/backupd/internal/validation"
)

type databaseRequest struct {
	Name                 string            `json:"name" validate:"required"`
	EngineID             string            `json:"engine_id" validate:"required"`
	UseEngineCredentials bool              `json:"use_engine_credentials"`
	UseEnginePolicy      bool              `json:"use_engine_policy"`
	Host                 string            `json:"host"`
	Port                 int               `json:"port"`
	DatabaseName         string            `json:"database_name" validate:"required"`
	DatabaseType         string            `json:"database_type" validate:"required,oneof=mysql postgresql sqlserver"`
	Username             string            `json:"username"`
	PasswordSecretName   string            `json:"password_secret_name"`
	Password             string            `json:"password"`
	PolicyID             string            `json:"policy_id"`
	Enabled              bool              `json:"enabled"`
	Compression          bool              `json:"compression"`
	BackupDestination    string            `json:"backup_destination"`
	Tags                 map[string]string `json:"tags"`
}

// handleListDatabases lists databases, filtering server-side by engine_id
// (the only index the catalog maintains) and the rest in memory, per
// §11's retained in-memory filter-then-paginate design.
func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	all, err := s.catalog.ListDatabases(ctx, q.Get("engine_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	filtered := make([]*domain.Database, 0, len(all))
	for _, d := range all {
		if q.Get("enabled_only") == "true" && !d.Enabled {
			continue
		}
		if t := q.Get("type"); t != "" && string(d.DatabaseType) != t {
			continue
		}
		if h := q.Get("host"); h != "" && d.Host != h {
			continue
		}
		if p := q.Get("policy_id"); p != "" && d.PolicyID != p {
			continue
		}
		if search := strings.ToLower(q.Get("search")); search != "" &&
			!strings.Contains(strings.ToLower(d.Name), search) &&
			!strings.Contains(strings.ToLower(d.DatabaseName), search) {
			continue
		}
		filtered = append(filtered, d)
	}

	page, pageSize := pageParams(r, s.cfg.API.DefaultPageSize, s.cfg.API.MaxPageSize)
	start := (page - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	respondData(w, filtered[start:end], &meta{Page: page, PageSize: pageSize, TotalCount: len(filtered)})
}

func (req *databaseRequest) toDatabase(existing *domain.Database) *domain.Database {
	d := existing
	if d == nil {
		d = &domain.Database{ID: uuid.NewString(), CreatedAt: domain.Now()}
	}
	d.Name = req.Name
	d.EngineID = req.EngineID
	d.UseEngineCredentials = req.UseEngineCredentials
	d.UseEnginePolicy = req.UseEnginePolicy
	d.Host = req.Host
	d.Port = req.Port
	d.DatabaseName = req.DatabaseName
	d.DatabaseType = domain.EngineType(req.DatabaseType)
	d.Username = req.Username
	d.PasswordSecretName = req.PasswordSecretName
	d.Password = req.Password
	d.PolicyID = req.PolicyID
	d.Enabled = req.Enabled
	d.Compression = req.Compression
	d.BackupDestination = req.BackupDestination
	d.Tags = req.Tags
	d.UpdatedAt = domain.Now()
	return d
}

// handleCreateDatabase inserts a new Database row, rejecting a literal
// password unless AppSettings.development_mode_plaintext_secrets allows it
// (§11 Open Question resolution).
func (s *Server) handleCreateDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req databaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.checkPlaintextSecretPolicy(ctx, req.Password, req.PasswordSecretName); err != nil {
		respondError(w, r, err)
		return
	}

	d := req.toDatabase(nil)
	claims := claimsFromRequest(r)
	if claims != nil {
		d.CreatedBy = claims.Username
	}

	if err := s.catalog.PutDatabase(ctx, d); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "database.create", domain.DatabasePartition, d.ID, d.Name)
	respondCreated(w, d)
}

// handleUpdateDatabase replaces an existing Database row.
func (s *Server) handleUpdateDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	existing, err := s.catalog.GetDatabase(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req databaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.checkPlaintextSecretPolicy(ctx, req.Password, req.PasswordSecretName); err != nil {
		respondError(w, r, err)
		return
	}

	d := req.toDatabase(existing)
	if err := s.catalog.PutDatabase(ctx, d); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "database.update", domain.DatabasePartition, d.ID, d.Name)
	respondData(w, d, nil)
}

// handleDeleteDatabase removes a Database row, and optionally its backup
// history and blobs when delete_backups=true.
func (s *Server) handleDeleteDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if r.URL.Query().Get("delete_backups") == "true" {
		results, _, err := s.history.List(ctx, history.ListOptions{DatabaseID: id})
		if err != nil {
			respondError(w, r, err)
			return
		}
		for _, res := range results {
			if res.BlobName != "" {
				_ = s.blobs.Delete(ctx, res.BlobName)
			}
			_ = s.history.DeleteByID(ctx, res.ID)
		}
	}

	if err := s.catalog.DeleteDatabase(ctx, id); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "database.delete", domain.DatabasePartition, id, "")
	respondNoContent(w)
}

// handleTriggerBackup enqueues a manual BackupJob for the database,
// triggered_by=manual, tier=null, per §6's named operation.
func (s *Server) handleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	d, err := s.catalog.GetDatabase(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	now := domain.Now()
	job := &domain.BackupJob{
		ID:                 uuid.NewString(),
		DatabaseID:         d.ID,
		DatabaseName:       d.Name,
		DatabaseType:       d.DatabaseType,
		Host:               d.Host,
		Port:               d.Port,
		TargetDatabase:     d.DatabaseName,
		Username:           d.Username,
		PasswordSecretName: d.PasswordSecretName,
		Password:           d.Password,
		Compression:        d.Compression,
		BackupDestination:  d.BackupDestination,
		TriggeredBy:        domain.TriggeredByManual,
		Tier:               nil,
		ScheduledAt:        now,
		CreatedAt:          now,
	}

	if err := s.queue.Publish(ctx, job); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "database.backup.trigger", domain.DatabasePartition, d.ID, job.ID)
	respondAccepted(w, map[string]string{"job_id": job.ID})
}

// handleTestConnection runs the §4.4 connection-test variant against a
// transient job description posted in the request body, without requiring
// the database to already exist in the catalog.
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	var req databaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	job := &domain.BackupJob{
		DatabaseType:       domain.EngineType(req.DatabaseType),
		Host:               req.Host,
		Port:               req.Port,
		TargetDatabase:     req.DatabaseName,
		Username:           req.Username,
		PasswordSecretName: req.PasswordSecretName,
		Password:           req.Password,
	}
	result := s.pipeline.TestConnection(r.Context(), job)
	respondData(w, result, nil)
}

func (s *Server) checkPlaintextSecretPolicy(ctx context.Context, password, secretName string) error {
	if password == "" || secretName != "" {
		return nil
	}
	settings, err := s.catalog.GetSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.DevelopmentModePlaintextSecrets {
		return domain.NewValidationError("plaintext passwords are disabled; set password_secret_name instead")
	}
	return nil
}

func userIDFromRequest(r *http.Request) string {
	if c := claimsFromRequest(r); c != nil {
		return c.UserID
	}
	return ""
}
