// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/history"
	"github.com/dilux/backupd/internal/validation"
)

// handleListBackups lists backup results. database_id and status narrow
// the query server-side; database_ids (comma-separated), triggered_by,
// database_type, and the date_from/date_to range (RFC3339) are applied
// in memory against that candidate set, per §4.5/§9's paged-list filter
// set and in-memory pagination design.
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize := pageParams(r, s.cfg.API.DefaultPageSize, s.cfg.API.MaxPageSize)

	var databaseIDs []string
	if v := q.Get("database_ids"); v != "" {
		databaseIDs = strings.Split(v, ",")
	}

	var createdFrom, createdTo time.Time
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			createdFrom = t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			createdTo = t
		}
	}

	results, total, err := s.history.List(r.Context(), history.ListOptions{
		DatabaseID:   q.Get("database_id"),
		DatabaseIDs:  databaseIDs,
		Status:       domain.ResultStatus(q.Get("status")),
		TriggeredBy:  domain.TriggeredBy(q.Get("triggered_by")),
		DatabaseType: domain.EngineType(q.Get("database_type")),
		CreatedFrom:  createdFrom,
		CreatedTo:    createdTo,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, results, &meta{Page: page, PageSize: pageSize, TotalCount: total})
}

// handleDeleteBackup removes one BackupResult and its blob by result id.
func (s *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	result, err := s.history.GetByID(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if result.BlobName != "" {
		if err := s.blobs.Delete(ctx, result.BlobName); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if err := s.history.DeleteByID(ctx, id); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "backup.delete", "backup_result", id, result.BlobName)
	respondNoContent(w)
}

// handleDeleteBackupByBlobName removes a BackupResult by its blob name,
// for callers that only have the storage key (e.g. a storage-lifecycle
// reconciliation job) rather than the catalog result id.
func (s *Server) handleDeleteBackupByBlobName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	blobName := r.URL.Query().Get("blob_name")
	if blobName == "" {
		respondError(w, r, domain.NewValidationError("blob_name query parameter is required"))
		return
	}

	if err := s.blobs.Delete(ctx, blobName); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.history.DeleteByBlobName(ctx, blobName); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "backup.delete", "backup_result", "", blobName)
	respondNoContent(w)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

type bulkDeleteResult struct {
	Deleted []string          `json:"deleted"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// handleBulkDeleteBackups deletes many results by id in one request,
// continuing past individual failures and reporting them per-id rather
// than aborting the whole batch.
func (s *Server) handleBulkDeleteBackups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	out := bulkDeleteResult{Failed: map[string]string{}}
	for _, id := range req.IDs {
		result, err := s.history.GetByID(ctx, id)
		if err != nil {
			out.Failed[id] = err.Error()
			continue
		}
		if result.BlobName != "" {
			if err := s.blobs.Delete(ctx, result.BlobName); err != nil {
				out.Failed[id] = err.Error()
				continue
			}
		}
		if err := s.history.DeleteByID(ctx, id); err != nil {
			out.Failed[id] = err.Error()
			continue
		}
		out.Deleted = append(out.Deleted, id)
	}

	s.auditor.Success(ctx, userIDFromRequest(r), "backup.delete_bulk", "backup_result", "", "")
	respondData(w, out, nil)
}
