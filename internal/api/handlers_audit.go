// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/dilux/backupd/internal/catalog"
	"github.com/dilux/backupd/internal/domain"
)

// handleListAudit lists audit entries, optionally scoped to one YYYYMM
// partition and a cursor, then filtered in memory by user/action/
// resource_type/status since the catalog only indexes by partition and
// row_key (§4.6).
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	entries, err := s.catalog.ListAudit(r.Context(), catalog.AuditListOptions{
		Partition: q.Get("month"),
		Cursor:    q.Get("cursor"),
		Limit:     500,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	filtered := make([]*domain.AuditLog, 0, len(entries))
	for _, e := range entries {
		if v := q.Get("user_id"); v != "" && e.UserID != v {
			continue
		}
		if v := q.Get("action"); v != "" && e.Action != v {
			continue
		}
		if v := q.Get("resource_type"); v != "" && e.ResourceType != v {
			continue
		}
		if v := q.Get("status"); v != "" && string(e.Status) != v {
			continue
		}
		filtered = append(filtered, e)
	}

	respondData(w, filtered, &meta{TotalCount: len(filtered)})
}
