// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "net/http"

// handleHealthz reports liveness: the process is up and able to answer
// HTTP requests at all.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondData(w, map[string]string{"status": "ok"}, nil)
}

// handleReadyz reports readiness: the catalog store must actually answer a
// query. The supervisor tree's own failure handling covers the "no
// unstopped failed services" half of this check; a failed service that
// can't restart will eventually show up as catalog or queue errors here
// too since nothing downstream of it can make progress.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := s.catalog.GetSettings(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Error: &apiError{Code: "not_ready", Message: "catalog store unreachable"},
		})
		return
	}
	respondData(w, map[string]string{"status": "ready"}, nil)
}
