// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/validation"
)

type engineRequest struct {
	Name               string `json:"name" validate:"required"`
	EngineType         string `json:"engine_type" validate:"required,oneof=mysql postgresql sqlserver"`
	Host               string `json:"host" validate:"required"`
	Port               int    `json:"port"`
	AuthMethod         string `json:"auth_method" validate:"required,oneof=user_password managed_identity azure_ad connection_string"`
	Username           string `json:"username"`
	PasswordSecretName string `json:"password_secret_name"`
	Password           string `json:"password"`
	ConnectionString   string `json:"connection_string"`
	PolicyID           string `json:"policy_id"`
	DiscoveryEnabled   bool   `json:"discovery_enabled"`
}

func (req *engineRequest) toEngine(existing *domain.Engine) *domain.Engine {
	e := existing
	if e == nil {
		e = &domain.Engine{ID: uuid.NewString(), CreatedAt: domain.Now()}
	}
	e.Name = req.Name
	e.EngineType = domain.EngineType(req.EngineType)
	e.Host = req.Host
	e.Port = req.Port
	if e.Port == 0 {
		e.Port = e.EngineType.DefaultPort()
	}
	e.AuthMethod = domain.AuthMethod(req.AuthMethod)
	e.Username = req.Username
	e.PasswordSecretName = req.PasswordSecretName
	e.Password = req.Password
	e.ConnectionString = req.ConnectionString
	e.PolicyID = req.PolicyID
	e.DiscoveryEnabled = req.DiscoveryEnabled
	e.UpdatedAt = domain.Now()
	return e
}

func (s *Server) handleListEngines(w http.ResponseWriter, r *http.Request) {
	engines, err := s.catalog.ListEngines(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, engines, nil)
}

func (s *Server) handleGetEngine(w http.ResponseWriter, r *http.Request) {
	e, err := s.catalog.GetEngine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, e, nil)
}

func (s *Server) handleCreateEngine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req engineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	e := req.toEngine(nil)
	if !e.HasCredentials() {
		respondError(w, r, domain.NewValidationError("engine has no usable credentials for its auth_method"))
		return
	}
	if claims := claimsFromRequest(r); claims != nil {
		e.CreatedBy = claims.Username
	}

	if err := s.catalog.PutEngine(ctx, e); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "engine.create", domain.EnginePartition, e.ID, e.Name)
	respondCreated(w, e)
}

func (s *Server) handleUpdateEngine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	existing, err := s.catalog.GetEngine(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req engineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	e := req.toEngine(existing)
	if !e.HasCredentials() {
		respondError(w, r, domain.NewValidationError("engine has no usable credentials for its auth_method"))
		return
	}

	if err := s.catalog.PutEngine(ctx, e); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "engine.update", domain.EnginePartition, e.ID, e.Name)
	respondData(w, e, nil)
}

func (s *Server) handleDeleteEngine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := s.catalog.DeleteEngine(ctx, id); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "engine.delete", domain.EnginePartition, id, "")
	respondNoContent(w)
}

// handleDiscoverEngine connects to the engine and lists the databases it
// hosts, annotating which are system databases and which are already
// tracked, per §4.4.
func (s *Server) handleDiscoverEngine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	engine, err := s.catalog.GetEngine(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	password, err := s.secrets.ResolvePassword(ctx, engine.PasswordSecretName, engine.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	tracked, err := s.catalog.ListDatabases(ctx, engine.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	existingByName := make(map[string]string, len(tracked))
	for _, d := range tracked {
		existingByName[d.DatabaseName] = d.ID
	}

	discovered, err := s.pipeline.Discover(ctx, engine, password, existingByName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	now := domain.Now()
	engine.LastDiscovery = &now
	_ = s.catalog.PutEngine(ctx, engine)

	respondData(w, discovered, nil)
}
