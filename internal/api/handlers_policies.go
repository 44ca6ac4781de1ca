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

type policyRequest struct {
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Hourly      domain.TierConfig `json:"hourly"`
	Daily       domain.TierConfig `json:"daily"`
	Weekly      domain.TierConfig `json:"weekly"`
	Monthly     domain.TierConfig `json:"monthly"`
	Yearly      domain.TierConfig `json:"yearly"`
}

func (req *policyRequest) validateTiers() error {
	for _, pair := range []struct {
		tier domain.Tier
		cfg  domain.TierConfig
	}{
		{domain.TierHourly, req.Hourly},
		{domain.TierDaily, req.Daily},
		{domain.TierWeekly, req.Weekly},
		{domain.TierMonthly, req.Monthly},
		{domain.TierYearly, req.Yearly},
	} {
		if !pair.cfg.Enabled {
			continue
		}
		if err := pair.cfg.Validate(pair.tier); err != nil {
			return err
		}
	}
	return nil
}

func (req *policyRequest) toPolicy(existing *domain.BackupPolicy) *domain.BackupPolicy {
	p := existing
	if p == nil {
		p = &domain.BackupPolicy{ID: uuid.NewString(), CreatedAt: domain.Now()}
	}
	p.Name = req.Name
	p.Description = req.Description
	p.Hourly = req.Hourly
	p.Daily = req.Daily
	p.Weekly = req.Weekly
	p.Monthly = req.Monthly
	p.Yearly = req.Yearly
	p.UpdatedAt = domain.Now()
	return p
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := s.catalog.ListPolicies(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, policies, nil)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, p, nil)
}

func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req policyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.validateTiers(); err != nil {
		respondError(w, r, err)
		return
	}

	p := req.toPolicy(nil)
	if err := s.catalog.PutPolicy(ctx, p); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "policy.create", domain.PolicyPartition, p.ID, p.Name)
	respondCreated(w, p)
}

func (s *Server) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	existing, err := s.catalog.GetPolicy(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if existing.IsSystem {
		respondError(w, r, domain.NewPolicyViolation("system policies cannot be modified"))
		return
	}

	var req policyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.validateTiers(); err != nil {
		respondError(w, r, err)
		return
	}

	p := req.toPolicy(existing)
	if err := s.catalog.PutPolicy(ctx, p); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "policy.update", domain.PolicyPartition, p.ID, p.Name)
	respondData(w, p, nil)
}

func (s *Server) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	existing, err := s.catalog.GetPolicy(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if existing.IsSystem {
		respondError(w, r, domain.NewPolicyViolation("system policies cannot be deleted"))
		return
	}

	if err := s.catalog.DeletePolicy(ctx, id); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "policy.delete", domain.PolicyPartition, id, "")
	respondNoContent(w)
}
