// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dilux/backupd/internal/auth"
	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/validation"
)

// passwordPolicyFor returns the strength policy a user's role must meet:
// admins carry the production-grade policy, everyone else the relaxed one.
func passwordPolicyFor(role string) config.PasswordPolicy {
	if role == string(domain.RoleAdmin) {
		return config.DefaultPasswordPolicy()
	}
	return config.RelaxedPasswordPolicy()
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin operator viewer"`
	Enabled  bool   `json:"enabled"`
}

type updateUserRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin operator viewer"`
	Enabled  bool   `json:"enabled"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.catalog.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, users, nil)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.catalog.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, u, nil)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := passwordPolicyFor(req.Role).ValidateWithError(req.Password, req.Username); err != nil {
		respondError(w, r, domain.NewValidationError(err.Error()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, r, domain.NewValidationError(err.Error()))
		return
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
		PasswordHash: hash,
		Enabled:      req.Enabled,
		CreatedAt:    domain.Now(),
	}
	if err := s.catalog.PutUser(ctx, u); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "user.create", domain.UserPartition, u.ID, u.Username)
	respondCreated(w, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	existing, err := s.catalog.GetUser(ctx, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	existing.Email = req.Email
	existing.Role = domain.Role(req.Role)
	existing.Enabled = req.Enabled
	if req.Password != "" {
		if err := passwordPolicyFor(req.Role).ValidateWithError(req.Password, existing.Username); err != nil {
			respondError(w, r, domain.NewValidationError(err.Error()))
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, r, domain.NewValidationError(err.Error()))
			return
		}
		existing.PasswordHash = hash
	}

	if err := s.catalog.PutUser(ctx, existing); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "user.update", domain.UserPartition, existing.ID, existing.Username)
	respondData(w, existing, nil)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if claims := claimsFromRequest(r); claims != nil && claims.UserID == id {
		respondError(w, r, domain.NewValidationError("cannot delete your own account"))
		return
	}

	if err := s.catalog.DeleteUser(ctx, id); err != nil {
		respondError(w, r, err)
		return
	}
	s.auditor.Success(ctx, userIDFromRequest(r), "user.delete", domain.UserPartition, id, "")
	respondNoContent(w)
}
