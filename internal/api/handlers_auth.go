// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/dilux/backupd/internal/auth"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/validation"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// handleLogin is the one unauthenticated write route: it exchanges a
// username/password pair for the bearer token every other route requires.
// The User catalog stores only a bcrypt hash, never the password itself.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := s.catalog.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		s.auditor.Failure(r.Context(), "", "login", "user", req.Username, "user not found")
		respondError(w, r, domain.NewCredentialError("invalid username or password", nil))
		return
	}
	if !user.Enabled || !auth.ComparePassword(user.PasswordHash, req.Password) {
		s.auditor.Failure(r.Context(), user.ID, "login", "user", user.ID, "invalid credentials")
		respondError(w, r, domain.NewCredentialError("invalid username or password", nil))
		return
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		respondError(w, r, err)
		return
	}

	now := domain.Now()
	user.LastLoginAt = &now
	if err := s.catalog.PutUser(r.Context(), user); err != nil {
		respondError(w, r, err)
		return
	}

	s.auditor.Success(r.Context(), user.ID, "login", "user", user.ID, "")
	respondData(w, loginResponse{Token: token, User: *user}, nil)
}
