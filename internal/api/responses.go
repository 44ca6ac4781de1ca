// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/logging"
	"github.com/dilux/backupd/internal/validation"
)

// envelope is the shape of every JSON response body, success or error.
type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error *apiError   `json:"error,omitempty"`
	Meta  *meta       `json:"meta,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	Page       int `json:"page,omitempty"`
	PageSize   int `json:"page_size,omitempty"`
	TotalCount int `json:"total_count,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("failed to encode response body")
	}
}

// respondData writes a 200 response wrapping data, optionally paginated.
func respondData(w http.ResponseWriter, data interface{}, m *meta) {
	writeJSON(w, http.StatusOK, envelope{Data: data, Meta: m})
}

// respondCreated writes a 201 response wrapping data.
func respondCreated(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, envelope{Data: data})
}

// respondAccepted writes a 202 response wrapping data.
func respondAccepted(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusAccepted, envelope{Data: data})
}

// respondNoContent writes a bare 200 with an empty data object, used for
// deletes that don't return a resource.
func respondNoContent(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, envelope{Data: map[string]bool{"deleted": true}})
}

// respondError classifies err through domain.KindOf and writes the
// matching HTTP status, or 500 with a generic message and request-id
// correlation for anything unclassified, per §7's user-visible-failure
// rule.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, envelope{Error: &apiError{Code: "validation_error", Message: err.Error()}})
		return
	}

	kind, ok := domain.KindOf(err)
	if !ok {
		reqID := requestIDFromRequest(r)
		logging.Error().Err(err).Str("request_id", reqID).Msg("unhandled API error")
		writeJSON(w, http.StatusInternalServerError, envelope{
			Error: &apiError{Code: "internal_error", Message: "an internal error occurred (request_id=" + reqID + ")"},
		})
		return
	}

	status, code := statusForKind(kind)
	writeJSON(w, status, envelope{Error: &apiError{Code: code, Message: err.Error()}})
}

func statusForKind(kind domain.ErrorKind) (int, string) {
	switch kind {
	case domain.ErrNotFound:
		return http.StatusNotFound, string(kind)
	case domain.ErrValidation:
		return http.StatusBadRequest, string(kind)
	case domain.ErrPolicyViolation:
		return http.StatusBadRequest, string(kind)
	case domain.ErrCredential, domain.ErrConnection:
		return http.StatusBadGateway, string(kind)
	case domain.ErrTimeout:
		return http.StatusGatewayTimeout, string(kind)
	default:
		return http.StatusInternalServerError, string(kind)
	}
}

// pageParams parses page/page_size query parameters against the
// configured defaults and maximum.
func pageParams(r *http.Request, defaultSize, maxSize int) (page, pageSize int) {
	page = 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	pageSize = defaultSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("malformed request body: " + err.Error())
	}
	return nil
}
