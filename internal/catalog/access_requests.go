// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/dilux/backupd/internal/domain"
	"github.com/google/uuid"
)

// PutAccessRequest inserts or updates an AccessRequest.
func (s *Store) PutAccessRequest(ctx context.Context, r *domain.AccessRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = domain.Now()
	}
	partition, row := r.Row()
	return putRow(ctx, s.db, "access_requests", partition, row, r, nil, nil)
}

// GetAccessRequest fetches an AccessRequest by id.
func (s *Store) GetAccessRequest(ctx context.Context, id string) (*domain.AccessRequest, error) {
	var r domain.AccessRequest
	err := getRow(ctx, s.db, "access_requests", domain.AccessRequestPartition, id, &r)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("access request not found: " + id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListAccessRequests returns every AccessRequest, optionally filtered to a
// status when status is non-empty.
func (s *Store) ListAccessRequests(ctx context.Context, status domain.AccessRequestStatus) ([]*domain.AccessRequest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM access_requests WHERE partition = ?`, domain.AccessRequestPartition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AccessRequest
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r domain.AccessRequest
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, err
		}
		if status == "" || r.Status == status {
			out = append(out, &r)
		}
	}
	return out, rows.Err()
}
