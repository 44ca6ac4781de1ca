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

// PutEngine inserts or updates an Engine.
func (s *Store) PutEngine(ctx context.Context, e *domain.Engine) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := domain.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	partition, row := e.EngineRow()
	return putRow(ctx, s.db, "engines", partition, row, e, nil, nil)
}

// GetEngine fetches an Engine by id.
func (s *Store) GetEngine(ctx context.Context, id string) (*domain.Engine, error) {
	var e domain.Engine
	err := getRow(ctx, s.db, "engines", domain.EnginePartition, id, &e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("engine not found: " + id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEngines returns every Engine in the catalog.
func (s *Store) ListEngines(ctx context.Context) ([]*domain.Engine, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM engines WHERE partition = ?`, domain.EnginePartition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Engine
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e domain.Engine
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// DeleteEngine removes an Engine, refusing when any Database still
// references it (§4.2 cascade rule: databases must be moved or deleted
// first).
func (s *Store) DeleteEngine(ctx context.Context, id string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM databases WHERE engine_id = ?`, id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return domain.NewPolicyViolation("engine has databases attached; reassign or delete them first")
	}

	ok, err := deleteRow(ctx, s.db, "engines", domain.EnginePartition, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewNotFoundError("engine not found: " + id)
	}
	return nil
}
