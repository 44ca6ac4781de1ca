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

// PutDatabase inserts or updates a Database, denormalizing its engine_id
// and policy_id into indexed columns for cascade and in-use checks.
func (s *Store) PutDatabase(ctx context.Context, d *domain.Database) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := domain.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	partition, row := d.DatabaseRow()
	return putRow(ctx, s.db, "databases", partition, row, d,
		[]string{"engine_id", "policy_id"}, []any{d.EngineID, d.PolicyID})
}

// GetDatabase fetches a Database by id.
func (s *Store) GetDatabase(ctx context.Context, id string) (*domain.Database, error) {
	var d domain.Database
	err := getRow(ctx, s.db, "databases", domain.DatabasePartition, id, &d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("database not found: " + id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDatabases returns every Database, optionally filtered to one engine
// when engineID is non-empty.
func (s *Store) ListDatabases(ctx context.Context, engineID string) ([]*domain.Database, error) {
	var rows *sql.Rows
	var err error
	if engineID != "" {
		rows, err = s.db.QueryContext(ctx, `SELECT data FROM databases WHERE partition = ? AND engine_id = ?`, domain.DatabasePartition, engineID)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT data FROM databases WHERE partition = ?`, domain.DatabasePartition)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Database
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d domain.Database
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// ListDatabasesByPolicy returns every Database currently bound to policyID,
// used by policy deletion's in-use check.
func (s *Store) ListDatabasesByPolicy(ctx context.Context, policyID string) ([]*domain.Database, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM databases WHERE policy_id = ?`, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Database
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d domain.Database
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// DeleteDatabase removes a Database. Its BackupResult history is retained
// under its own partition scheme and is not cascade-deleted (§4.6).
func (s *Store) DeleteDatabase(ctx context.Context, id string) error {
	ok, err := deleteRow(ctx, s.db, "databases", domain.DatabasePartition, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewNotFoundError("database not found: " + id)
	}
	return nil
}
