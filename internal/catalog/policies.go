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

// SeedSystemPolicies writes the three built-in policies if they are not
// already present, so a fresh catalog always has them (§3).
func (s *Store) SeedSystemPolicies(ctx context.Context) error {
	for _, p := range domain.SystemPolicies() {
		_, err := s.GetPolicy(ctx, p.ID)
		if err == nil {
			continue
		}
		var de *domain.DomainError
		if !errors.As(err, &de) || de.Kind != domain.ErrNotFound {
			return err
		}
		if err := s.PutPolicy(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// PutPolicy inserts or updates a BackupPolicy.
func (s *Store) PutPolicy(ctx context.Context, p *domain.BackupPolicy) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := domain.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	partition, row := p.PolicyRow()
	return putRow(ctx, s.db, "backup_policies", partition, row, p, nil, nil)
}

// GetPolicy fetches a BackupPolicy by id.
func (s *Store) GetPolicy(ctx context.Context, id string) (*domain.BackupPolicy, error) {
	var p domain.BackupPolicy
	err := getRow(ctx, s.db, "backup_policies", domain.PolicyPartition, id, &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("policy not found: " + id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPolicies returns every BackupPolicy.
func (s *Store) ListPolicies(ctx context.Context) ([]*domain.BackupPolicy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM backup_policies WHERE partition = ?`, domain.PolicyPartition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.BackupPolicy
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var p domain.BackupPolicy
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// DeletePolicy removes a BackupPolicy, refusing to delete a system policy
// or one still referenced by a Database or Engine (§3, §4.2).
func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	p, err := s.GetPolicy(ctx, id)
	if err != nil {
		return err
	}
	if p.IsSystem {
		return domain.NewPolicyViolation("system policies cannot be deleted: " + id)
	}

	inUse, err := s.ListDatabasesByPolicy(ctx, id)
	if err != nil {
		return err
	}
	if len(inUse) > 0 {
		return domain.NewPolicyViolation("policy is assigned to one or more databases")
	}

	var engineCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM engines WHERE json_extract(data, '$.policy_id') = ?`, id).Scan(&engineCount); err != nil {
		return err
	}
	if engineCount > 0 {
		return domain.NewPolicyViolation("policy is assigned to one or more engines")
	}

	ok, err := deleteRow(ctx, s.db, "backup_policies", domain.PolicyPartition, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewNotFoundError("policy not found: " + id)
	}
	return nil
}
