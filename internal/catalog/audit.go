// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"encoding/json"

	"github.com/dilux/backupd/internal/domain"
	"github.com/google/uuid"
)

// AppendAudit writes an immutable AuditLog entry. Callers never update or
// delete audit rows; the table is append-only (§4.6).
func (s *Store) AppendAudit(ctx context.Context, a *domain.AuditLog) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = domain.Now()
	}
	partition, row := a.Row()
	return putRow(ctx, s.db, "audit_logs", partition, row, a, nil, nil)
}

// AuditListOptions filters and paginates ListAudit.
type AuditListOptions struct {
	Partition string // YYYYMM; empty means every partition
	Cursor    string // last row_key seen, exclusive; empty means start from the newest
	Limit     int
}

// ListAudit returns audit entries newest-first, optionally scoped to one
// partition (month) and paginated by row_key cursor.
func (s *Store) ListAudit(ctx context.Context, opts AuditListOptions) ([]*domain.AuditLog, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT data FROM audit_logs WHERE 1 = 1`
	args := []any{}
	if opts.Partition != "" {
		query += ` AND partition = ?`
		args = append(args, opts.Partition)
	}
	if opts.Cursor != "" {
		query += ` AND row_key > ?`
		args = append(args, opts.Cursor)
	}
	query += ` ORDER BY partition DESC, row_key ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a domain.AuditLog
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
