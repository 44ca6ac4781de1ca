// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dilux/backupd/internal/domain"
	"github.com/google/uuid"
)

// Store is the C5 history store, backed by the catalog's backup_results
// table.
type Store struct {
	db *sql.DB
}

// New wraps db, the same connection the catalog store opened, so history
// and catalog reads/writes share one SQLite file without a second pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Put upserts a BackupResult, deriving its (partition, row_key) from its
// CreatedAt and ID per domain.ResultRowKey, and denormalizing database_id,
// status and tier for the query paths below.
func (s *Store) Put(ctx context.Context, r *domain.BackupResult) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	partition, row := r.Row()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal backup result: %w", err)
	}

	tier := ""
	if r.Tier != nil {
		tier = string(*r.Tier)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO backup_results (partition, row_key, database_id, status, tier, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(partition, row_key) DO UPDATE SET
			database_id = excluded.database_id,
			status      = excluded.status,
			tier        = excluded.tier,
			created_at  = excluded.created_at,
			data        = excluded.data`,
		partition, row, r.DatabaseID, string(r.Status), tier, r.CreatedAt.Format(time.RFC3339), string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert backup result: %w", err)
	}
	return nil
}

// Get fetches one BackupResult by its (partition, row_key).
func (s *Store) Get(ctx context.Context, partition, row string) (*domain.BackupResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM backup_results WHERE partition = ? AND row_key = ?`, partition, row,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("backup result not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get backup result: %w", err)
	}
	var r domain.BackupResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("unmarshal backup result: %w", err)
	}
	return &r, nil
}

// Delete removes a BackupResult by its (partition, row_key). Deleting an
// absent record is not an error: the retention pass and explicit deletes
// must tolerate a record already removed by a prior attempt.
func (s *Store) Delete(ctx context.Context, partition, row string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM backup_results WHERE partition = ? AND row_key = ?`, partition, row)
	if err != nil {
		return fmt.Errorf("delete backup result: %w", err)
	}
	return nil
}

// GetByID fetches one BackupResult by its bare id, without requiring the
// caller to know its (partition, row_key) pair. The HTTP API is the only
// caller that addresses results this way; every other path already has the
// full row from a prior List/Put.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.BackupResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM backup_results WHERE json_extract(data, '$.id') = ? LIMIT 1`, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("backup result not found: " + id)
	}
	if err != nil {
		return nil, fmt.Errorf("get backup result by id: %w", err)
	}
	var r domain.BackupResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("unmarshal backup result: %w", err)
	}
	return &r, nil
}

// DeleteByID removes a BackupResult by its bare id.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM backup_results WHERE json_extract(data, '$.id') = ?`, id)
	if err != nil {
		return fmt.Errorf("delete backup result by id: %w", err)
	}
	return nil
}

// FindByBlobName fetches the BackupResult whose blob_name matches name, or
// a not-found DomainError if no record references it. Used by the
// blob-delete route, which is addressed by blob name rather than result id.
func (s *Store) FindByBlobName(ctx context.Context, name string) (*domain.BackupResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM backup_results WHERE json_extract(data, '$.blob_name') = ? LIMIT 1`, name,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("backup result not found for blob: " + name)
	}
	if err != nil {
		return nil, fmt.Errorf("find backup result by blob name: %w", err)
	}
	var r domain.BackupResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("unmarshal backup result: %w", err)
	}
	return &r, nil
}

// DeleteByBlobName removes the history record referencing blob name, if any.
func (s *Store) DeleteByBlobName(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM backup_results WHERE json_extract(data, '$.blob_name') = ?`, name)
	if err != nil {
		return fmt.Errorf("delete backup result by blob name: %w", err)
	}
	return nil
}

// ListOptions filters a paged history listing. DatabaseID and Status
// narrow the SQL query server-side; the rest (§4.5's remaining filters:
// database_ids, triggered_by, database_type, and the created_at date
// range) are applied in memory against the narrowed candidate set, per
// §9/§11's in-memory filter-then-paginate design.
type ListOptions struct {
	DatabaseID   string
	DatabaseIDs  []string
	Status       domain.ResultStatus
	TriggeredBy  domain.TriggeredBy
	DatabaseType domain.EngineType
	CreatedFrom  time.Time
	CreatedTo    time.Time
	Page         int // 1-based
	PageSize     int
}

// List returns a page of BackupResults matching opts, newest first. Per
// §9's implementation-budget note, this fetches all matching rows and
// paginates in memory rather than with a continuation-token scheme; the
// SQL WHERE clause narrows to DatabaseID/Status server-side, and the
// remaining filters are applied against that candidate set before
// pagination.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*domain.BackupResult, int, error) {
	query := `SELECT data FROM backup_results WHERE 1=1`
	var args []any
	if opts.DatabaseID != "" {
		query += ` AND database_id = ?`
		args = append(args, opts.DatabaseID)
	}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY partition DESC, row_key ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list backup results: %w", err)
	}
	defer rows.Close()

	databaseIDs := make(map[string]bool, len(opts.DatabaseIDs))
	for _, id := range opts.DatabaseIDs {
		databaseIDs[id] = true
	}

	var all []*domain.BackupResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, 0, fmt.Errorf("scan backup result: %w", err)
		}
		var r domain.BackupResult
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, 0, fmt.Errorf("unmarshal backup result: %w", err)
		}
		if len(databaseIDs) > 0 && !databaseIDs[r.DatabaseID] {
			continue
		}
		if opts.TriggeredBy != "" && r.TriggeredBy != opts.TriggeredBy {
			continue
		}
		if opts.DatabaseType != "" && r.DatabaseType != opts.DatabaseType {
			continue
		}
		if !opts.CreatedFrom.IsZero() && r.CreatedAt.Before(opts.CreatedFrom) {
			continue
		}
		if !opts.CreatedTo.IsZero() && r.CreatedAt.After(opts.CreatedTo) {
			continue
		}
		all = append(all, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate backup results: %w", err)
	}

	total := len(all)
	page, pageSize := opts.Page, opts.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = total
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []*domain.BackupResult{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// LastCompleted returns the most recent completed BackupResult for
// (databaseID, tier), or nil if none exists. A legacy result with a nil
// tier is treated as matching TierDaily (§4.5), mirroring
// domain.BackupResult.EffectiveTier.
func (s *Store) LastCompleted(ctx context.Context, databaseID string, tier domain.Tier) (*domain.BackupResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM backup_results
		WHERE database_id = ? AND status = ?
		ORDER BY partition DESC, row_key ASC`,
		databaseID, string(domain.StatusCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("query last completed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan backup result: %w", err)
		}
		var r domain.BackupResult
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal backup result: %w", err)
		}
		if r.EffectiveTier() == tier {
			return &r, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backup results: %w", err)
	}
	return nil, nil
}

// CompletedForDatabase returns every completed BackupResult for databaseID,
// newest first, for the retention pass to bucket by tier.
func (s *Store) CompletedForDatabase(ctx context.Context, databaseID string) ([]*domain.BackupResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM backup_results
		WHERE database_id = ? AND status = ?
		ORDER BY partition DESC, row_key ASC`,
		databaseID, string(domain.StatusCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("query completed for database: %w", err)
	}
	defer rows.Close()

	var out []*domain.BackupResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan backup result: %w", err)
		}
		var r domain.BackupResult
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal backup result: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backup results: %w", err)
	}
	return out, nil
}
