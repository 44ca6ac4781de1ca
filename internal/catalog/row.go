// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// putRow upserts a JSON-encoded payload at (partition, row_key) in table,
// with any extra denormalized (column, value) pairs also written. Every
// entity-specific Put method is a thin wrapper around this.
func putRow(ctx context.Context, db *sql.DB, table, partition, row string, payload any, extraCols []string, extraVals []any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", table, err)
	}

	cols := append([]string{"partition", "row_key"}, extraCols...)
	cols = append(cols, "data")
	vals := append([]any{partition, row}, extraVals...)
	vals = append(vals, string(data))

	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	for i, c := range cols {
		placeholders[i] = "?"
		if c != "partition" && c != "row_key" {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(partition, row_key) DO UPDATE SET %s`,
		table, joinCols(cols), joinCols(placeholders), joinCols(updates),
	)
	_, err = db.ExecContext(ctx, query, vals...)
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}
	return nil
}

func joinCols(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// getRow fetches and unmarshals the payload at (partition, row_key), or
// returns sql.ErrNoRows if absent.
func getRow(ctx context.Context, db *sql.DB, table, partition, row string, out any) error {
	var data string
	err := db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data FROM %s WHERE partition = ? AND row_key = ?`, table),
		partition, row,
	).Scan(&data)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), out)
}

// deleteRow removes the row at (partition, row_key) and reports whether a
// row was actually deleted.
func deleteRow(ctx context.Context, db *sql.DB, table, partition, row string) (bool, error) {
	res, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE partition = ? AND row_key = ?`, table), partition, row)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
