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

// PutUser inserts or updates a User, denormalizing username for the unique
// index that enforces no-duplicate-login-name.
func (s *Store) PutUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = domain.Now()
	}

	partition, row := u.Row()
	return putRow(ctx, s.db, "users", partition, row, u, []string{"username"}, []any{u.Username})
}

// GetUser fetches a User by id.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := getRow(ctx, s.db, "users", domain.UserPartition, id, &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("user not found: " + id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a User by login name.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM users WHERE username = ?`, username).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("user not found: " + username)
	}
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every User.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM users WHERE partition = ?`, domain.UserPartition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var u domain.User
		if err := json.Unmarshal([]byte(data), &u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// DeleteUser removes a User by id.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	ok, err := deleteRow(ctx, s.db, "users", domain.UserPartition, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewNotFoundError("user not found: " + id)
	}
	return nil
}
