// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dilux/backupd/internal/domain"
)

// GetSettings fetches the single AppSettings row, seeding it with defaults
// on first access.
func (s *Store) GetSettings(ctx context.Context) (*domain.AppSettings, error) {
	var settings domain.AppSettings
	err := getRow(ctx, s.db, "settings", domain.SettingsPartition, domain.SettingsRow, &settings)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := domain.DefaultAppSettings()
		if err := s.PutSettings(ctx, defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// PutSettings replaces the single AppSettings row.
func (s *Store) PutSettings(ctx context.Context, settings *domain.AppSettings) error {
	return putRow(ctx, s.db, "settings", domain.SettingsPartition, domain.SettingsRow, settings, nil, nil)
}
