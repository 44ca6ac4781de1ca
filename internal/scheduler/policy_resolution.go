// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"

	"github.com/dilux/backupd/internal/domain"
)

// engineGetter is satisfied by both CatalogReader and PolicyReader.
type engineGetter interface {
	GetEngine(ctx context.Context, id string) (*domain.Engine, error)
}

// resolveEffectivePolicyID implements §4.1 step 4a: prefer the engine's
// policy when use_engine_policy is set and the engine has one, otherwise
// the database's own policy_id, otherwise defaultPolicyID.
func resolveEffectivePolicyID(ctx context.Context, catalog engineGetter, d *domain.Database, defaultPolicyID string) (string, error) {
	if d.UseEnginePolicy && d.EngineID != "" {
		engine, err := catalog.GetEngine(ctx, d.EngineID)
		if err != nil {
			return "", err
		}
		if engine != nil && engine.PolicyID != "" {
			return engine.PolicyID, nil
		}
	}
	if d.PolicyID != "" {
		return d.PolicyID, nil
	}
	if defaultPolicyID != "" {
		return defaultPolicyID, nil
	}
	return domain.DefaultPolicyID, nil
}
