// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package domain

import "time"

// DatabasePartition is the fixed partition key for the Database table.
const DatabasePartition = "database"

// DefaultPolicyID is the policy new databases are seeded with, and the
// scheduler's fallback when a referenced policy cannot be resolved (§9 Open
// Questions: made an explicit, configurable value rather than an
// accidental coincidence).
const DefaultPolicyID = "production-standard"

// Database is a logical database hosted on an Engine.
type Database struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	EngineID             string     `json:"engine_id"`
	UseEngineCredentials bool       `json:"use_engine_credentials"`
	UseEnginePolicy      bool       `json:"use_engine_policy"`
	Host                 string     `json:"host"`
	Port                 int        `json:"port"`
	DatabaseName         string     `json:"database_name"`
	DatabaseType         EngineType `json:"database_type"`
	Username             string     `json:"username,omitempty"`
	PasswordSecretName   string     `json:"password_secret_name,omitempty"`
	Password             string     `json:"password,omitempty"`
	PolicyID             string     `json:"policy_id,omitempty"`
	Enabled              bool       `json:"enabled"`
	Compression          bool       `json:"compression"`
	BackupDestination    string     `json:"backup_destination,omitempty"`
	Tags                 map[string]string `json:"tags,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	CreatedBy            string     `json:"created_by,omitempty"`
}

// DatabaseRow is the (partition, row_key) pair for d: partition "database",
// row = id, per §3.
func (d *Database) DatabaseRow() (partition, row string) {
	return DatabasePartition, d.ID
}

// EffectivePolicyID resolves the policy this database backs up under,
// following §4.1 step 4a: prefer the engine's policy when use_engine_policy
// is set and the engine has one, otherwise the database's own policy_id,
// otherwise the configured default.
func (d *Database) EffectivePolicyID(enginePolicyID string, defaultPolicyID string) string {
	if d.UseEnginePolicy && enginePolicyID != "" {
		return enginePolicyID
	}
	if d.PolicyID != "" {
		return d.PolicyID
	}
	if defaultPolicyID != "" {
		return defaultPolicyID
	}
	return DefaultPolicyID
}
