// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package domain

import "time"

// EngineType identifies the database server technology.
type EngineType string

const (
	EngineMySQL      EngineType = "mysql"
	EnginePostgreSQL EngineType = "postgresql"
	EngineSQLServer  EngineType = "sqlserver"
)

// DefaultPort returns the conventional port for the engine type.
func (t EngineType) DefaultPort() int {
	switch t {
	case EngineMySQL:
		return 3306
	case EnginePostgreSQL:
		return 5432
	case EngineSQLServer:
		return 1433
	default:
		return 0
	}
}

// AuthMethod identifies how credentials for an Engine or Database are
// resolved at dispatch time.
type AuthMethod string

const (
	AuthUserPassword     AuthMethod = "user_password"
	AuthManagedIdentity  AuthMethod = "managed_identity"
	AuthAzureAD          AuthMethod = "azure_ad"
	AuthConnectionString AuthMethod = "connection_string"
)

// SystemDatabases lists the built-in databases each engine type ships with;
// these are never user data and Discovery flags them accordingly.
var SystemDatabases = map[EngineType]map[string]bool{
	EngineMySQL: {
		"mysql":               true,
		"information_schema":  true,
		"performance_schema":  true,
		"sys":                 true,
	},
	EnginePostgreSQL: {
		"postgres":  true,
		"template0": true,
		"template1": true,
	},
	EngineSQLServer: {
		"master": true,
		"tempdb": true,
		"model":  true,
		"msdb":   true,
	},
}

// Engine is a database server: host, port, and the credentials that its
// Databases may inherit by reference.
type Engine struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	EngineType         EngineType `json:"engine_type"`
	Host               string     `json:"host"`
	Port               int        `json:"port"`
	AuthMethod         AuthMethod `json:"auth_method"`
	Username           string     `json:"username,omitempty"`
	PasswordSecretName string     `json:"password_secret_name,omitempty"`
	Password           string     `json:"password,omitempty"`
	ConnectionString   string     `json:"connection_string,omitempty"`
	PolicyID           string     `json:"policy_id,omitempty"`
	DiscoveryEnabled   bool       `json:"discovery_enabled"`
	LastDiscovery      *time.Time `json:"last_discovery,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CreatedBy          string     `json:"created_by,omitempty"`
}

// HasCredentials reports whether the engine can authenticate a connection
// by one of its configured methods.
func (e *Engine) HasCredentials() bool {
	switch e.AuthMethod {
	case AuthUserPassword:
		return e.Username != "" && (e.Password != "" || e.PasswordSecretName != "")
	case AuthConnectionString:
		return e.ConnectionString != ""
	case AuthManagedIdentity, AuthAzureAD:
		return true
	default:
		return false
	}
}

// EnginePartition is the fixed partition key for the Engine table.
const EnginePartition = "engine"

// EngineRow is the (partition, row_key) pair for e: partition "engine", row
// = id, per §3.
func (e *Engine) EngineRow() (partition, row string) {
	return EnginePartition, e.ID
}

// DiscoveredDatabase is one row returned by engine Discovery (§4.4): a
// database name observed on the live server, annotated with whether it is
// a system database and whether it is already tracked in the catalog.
type DiscoveredDatabase struct {
	Name       string `json:"name"`
	IsSystem   bool   `json:"is_system"`
	Exists     bool   `json:"exists"`
	ExistingID string `json:"existing_id,omitempty"`
}
