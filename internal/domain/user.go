// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package domain

import "time"

// Role is a coarse-grained permission level for a User.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// User is an operator account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"-"`
	Enabled      bool       `json:"enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// UserPartition is the fixed partition key for the User table.
const UserPartition = "user"

// Row returns the (partition, row_key) pair for u: partition "user", row =
// id, per §3.
func (u *User) Row() (partition, row string) {
	return UserPartition, u.ID
}

// AccessRequestStatus is the lifecycle state of an AccessRequest.
type AccessRequestStatus string

const (
	AccessRequestPending  AccessRequestStatus = "pending"
	AccessRequestApproved AccessRequestStatus = "approved"
	AccessRequestDenied   AccessRequestStatus = "denied"
)

// AccessRequest is a pending grant request against some resource; its
// approval workflow UI is out of scope (§1), but the entity is modeled and
// stored so the core CRUD surface (§6) has somewhere to persist it.
type AccessRequest struct {
	ID            string              `json:"id"`
	RequestedBy   string              `json:"requested_by"`
	ResourceType  string              `json:"resource_type"`
	ResourceID    string              `json:"resource_id"`
	Justification string              `json:"justification,omitempty"`
	Status        AccessRequestStatus `json:"status"`
	ReviewedBy    string              `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time          `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// AccessRequestPartition is the fixed partition key for the AccessRequest
// table.
const AccessRequestPartition = "access_request"

// Row returns the (partition, row_key) pair for r.
func (r *AccessRequest) Row() (partition, row string) {
	return AccessRequestPartition, r.ID
}

// AppSettings is the single deployment-wide settings row.
type AppSettings struct {
	DefaultPolicyID                 string `json:"default_policy_id"`
	DevelopmentModePlaintextSecrets bool   `json:"development_mode_plaintext_secrets"`
	DefaultCompression              bool   `json:"default_compression"`
	DefaultPoisonThreshold          int    `json:"default_poison_threshold"`
}

// SettingsPartition and SettingsRow are the fixed (partition, row_key) for
// the single AppSettings row, per §3.
const (
	SettingsPartition = "settings"
	SettingsRow       = "app"
)

// DefaultAppSettings are the values a fresh catalog is seeded with.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		DefaultPolicyID:                 DefaultPolicyID,
		DevelopmentModePlaintextSecrets: false,
		DefaultCompression:              true,
		DefaultPoisonThreshold:          5,
	}
}
