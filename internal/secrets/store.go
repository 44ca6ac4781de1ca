// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package secrets

import (
	"context"
	"os"
	"strings"

	"github.com/dilux/backupd/internal/domain"
)

// Store fetches a named secret's current value. Engine and Database rows
// reference secrets by name (password_secret_name) rather than storing
// them; the catalog never resolves a name itself.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
}

// EnvStore resolves secret names against the process environment, upper-
// casing and prefixing the name (e.g. "mysql-prod-password" with prefix
// "BACKUPD_SECRET_" becomes "BACKUPD_SECRET_MYSQL_PROD_PASSWORD"). This is
// the only secret-store mode implemented: a vault/KMS-backed Store is an
// extension point behind the same interface, not implemented here (§9).
type EnvStore struct {
	Prefix string
}

// NewEnvStore returns an EnvStore using the conventional BACKUPD_SECRET_
// prefix.
func NewEnvStore() *EnvStore {
	return &EnvStore{Prefix: "BACKUPD_SECRET_"}
}

// Get looks up name in the environment. A missing secret is reported as a
// *domain.DomainError of kind ErrCredential, matching the error taxonomy
// the worker maps onto BackupResult.error_details.
func (s *EnvStore) Get(_ context.Context, name string) (string, error) {
	envKey := s.Prefix + envSafe(name)
	val, ok := os.LookupEnv(envKey)
	if !ok || val == "" {
		return "", domain.NewCredentialError("secret not found: "+name, nil)
	}
	return val, nil
}

func envSafe(name string) string {
	upper := strings.ToUpper(name)
	replacer := strings.NewReplacer("-", "_", ".", "_", " ", "_")
	return replacer.Replace(upper)
}
