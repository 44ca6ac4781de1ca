// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package secrets

import (
	"context"

	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
)

// Encryptor is the subset of config.CredentialEncryptor the resolver
// depends on, satisfied by *config.CredentialEncryptor.
type Encryptor interface {
	Decrypt(ciphertext string) (string, error)
}

// Resolver implements the §4.3 credential resolution rule: prefer a named
// secret from the Store, falling back to the catalog row's stored password
// (decrypting it first unless development_mode_plaintext_secrets is set).
type Resolver struct {
	store               Store
	encryptor           Encryptor
	plaintextSecretsMode bool
}

// NewResolver builds a Resolver. encryptor may be nil only when
// plaintextSecretsMode is true; a production (non-plaintext) resolver
// without an encryptor cannot decrypt any stored password and every
// dispatch without a secret name will fail.
func NewResolver(store Store, encryptor Encryptor, plaintextSecretsMode bool) *Resolver {
	return &Resolver{store: store, encryptor: encryptor, plaintextSecretsMode: plaintextSecretsMode}
}

// NewResolverFromConfig builds a Resolver from loaded configuration,
// deriving the encryptor from the JWT secret when not in plaintext mode.
func NewResolverFromConfig(cfg *config.SecurityConfig) (*Resolver, error) {
	if cfg.DevelopmentModePlaintextSecrets {
		return NewResolver(NewEnvStore(), nil, true), nil
	}
	enc, err := config.NewCredentialEncryptor(cfg.JWTSecret)
	if err != nil {
		return nil, domain.NewCredentialError("initialize credential encryptor", err)
	}
	return NewResolver(NewEnvStore(), enc, false), nil
}

// ResolvePassword implements §4.3 step "Credential resolution": if
// secretName is set, fetch it from the store. Otherwise fall back to the
// catalog row's stored password, which is plaintext only when
// development_mode_plaintext_secrets is enabled and otherwise must be
// decrypted. Returns a *domain.DomainError of kind ErrCredential on any
// failure, per the worker's error taxonomy.
func (r *Resolver) ResolvePassword(ctx context.Context, secretName, storedPassword string) (string, error) {
	if secretName != "" {
		pw, err := r.store.Get(ctx, secretName)
		if err != nil {
			return "", err
		}
		return pw, nil
	}
	if storedPassword == "" {
		return "", domain.NewCredentialError("no password_secret_name and no stored password", nil)
	}
	if r.plaintextSecretsMode {
		return storedPassword, nil
	}
	if r.encryptor == nil {
		return "", domain.NewCredentialError("stored password requires decryption but no encryptor is configured", nil)
	}
	plain, err := r.encryptor.Decrypt(storedPassword)
	if err != nil {
		return "", domain.NewCredentialError("decrypt stored password", err)
	}
	return plain, nil
}
