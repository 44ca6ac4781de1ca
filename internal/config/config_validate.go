// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "fmt"

// Validate checks the loaded configuration for internal consistency and
// required fields, independent of go-playground/validator's struct-tag
// validation used at the HTTP boundary for request bodies.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}

	if err := validateNATSURL(c.Queue.URL); err != nil {
		return fmt.Errorf("queue.url: %w", err)
	}
	if c.Queue.PoisonThreshold < 1 {
		return fmt.Errorf("queue.poison_threshold must be >= 1")
	}

	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("scheduler.tick_interval must be positive")
	}
	if c.Scheduler.TickConcurrency < 1 {
		return fmt.Errorf("scheduler.tick_concurrency must be >= 1")
	}

	if c.Worker.PoolSize < 1 {
		return fmt.Errorf("worker.pool_size must be >= 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535]")
	}

	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("server.environment must be one of development, staging, production")
	}

	if c.Server.Environment == "production" {
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("security.jwt_secret is required in production")
		}
		if c.Security.DevelopmentModePlaintextSecrets {
			return fmt.Errorf("security.development_mode_plaintext_secrets cannot be enabled in production")
		}
	}

	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size must be >= api.default_page_size")
	}

	return nil
}
