// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides centralized configuration management for backupd.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting
//
// Example:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
