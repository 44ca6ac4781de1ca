// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/backupd/config.yaml",
	"/etc/backupd/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path: "/data/backupd/catalog.db",
		},
		Queue: QueueConfig{
			URL:               "nats://127.0.0.1:4222",
			EmbeddedServer:    true,
			StoreDir:          "/data/backupd/jetstream",
			StreamName:        "BACKUP_JOBS",
			DurableConsumer:   "backup-workers",
			VisibilityTimeout: 300 * time.Second,
			WorkerAckWait:     900 * time.Second,
			DumpTimeout:       3600 * time.Second,
			PoisonThreshold:   5,
		},
		Scheduler: SchedulerConfig{
			TickInterval:    15 * time.Minute,
			RetentionCron:   "0 2 * * *",
			TickConcurrency: 8,
		},
		Worker: WorkerConfig{
			PoolSize: 4,
		},
		Pipeline: PipelineConfig{
			MysqldumpPath:     "mysqldump",
			PgDumpPath:        "pg_dump",
			SqlcmdPath:        "sqlcmd",
			MySQLClientPath:   "mysql",
			PsqlClientPath:    "psql",
			DumpTimeout:       3600 * time.Second,
			ConnectionTimeout: 10 * time.Second,
			CompressionLevel:  6,
		},
		BlobStore: BlobStoreConfig{
			RootDir: "/data/backupd/blobs",
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		API: APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
		Security: SecurityConfig{
			SessionTimeout:                  24 * time.Hour,
			RateLimitReqs:                   100,
			RateLimitWindow:                 time.Minute,
			CORSOrigins:                     []string{"*"},
			DevelopmentModePlaintextSecrets: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with precedence Defaults < Config File <
// Environment Variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated env var strings into slices
// for the handful of config paths koanf's struct tags mark as slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf dotted paths,
// e.g. CATALOG_PATH -> catalog.path, JWT_SECRET -> security.jwt_secret.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	mappings := map[string]string{
		"catalog_path": "catalog.path",

		"nats_url":             "queue.url",
		"nats_embedded":        "queue.embedded_server",
		"nats_store_dir":       "queue.store_dir",
		"nats_stream_name":     "queue.stream_name",
		"nats_durable":         "queue.durable_consumer",
		"visibility_timeout":   "queue.visibility_timeout",
		"worker_ack_wait":      "queue.worker_ack_wait",
		"dump_timeout":         "queue.dump_timeout",
		"poison_threshold":     "queue.poison_threshold",

		"scheduler_tick_interval": "scheduler.tick_interval",
		"retention_cron":          "scheduler.retention_cron",
		"worker_pool_size":        "worker.pool_size",

		"mysqldump_path":           "pipeline.mysqldump_path",
		"pg_dump_path":             "pipeline.pg_dump_path",
		"sqlcmd_path":              "pipeline.sqlcmd_path",
		"pipeline_dump_timeout":    "pipeline.dump_timeout",
		"pipeline_connect_timeout": "pipeline.connection_timeout",
		"compression_level":        "pipeline.compression_level",

		"blobstore_root_dir": "blobstore.root_dir",

		"http_port":        "server.port",
		"http_host":        "server.host",
		"server_read_timeout":  "server.read_timeout",
		"server_write_timeout": "server.write_timeout",
		"environment":      "server.environment",

		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",

		"jwt_secret":                          "security.jwt_secret",
		"session_timeout":                     "security.session_timeout",
		"admin_username":                      "security.admin_username",
		"admin_password":                      "security.admin_password",
		"rate_limit_reqs":                     "security.rate_limit_reqs",
		"rate_limit_window":                   "security.rate_limit_window",
		"cors_origins":                        "security.cors_origins",
		"development_mode_plaintext_secrets":  "security.development_mode_plaintext_secrets",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := mappings[key]; ok {
		return mapped
	}
	return strings.ReplaceAll(key, "_", ".")
}
