// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "time"

// Config holds all application configuration loaded from environment
// variables and an optional config file. Immutable after Load(); safe for
// concurrent read access.
type Config struct {
	Catalog   CatalogConfig   `koanf:"catalog"`
	Queue     QueueConfig     `koanf:"queue"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Worker    WorkerConfig    `koanf:"worker"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	BlobStore BlobStoreConfig `koanf:"blobstore"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// CatalogConfig holds the SQLite-backed control-plane store settings.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// QueueConfig holds the NATS JetStream durable queue settings (§10).
type QueueConfig struct {
	URL                string        `koanf:"url"`
	EmbeddedServer     bool          `koanf:"embedded_server"`
	StoreDir           string        `koanf:"store_dir"`
	StreamName         string        `koanf:"stream_name"`
	DurableConsumer    string        `koanf:"durable_consumer"`
	VisibilityTimeout  time.Duration `koanf:"visibility_timeout"`   // 300s general redelivery window
	WorkerAckWait      time.Duration `koanf:"worker_ack_wait"`      // 900s worker receive visibility
	DumpTimeout        time.Duration `koanf:"dump_timeout"`         // 3600s hard ceiling on one dump
	PoisonThreshold    int           `koanf:"poison_threshold"`     // default 5
}

// SchedulerConfig holds the C1 tick-loop and C5 retention-timer settings
// (§4.1, §4.5).
type SchedulerConfig struct {
	TickInterval    time.Duration `koanf:"tick_interval"`    // 15m
	RetentionCron   string        `koanf:"retention_cron"`   // default "0 2 * * *"
	TickConcurrency int           `koanf:"tick_concurrency"` // default 8, bounds concurrent database evaluations per tick
}

// WorkerConfig holds the C3 worker pool settings (§4.3).
type WorkerConfig struct {
	PoolSize int `koanf:"pool_size"`
}

// PipelineConfig holds the C4 dump/compress/upload pipeline settings (§4.4).
type PipelineConfig struct {
	MysqldumpPath     string        `koanf:"mysqldump_path"`
	PgDumpPath        string        `koanf:"pg_dump_path"`
	SqlcmdPath        string        `koanf:"sqlcmd_path"`
	MySQLClientPath   string        `koanf:"mysql_client_path"` // mysql CLI, used for connection tests and discovery queries
	PsqlClientPath    string        `koanf:"psql_client_path"`  // psql CLI, used for connection tests and discovery queries
	DumpTimeout       time.Duration `koanf:"dump_timeout"`
	ConnectionTimeout time.Duration `koanf:"connection_timeout"`
	CompressionLevel  int           `koanf:"compression_level"`
}

// BlobStoreConfig holds the local-filesystem object store settings.
type BlobStoreConfig struct {
	RootDir string `koanf:"root_dir"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// APIConfig holds API pagination settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication, secrets and rate-limiting settings.
type SecurityConfig struct {
	JWTSecret                       string        `koanf:"jwt_secret"`
	SessionTimeout                  time.Duration `koanf:"session_timeout"`
	AdminUsername                   string        `koanf:"admin_username"`
	AdminPassword                   string        `koanf:"admin_password"`
	RateLimitReqs                   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow                 time.Duration `koanf:"rate_limit_window"`
	CORSOrigins                     []string      `koanf:"cors_origins"`
	DevelopmentModePlaintextSecrets bool          `koanf:"development_mode_plaintext_secrets"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}
