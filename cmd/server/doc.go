// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package main is the entry point for the backupd server application.

backupd is a multi-tenant database backup orchestrator: it discovers
databases behind registered engines, schedules tiered backups on a
fixed-cadence tick loop, runs mysqldump/pg_dump/sqlcmd through a
compress-and-upload pipeline, and enforces tiered retention against the
resulting backup history.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("backupd")
	├── SchedulingSupervisor ("scheduling-layer")
	│   ├── Tick Service (fixed-cadence backup scheduling)
	│   └── Retention Timer Service (cron-scheduled tiered retention)
	├── ProcessingSupervisor ("processing-layer")
	│   └── Worker Pool (durable queue consumers running the dump pipeline)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API, JWT-authenticated)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and a config file
 2. Catalog: SQLite-backed control-plane store (engines, databases,
    policies, users, audit log), seeded with system retention policies
 3. Blob Store: local-filesystem backup artifact storage
 4. Queue: NATS JetStream durable work queue, embedded or external
 5. Secrets Resolver: plaintext/encrypted database credential resolution
 6. Pipeline: dump, gzip-compress, checksum, and upload
 7. Scheduler: tick service and retention timer
 8. Worker Pool: durable consumers executing queued backup jobs
 9. HTTP Server: JSON REST API secured with JWT bearer tokens

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):
  - Environment variables
  - Config file (config.yaml)
  - Built-in defaults

# Shutdown

On SIGINT/SIGTERM the root context is canceled, which propagates through
every supervised service: the scheduling loops stop ticking, the worker
pool lets in-flight jobs redeliver cleanly, and the HTTP server stops
accepting new connections. UnstoppedServiceReport is logged if any
service fails to stop within its configured shutdown timeout.
*/
package main
