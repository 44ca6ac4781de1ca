// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer wraps an in-process NATS server with JetStream enabled,
// for single-node deployments that don't want to operate a separate NATS
// process.
type EmbeddedServer struct {
	srv       *server.Server
	clientURL string
}

// NewEmbeddedServer starts an embedded NATS server with JetStream storage
// rooted at storeDir. It blocks until the server is ready to accept
// connections or 30 seconds elapse.
func NewEmbeddedServer(storeDir string) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName: "backupd",
		Host:       "127.0.0.1",
		Port:       -1, // any free port
		JetStream:  true,
		StoreDir:   storeDir,
		NoLog:      true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready within timeout")
	}

	return &EmbeddedServer{srv: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the URL clients should connect to.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server, waiting up to ctx's deadline for in-flight
// work to finish.
func (s *EmbeddedServer) Shutdown(ctx context.Context) {
	s.srv.Shutdown()
	done := make(chan struct{})
	go func() {
		s.srv.WaitForShutdown()
		close(done)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}
}
