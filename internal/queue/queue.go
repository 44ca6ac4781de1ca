// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package queue

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/dilux/backupd/internal/config"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/metrics"
)

// Subject is the single JetStream subject backupd publishes and consumes
// jobs on. One subject is sufficient: the scheduler is the only producer
// and the worker pool is the only consumer (§10).
const Subject = "backupd.jobs"

// Queue wires a NATS connection, JetStream stream, and durable pull
// consumer for BackupJob messages.
type Queue struct {
	cfg      config.QueueConfig
	embedded *EmbeddedServer
	nc       *nats.Conn
	js       jetstream.JetStream
	stream   jetstream.Stream
	consumer jetstream.Consumer
}

// Connect dials (or embeds) a NATS server, opens a JetStream context, and
// ensures the stream and durable consumer described by cfg exist. The
// stream and consumer creation is idempotent: calling Connect again with
// the same cfg against an already-provisioned server is a no-op update.
func Connect(ctx context.Context, cfg config.QueueConfig) (*Queue, error) {
	q := &Queue{cfg: cfg}

	url := cfg.URL
	if cfg.EmbeddedServer {
		embedded, err := NewEmbeddedServer(cfg.StoreDir)
		if err != nil {
			return nil, domain.NewConnectionError("start embedded NATS server", err)
		}
		q.embedded = embedded
		url = embedded.ClientURL()
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		q.Close()
		return nil, domain.NewConnectionError("connect to NATS", err)
	}
	q.nc = nc

	js, err := jetstream.New(nc)
	if err != nil {
		q.Close()
		return nil, domain.NewConnectionError("create JetStream context", err)
	}
	q.js = js

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{Subject},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
		Discard:   jetstream.DiscardOld,
	})
	if err != nil {
		q.Close()
		return nil, domain.NewConnectionError("ensure job stream", err)
	}
	q.stream = stream

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       cfg.DurableConsumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.WorkerAckWait,
		MaxDeliver:    cfg.PoisonThreshold + 1,
		FilterSubject: Subject,
	})
	if err != nil {
		q.Close()
		return nil, domain.NewConnectionError("ensure durable consumer", err)
	}
	q.consumer = consumer

	return q, nil
}

// Publish enqueues job, assigning its queue message id for JetStream
// deduplication so a scheduler retry after an ambiguous publish never
// double-enqueues the same job.
func (q *Queue) Publish(ctx context.Context, job *domain.BackupJob) error {
	body, err := job.ToMessage()
	if err != nil {
		return domain.NewValidationError("serialize backup job: " + err.Error())
	}

	_, err = q.js.Publish(ctx, Subject, body, jetstream.WithMsgID(job.ID))
	if err != nil {
		return domain.NewConnectionError("publish backup job", err)
	}
	metrics.QueuePublishTotal.Inc()
	return nil
}

// Fetch pulls up to batchSize pending jobs, waiting up to maxWait for at
// least one to arrive. An empty result with a nil error means no jobs
// were available within maxWait.
func (q *Queue) Fetch(ctx context.Context, batchSize int, maxWait time.Duration) ([]*Message, error) {
	batch, err := q.consumer.Fetch(batchSize, jetstream.FetchMaxWait(maxWait))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, domain.NewConnectionError("fetch backup jobs", err)
	}

	var out []*Message
	for raw := range batch.Messages() {
		msg, err := wrapMessage(raw, q.cfg.PoisonThreshold)
		if err != nil {
			// A message that fails to parse is unrecoverable: term it so
			// it never blocks the consumer, and skip it from this batch.
			_ = raw.Term()
			continue
		}
		out = append(out, msg)
	}
	if err := batch.Error(); err != nil {
		return out, domain.NewConnectionError("consume backup job batch", err)
	}
	return out, nil
}

// StreamInfo returns the current queue depth, for metrics and health
// checks.
func (q *Queue) StreamInfo(ctx context.Context) (*jetstream.StreamInfo, error) {
	info, err := q.stream.Info(ctx)
	if err != nil {
		return nil, domain.NewConnectionError("get stream info", err)
	}
	metrics.QueueDepth.Set(float64(info.State.Msgs))
	return info, nil
}

// Close tears down the connection (and the embedded server, if any). Safe
// to call on a partially-initialized Queue.
func (q *Queue) Close() {
	if q.nc != nil {
		q.nc.Close()
	}
	if q.embedded != nil {
		q.embedded.Shutdown(context.Background())
	}
}
