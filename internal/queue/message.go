// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package queue

import (
	"github.com/nats-io/nats.go/jetstream"

	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/metrics"
)

// Message wraps one delivered BackupJob with its underlying JetStream
// message, so the worker pool can decode the job and resolve its
// ack/nak/term decision without depending on jetstream directly.
type Message struct {
	Job             *domain.BackupJob
	raw             jetstream.Msg
	deliveryCount   uint64
	poisonThreshold int
}

// wrapMessage decodes raw's body into a BackupJob and records how many
// times it has been delivered, so the caller can decide whether this
// delivery has crossed the poison threshold.
func wrapMessage(raw jetstream.Msg, poisonThreshold int) (*Message, error) {
	job, err := domain.JobFromMessage(raw.Data())
	if err != nil {
		return nil, err
	}

	var delivered uint64 = 1
	if meta, err := raw.Metadata(); err == nil && meta != nil {
		delivered = meta.NumDelivered
	}

	return &Message{
		Job:             job,
		raw:             raw,
		deliveryCount:   delivered,
		poisonThreshold: poisonThreshold,
	}, nil
}

// DeliveryCount returns how many times this message has been delivered,
// counting the current delivery.
func (m *Message) DeliveryCount() uint64 {
	return m.deliveryCount
}

// IsPoison reports whether this delivery has exceeded the configured
// poison threshold and should be termed rather than retried.
func (m *Message) IsPoison() bool {
	return m.poisonThreshold > 0 && m.deliveryCount > uint64(m.poisonThreshold)
}

// Ack acknowledges successful processing, removing the message from the
// stream permanently.
func (m *Message) Ack() error {
	metrics.QueueConsumeTotal.WithLabelValues("ack").Inc()
	return m.raw.Ack()
}

// Nak signals a transient failure, making the message eligible for
// redelivery after the consumer's AckWait.
func (m *Message) Nak() error {
	metrics.QueueConsumeTotal.WithLabelValues("nak").Inc()
	return m.raw.Nak()
}

// Term permanently removes the message without redelivery, for poison
// messages that have exceeded the redelivery threshold.
func (m *Message) Term() error {
	metrics.QueueConsumeTotal.WithLabelValues("term").Inc()
	metrics.QueuePoisonMessages.Inc()
	return m.raw.Term()
}
