// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package domain

import (
	"strings"
	"testing"
	"time"
)

func TestResultRowKey_LexicographicOrderIsReverseChronological(t *testing.T) {
	older := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)

	olderKey := ResultRowKey(older, "aaa")
	newerKey := ResultRowKey(newer, "bbb")

	if !(newerKey < olderKey) {
		t.Fatalf("expected newer result's row key (%s) to sort before older's (%s)", newerKey, olderKey)
	}
}

func TestResultRowKey_FixedWidth(t *testing.T) {
	key := ResultRowKey(time.Now(), "some-id")
	parts := strings.SplitN(key, "_", 2)
	if len(parts[0]) != 19 {
		t.Fatalf("expected 19-digit inverted-ticks prefix, got %d digits: %q", len(parts[0]), parts[0])
	}
	if parts[1] != "some-id" {
		t.Fatalf("expected id suffix %q, got %q", "some-id", parts[1])
	}
}

func TestResultIDFromRowKey_ExtractsID(t *testing.T) {
	id := "7b6d3f2a-0000-0000-0000-000000000001"
	key := ResultRowKey(time.Now(), id)
	got := ResultIDFromRowKey(key)
	if got != id {
		t.Fatalf("expected extracted id %q, got %q", id, got)
	}
}

func TestResultIDFromRowKey_LegacyFallback(t *testing.T) {
	// A short or underscore-free key is its own id (legacy data format).
	for _, legacy := range []string{"short_id", "no-underscore-here"} {
		if got := ResultIDFromRowKey(legacy); got != legacy {
			t.Fatalf("expected legacy row key %q to round-trip as its own id, got %q", legacy, got)
		}
	}
}

func TestResultPartition_IsDateOfCreatedAt(t *testing.T) {
	created := time.Date(2026, 7, 30, 13, 45, 0, 0, time.UTC)
	if got := ResultPartition(created); got != "2026-07-30" {
		t.Fatalf("expected partition 2026-07-30, got %s", got)
	}
}

func TestAuditRowKey_LexicographicOrderIsReverseChronological(t *testing.T) {
	older := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 7, 1, 0, 0, 1, 0, time.UTC)

	olderKey := AuditRowKey(older, "aaa")
	newerKey := AuditRowKey(newer, "bbb")

	if !(newerKey < olderKey) {
		t.Fatalf("expected newer audit entry's row key (%s) to sort before older's (%s)", newerKey, olderKey)
	}
}

func TestBackupResult_EffectiveTierDefaultsToDaily(t *testing.T) {
	r := &BackupResult{Tier: nil}
	if r.EffectiveTier() != TierDaily {
		t.Fatalf("expected nil tier to map to daily, got %s", r.EffectiveTier())
	}
}
