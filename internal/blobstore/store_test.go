// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package blobstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/dilux/backupd/internal/domain"
)

func TestStore_PutGetDelete(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	name := BlobName(domain.EngineMySQL, "db-1", "20260730T020000Z", "sql.gz")
	content := []byte("dump contents")

	n, err := s.Put(context.Background(), name, bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if n != int64(len(content)) {
		t.Errorf("Put() n = %d, want %d", n, len(content))
	}

	rc, err := s.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Get() content = %q, want %q", got, content)
	}

	exists, err := s.Exists(name)
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v, want true, nil", exists, err)
	}

	if err := s.Delete(context.Background(), name); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if exists, _ := s.Exists(name); exists {
		t.Error("blob still exists after Delete()")
	}

	// Deleting an already-absent blob must be idempotent.
	if err := s.Delete(context.Background(), name); err != nil {
		t.Errorf("Delete() on absent blob error = %v, want nil", err)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = s.Get(context.Background(), "mysql/db-1/missing.sql.gz")
	if kind, ok := domain.KindOf(err); !ok || kind != domain.ErrNotFound {
		t.Errorf("Get() on missing blob error = %v, want ErrNotFound", err)
	}
}

func TestStore_NeutralizesPathEscape(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Put(context.Background(), "../../etc/passwd", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	// A traversal-laden name is cleaned to a path still confined to root;
	// it must never land outside it.
	exists, err := s.Exists("etc/passwd")
	if err != nil || !exists {
		t.Errorf("expected cleaned blob to exist within root, got exists=%v err=%v", exists, err)
	}
}

func TestStore_RejectsEmptyName(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = s.Put(context.Background(), "", bytes.NewReader([]byte("x")))
	if kind, ok := domain.KindOf(err); !ok || kind != domain.ErrValidation {
		t.Errorf("Put() with empty name error = %v, want ErrValidation", err)
	}
}

func TestBlobName_DatabaseIDRoundTrip(t *testing.T) {
	name := BlobName(domain.EnginePostgreSQL, "db-42", "20260730T020000Z", "dump.gz")
	gotID, ok := DatabaseIDFromBlobName(name)
	if !ok || gotID != "db-42" {
		t.Errorf("DatabaseIDFromBlobName(%q) = %q, %v, want %q, true", name, gotID, ok, "db-42")
	}
}
