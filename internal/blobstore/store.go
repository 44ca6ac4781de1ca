// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dilux/backupd/internal/domain"
)

// Store is a local-filesystem-backed object store rooted at RootDir. Blob
// names are relative paths (database_type/database_id/timestamp.ext) and
// are never interpreted outside RootDir.
type Store struct {
	rootDir string
}

// New returns a Store rooted at rootDir, creating it if necessary.
func New(rootDir string) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0o750); err != nil {
		return nil, domain.NewStorageError("create blobstore root", err)
	}
	return &Store{rootDir: rootDir}, nil
}

// resolve maps a blob name to an absolute path, rejecting any name that
// would escape RootDir via ".." path segments.
func (s *Store) resolve(name string) (string, error) {
	clean := filepath.Clean("/" + name)[1:]
	if clean == "" || clean == "." {
		return "", domain.NewValidationError("blob name is empty")
	}
	full := filepath.Join(s.rootDir, clean)
	if full != s.rootDir && !isWithin(s.rootDir, full) {
		return "", domain.NewValidationError("blob name escapes store root: " + name)
	}
	return full, nil
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Put atomically writes r's contents to name, creating any intermediate
// directories. The write lands via a temp file in the same directory
// followed by a rename, so concurrent readers never see a partial write.
func (s *Store) Put(ctx context.Context, name string, r io.Reader) (int64, error) {
	dest, err := s.resolve(name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return 0, domain.NewStorageError("create blob directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return 0, domain.NewStorageError("create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup, rename below is the success path

	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil {
		return 0, domain.NewStorageError("write blob", copyErr)
	}
	if closeErr != nil {
		return 0, domain.NewStorageError("close temp file", closeErr)
	}
	if err := ctx.Err(); err != nil {
		return 0, domain.NewStorageError("upload cancelled", err)
	}
	if err := os.Chmod(tmpPath, 0o640); err != nil {
		return 0, domain.NewStorageError("chmod blob", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, domain.NewStorageError("finalize blob", err)
	}
	return n, nil
}

// Get opens name for reading. The caller must close the returned reader.
func (s *Store) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path validated by resolve
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewNotFoundError("blob not found: " + name)
		}
		return nil, domain.NewStorageError("open blob", err)
	}
	return f, nil
}

// Delete removes name. Deleting an absent blob is not an error: retention
// and explicit deletes must be idempotent against a blob already removed
// by a prior attempt.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return domain.NewStorageError("delete blob", err)
	}
	return nil
}

// Exists reports whether name is present in the store.
func (s *Store) Exists(name string) (bool, error) {
	path, err := s.resolve(name)
	if err != nil {
		return false, err
	}
	_, statErr := os.Stat(path)
	if statErr == nil {
		return true, nil
	}
	if os.IsNotExist(statErr) {
		return false, nil
	}
	return false, domain.NewStorageError("stat blob", statErr)
}

// URL returns the addressable location of name within the store, for
// BackupResult.blob_url. A filesystem-backed store has no real object
// URL, so this is a file:// URL over the resolved absolute path.
func (s *Store) URL(name string) string {
	clean := filepath.Clean("/" + name)[1:]
	return "file://" + filepath.Join(s.rootDir, clean)
}

// BlobName builds the canonical blob name for a completed backup:
// database_type/database_id/timestamp.ext (§3, §9).
func BlobName(engineType domain.EngineType, databaseID, timestamp, ext string) string {
	return fmt.Sprintf("%s/%s/%s.%s", engineType, databaseID, timestamp, ext)
}

// DatabaseIDFromBlobName recovers the database id embedded in a blob name
// produced by BlobName, for the orphan-detection and bulk-delete paths that
// only have a blob name to work from. Returns ("", false) if name does not
// match the expected two-separator shape.
func DatabaseIDFromBlobName(name string) (string, bool) {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) != 3 {
		return "", false
	}
	return parts[1], true
}
