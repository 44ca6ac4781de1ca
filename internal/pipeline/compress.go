// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/hex"
	"io"

	"github.com/klauspost/compress/gzip"
	sha256simd "github.com/minio/sha256-simd"

	"github.com/dilux/backupd/internal/domain"
)

// uploadStream copies source into the blob store under blobName, optionally
// gzip-compressing it first, and returns the number of bytes written to
// the store and the hex-encoded SHA-256 checksum of those bytes (the
// checksum covers the artifact as stored, matching what a later integrity
// check against the blob would recompute).
//
// Both compression and upload happen in one pass over source: a goroutine
// drives source through an optional gzip.Writer and a hashing writer into
// one end of an io.Pipe, while the blob store reads from the other end.
// Neither side buffers the full dump in memory, satisfying §4.4 step 4.
func (p *Pipeline) uploadStream(ctx context.Context, blobName string, source io.Reader, compress bool) (int64, string, error) {
	pr, pw := io.Pipe()
	hasher := sha256simd.New()

	go func() {
		dest := io.MultiWriter(pw, hasher)
		var writeErr error
		if compress {
			level := p.cfg.CompressionLevel
			if level == 0 {
				level = gzip.DefaultCompression
			}
			gz, err := gzip.NewWriterLevel(dest, level)
			if err != nil {
				pw.CloseWithError(domain.NewCompressionError("create gzip writer", err)) //nolint:errcheck // CloseWithError always returns nil
				return
			}
			if _, err := io.Copy(gz, source); err != nil {
				gz.Close() //nolint:errcheck,gosec // best-effort flush before reporting the copy error
				pw.CloseWithError(domain.NewCompressionError("compress backup stream", err)) //nolint:errcheck
				return
			}
			writeErr = gz.Close()
		} else {
			_, writeErr = io.Copy(dest, source)
		}
		if writeErr != nil {
			pw.CloseWithError(domain.NewCompressionError("write backup stream", writeErr)) //nolint:errcheck
			return
		}
		pw.Close() //nolint:errcheck,gosec // reader side observes EOF; any error here would already have been reported above
	}()

	size, err := p.blobs.Put(ctx, blobName, pr)
	if err != nil {
		return 0, "", err
	}

	return size, hex.EncodeToString(hasher.Sum(nil)), nil
}
