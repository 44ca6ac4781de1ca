// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"fmt"
	"sort"

	"github.com/dilux/backupd/internal/domain"
)

// BlobDeleter removes a stored backup blob by name. *blobstore.Store
// satisfies this; history depends on the narrow interface rather than the
// blobstore package to avoid a cross-package coupling neither side needs.
type BlobDeleter interface {
	Delete(ctx context.Context, name string) error
}

// RetentionResult summarizes one database's retention pass: how many
// results were deleted per tier, and any per-record errors encountered
// along the way. A non-empty Errors does not mean the pass stopped early;
// every other eligible record is still attempted (§4.5).
type RetentionResult struct {
	DatabaseID    string
	DeletedByTier map[domain.Tier]int
	Errors        []error
}

// RunRetentionPass applies policy's per-tier keep_count to every completed
// BackupResult recorded for databaseID, deleting the excess.
//
// The full completed list is read once at the start of the pass (via
// CompletedForDatabase), so a result written concurrently after the read
// is never a deletion candidate in this pass. Results are bucketed by
// EffectiveTier, newest-first within each bucket (the query's order), and
// the first KeepCount of each bucket survive; a disabled tier (Enabled
// false) prunes nothing at all regardless of KeepCount, and a keep_count
// of 0 on an enabled tier deletes every result in that bucket.
//
// Each deletion removes both the history row and, if set, the underlying
// blob; either can fail independently, and failures are collected rather
// than aborting the pass so one bad record never blocks pruning the rest.
func (s *Store) RunRetentionPass(ctx context.Context, databaseID string, policy *domain.BackupPolicy, blobs BlobDeleter) (*RetentionResult, error) {
	completed, err := s.CompletedForDatabase(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("load completed results: %w", err)
	}

	result := &RetentionResult{DatabaseID: databaseID, DeletedByTier: make(map[domain.Tier]int)}

	byTier := make(map[domain.Tier][]*domain.BackupResult)
	for _, r := range completed {
		tier := r.EffectiveTier()
		byTier[tier] = append(byTier[tier], r)
	}

	for _, tier := range domain.TierOrder {
		bucket := byTier[tier]
		if len(bucket) == 0 {
			continue
		}
		cfg := policy.TierConfig(tier)
		if !cfg.Enabled {
			continue
		}

		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].CreatedAt.After(bucket[j].CreatedAt)
		})

		keep := cfg.KeepCount
		if keep < 0 {
			keep = 0
		}
		if keep >= len(bucket) {
			continue
		}

		for _, r := range bucket[keep:] {
			if err := s.deleteResult(ctx, r, blobs); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("database %s result %s: %w", databaseID, r.ID, err))
				continue
			}
			result.DeletedByTier[tier]++
		}
	}

	return result, nil
}

func (s *Store) deleteResult(ctx context.Context, r *domain.BackupResult, blobs BlobDeleter) error {
	if r.BlobName != "" && blobs != nil {
		if err := blobs.Delete(ctx, r.BlobName); err != nil {
			return fmt.Errorf("delete blob: %w", err)
		}
	}
	partition, row := r.Row()
	if err := s.Delete(ctx, partition, row); err != nil {
		return fmt.Errorf("delete history row: %w", err)
	}
	return nil
}
