package simplephotos

import (
	"context"
	"log/slog"

	"github.com/tendant/simple-photos/pkg/simplephotos/objectkey"
)

const (
	// orphanScanLimit bounds the targeted-cleanup listing so a polluted
	// namespace cannot stall an upload.
	orphanScanLimit = 100

	// bulkDeleteChunk is the store's multi-object delete ceiling.
	bulkDeleteChunk = 1000
)

// cleanupExisting removes an owner's prior photo objects ahead of a new
// upload. The strategy is chosen from the record: no photo fields means no
// store calls at all, otherwise the record-known keys are deleted and a
// bounded scan of the owner's namespace picks up orphans from interrupted
// earlier uploads.
//
// Per-key failures are collected into the report, never returned as an
// error; a stale object must not block a fresh upload.
func (s *service) cleanupExisting(ctx context.Context, user *User) *CleanupReport {
	if !user.HasPhotos() {
		return &CleanupReport{Strategy: CleanupSkip}
	}

	report := &CleanupReport{Strategy: CleanupTargeted}

	known := make(map[string]struct{})
	var keys []string
	for _, spec := range s.versionSpecs {
		key, ok := recordedKey(user, spec.Name)
		if !ok {
			continue
		}
		if _, seen := known[key]; seen {
			continue
		}
		known[key] = struct{}{}
		keys = append(keys, key)
	}

	deleted, errs := s.bulkDelete(ctx, keys)
	report.DeletedKeys = append(report.DeletedKeys, deleted...)
	report.Errors = append(report.Errors, errs...)

	// Orphan sweep. One bounded page; anything beyond the cap waits for the
	// next upload.
	page, err := s.store.ListByPrefix(ctx, objectkey.OwnerPrefix(user.CognitoID), orphanScanLimit, "")
	if err != nil {
		slog.Warn("orphan scan failed", "user_id", user.CognitoID, "err", err)
		report.Errors = append(report.Errors, KeyError{
			Key:     objectkey.OwnerPrefix(user.CognitoID),
			Code:    CodeDeletionError,
			Message: err.Error(),
		})
		return report
	}

	report.FilesScanned = len(page.Keys)

	var orphans []string
	for _, key := range page.Keys {
		if _, seen := known[key]; seen {
			continue
		}
		orphans = append(orphans, key)
	}

	deleted, errs = s.bulkDelete(ctx, orphans)
	report.DeletedKeys = append(report.DeletedKeys, deleted...)
	report.Errors = append(report.Errors, errs...)

	return report
}

// deleteAllForOwner lists and deletes every object under the owner's
// namespace, page by page. Used when the record itself is going away and
// nothing recorded can be trusted to be complete.
func (s *service) deleteAllForOwner(ctx context.Context, ownerID string) *CleanupReport {
	report := &CleanupReport{Strategy: CleanupFullScan}
	prefix := objectkey.OwnerPrefix(ownerID)

	token := ""
	for {
		page, err := s.store.ListByPrefix(ctx, prefix, bulkDeleteChunk, token)
		if err != nil {
			report.Errors = append(report.Errors, KeyError{
				Key:     prefix,
				Code:    CodeDeletionError,
				Message: err.Error(),
			})
			return report
		}

		report.FilesScanned += len(page.Keys)

		deleted, errs := s.bulkDelete(ctx, page.Keys)
		report.DeletedKeys = append(report.DeletedKeys, deleted...)
		report.Errors = append(report.Errors, errs...)

		if !page.IsTruncated || page.NextContinuationToken == "" {
			return report
		}
		token = page.NextContinuationToken
	}
}

// bulkDelete removes keys in chunks of at most bulkDeleteChunk. Keys the
// multi-object call could not delete are retried once individually before
// being reported as permanent failures.
func (s *service) bulkDelete(ctx context.Context, keys []string) (deleted []string, errs []KeyError) {
	for len(keys) > 0 {
		chunk := keys
		if len(chunk) > bulkDeleteChunk {
			chunk = chunk[:bulkDeleteChunk]
		}
		keys = keys[len(chunk):]

		result, err := s.store.DeleteMany(ctx, chunk)
		if err != nil {
			// Whole call failed; fall back to single deletes for the chunk.
			slog.Warn("bulk delete failed, retrying per key", "count", len(chunk), "err", err)
			d, e := s.deleteEach(ctx, chunk)
			deleted = append(deleted, d...)
			errs = append(errs, e...)
			continue
		}

		deleted = append(deleted, result.Deleted...)
		if len(result.Errors) == 0 {
			continue
		}

		retry := make([]string, 0, len(result.Errors))
		for _, ke := range result.Errors {
			retry = append(retry, ke.Key)
		}
		d, e := s.deleteEach(ctx, retry)
		deleted = append(deleted, d...)
		errs = append(errs, e...)
	}
	return deleted, errs
}

func (s *service) deleteEach(ctx context.Context, keys []string) (deleted []string, errs []KeyError) {
	for _, key := range keys {
		if err := s.store.DeleteOne(ctx, key); err != nil {
			errs = append(errs, KeyError{Key: key, Code: CodeDeletionError, Message: err.Error()})
			continue
		}
		deleted = append(deleted, key)
	}
	return deleted, errs
}
