package simplephotos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// maxBatchSize caps how many users one batch request may name.
	maxBatchSize = 50

	// maxConcurrentDeletions bounds the worker pool.
	maxConcurrentDeletions = 5

	// taskTimeout bounds one per-user deletion task.
	taskTimeout = 30 * time.Second

	// deadlineSafetyMargin is how much budget must remain before a task is
	// allowed to start. Tasks that would run into the margin are refused
	// up front instead of being killed midway.
	deadlineSafetyMargin = 5 * time.Second
)

// MaxBatchSize exposes the request ceiling to transport layers.
const MaxBatchSize = maxBatchSize

// batchTask is one authorized per-user deletion unit. hasPhotos is captured
// at validation time so photo-less owners skip the object store entirely.
type batchTask struct {
	index     int
	userID    string
	hasPhotos bool
}

// BatchDeleteUsers removes up to MaxBatchSize user records and their photo
// objects in one call. Validation and authorization run before any object
// store work; authorized tasks then execute on a bounded worker pool, each
// under its own timeout. Per-user failures never abort the batch.
func (s *service) BatchDeleteUsers(ctx context.Context, req BatchDeleteRequest) (*BatchDeleteResult, error) {
	start := time.Now()

	reason := req.Reason
	if reason == "" {
		reason = "Batch deletion requested"
	}

	userIDs, err := validateBatch(req)
	if err != nil {
		return nil, err
	}

	outcomes := make([]DeletionOutcome, len(userIDs))
	tasks := s.authorizeBatch(ctx, req, userIDs, outcomes)

	s.executeBatch(ctx, tasks, outcomes)

	result := &BatchDeleteResult{
		Outcomes: outcomes,
		Reason:   reason,
		Summary: BatchSummary{
			RequestedCount:    len(userIDs),
			ProcessingSeconds: time.Since(start).Seconds(),
		},
	}
	for _, o := range outcomes {
		if o.Success {
			result.Summary.SuccessfulCount++
			result.Summary.TotalPhotosDeleted += o.PhotosDeleted
		} else {
			result.Summary.FailedCount++
		}
	}

	slog.Info("batch deletion finished",
		"reason", reason,
		"requested", result.Summary.RequestedCount,
		"succeeded", result.Summary.SuccessfulCount,
		"failed", result.Summary.FailedCount,
		"elapsed", time.Since(start))

	return result, nil
}

// validateBatch checks the request shape and returns the deduplicated user
// ids in first-seen order.
func validateBatch(req BatchDeleteRequest) ([]string, error) {
	if !req.Confirm {
		return nil, ErrConfirmationRequired
	}
	if len(req.UserIDs) == 0 {
		return nil, ErrBatchEmpty
	}
	// The cap applies to the raw list, before duplicates collapse.
	if len(req.UserIDs) > maxBatchSize {
		return nil, fmt.Errorf("%w (%d > %d)", ErrBatchTooLarge, len(req.UserIDs), maxBatchSize)
	}

	seen := make(map[string]struct{}, len(req.UserIDs))
	ids := make([]string, 0, len(req.UserIDs))
	for _, id := range req.UserIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: empty user id", ErrBatchEmpty)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

// authorizeBatch resolves each user id against the repository and the caller
// identity. Failures are written straight into outcomes; only users that
// pass both checks become tasks. When nothing passes, the executor has
// nothing to do and the store is never touched.
func (s *service) authorizeBatch(ctx context.Context, req BatchDeleteRequest, userIDs []string, outcomes []DeletionOutcome) []batchTask {
	var tasks []batchTask
	for i, id := range userIDs {
		outcomes[i].UserID = id

		user, err := s.repo.Get(ctx, id)
		if errors.Is(err, ErrUserNotFound) {
			outcomes[i].ErrorCode = CodeUserNotFound
			outcomes[i].Error = fmt.Sprintf("user %s not found", id)
			continue
		}
		if err != nil {
			outcomes[i].ErrorCode = CodeValidationError
			outcomes[i].Error = fmt.Sprintf("validation failed: %v", err)
			continue
		}

		if !req.TestMode && req.CallerID != id {
			outcomes[i].ErrorCode = CodeUnauthorizedDeletion
			outcomes[i].Error = fmt.Sprintf("caller is not authorized to delete user %s", id)
			continue
		}

		tasks = append(tasks, batchTask{index: i, userID: id, hasPhotos: user.HasPhotos()})
	}
	return tasks
}

// executeBatch runs the authorized tasks on a pool of at most
// maxConcurrentDeletions workers. Before each task is dispatched the
// remaining invocation budget is checked; once the budget dips into the
// safety margin, this task and every task after it are refused with
// TIMEOUT_RISK rather than started.
func (s *service) executeBatch(ctx context.Context, tasks []batchTask, outcomes []DeletionOutcome) {
	if len(tasks) == 0 {
		return
	}

	sem := make(chan struct{}, maxConcurrentDeletions)
	var wg sync.WaitGroup

	for i, task := range tasks {
		if s.deadline.Remaining(ctx) <= deadlineSafetyMargin {
			for _, late := range tasks[i:] {
				outcomes[late.index].ErrorCode = CodeTimeoutRisk
				outcomes[late.index].Error = "insufficient time remaining to start deletion"
			}
			slog.Warn("refusing remaining deletion tasks, deadline too close",
				"refused", len(tasks)-i)
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(task batchTask) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[task.index] = s.runDeletionTask(ctx, task)
		}(task)
	}

	wg.Wait()
}

// runDeletionTask deletes one user's objects and record under taskTimeout.
// A panic inside the task is converted into a failed outcome so one bad
// task cannot take down the batch. Cleanup failures are reported on the
// outcome but never block the record deletion.
func (s *service) runDeletionTask(ctx context.Context, task batchTask) (outcome DeletionOutcome) {
	start := time.Now()
	userID := task.userID
	outcome = DeletionOutcome{UserID: userID}
	defer func() {
		outcome.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			slog.Error("deletion task panicked", "user_id", userID, "panic", r)
			outcome = DeletionOutcome{
				UserID:    userID,
				ErrorCode: CodeTaskExecution,
				Error:     fmt.Sprintf("internal error deleting user %s", userID),
				Elapsed:   time.Since(start),
			}
		}
	}()

	// Tasks queued behind a full pool may have eaten into the budget while
	// waiting; re-check before touching storage.
	if s.deadline.Remaining(ctx) <= deadlineSafetyMargin {
		outcome.ErrorCode = CodeTimeoutRisk
		outcome.Error = "insufficient time remaining to start deletion"
		return outcome
	}

	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	report := &CleanupReport{Strategy: CleanupSkip}
	if task.hasPhotos {
		report = s.deleteAllForOwner(taskCtx, userID)
		if len(report.Errors) > 0 {
			slog.Warn("photo cleanup incomplete, deleting record anyway",
				"user_id", userID, "errors", len(report.Errors))
			outcome.CleanupError = fmt.Sprintf("failed to delete %d object(s)", len(report.Errors))
		}
	}

	if err := s.repo.Delete(taskCtx, userID); err != nil {
		outcome.ErrorCode = CodeDeletionError
		outcome.Error = err.Error()
		outcome.PhotosDeleted = len(report.DeletedKeys)
		return outcome
	}

	outcome.Success = true
	outcome.PhotosDeleted = len(report.DeletedKeys)
	return outcome
}
