package simplephotos

import (
	"context"
	"math"
	"time"
)

// PutParams contains parameters for storing an object.
type PutParams struct {
	Key          string
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

// ObjectPage is one page of a prefix listing.
type ObjectPage struct {
	Keys                  []string
	IsTruncated           bool
	NextContinuationToken string
}

// BulkDeleteResult reports the per-key outcome of a multi-object delete.
type BulkDeleteResult struct {
	Deleted []string
	Errors  []KeyError
}

// ObjectStore defines the interface for the photo object store.
type ObjectStore interface {
	// Put stores an object.
	Put(ctx context.Context, params PutParams, data []byte) error

	// HeadExists reports whether the key exists without fetching the body.
	HeadExists(ctx context.Context, key string) (bool, error)

	// ListByPrefix returns up to maxKeys keys under prefix, resuming from
	// continuationToken when non-empty.
	ListByPrefix(ctx context.Context, prefix string, maxKeys int32, continuationToken string) (*ObjectPage, error)

	// DeleteOne deletes a single key. Deleting an absent key is not an error.
	DeleteOne(ctx context.Context, key string) error

	// DeleteMany issues one multi-object delete for up to 1000 keys. Per-key
	// failures are reported in the result; the call errors only when the
	// store is unavailable.
	DeleteMany(ctx context.Context, keys []string) (*BulkDeleteResult, error)

	// Presign mints a time-bounded read URL for a key.
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)

	// PublicURL returns the static, non-expiring URL for a public-read key.
	PublicURL(key string) string
}

// UserRepository defines the interface for the durable owner/photo record.
// Lookups return ErrUserNotFound rather than signalling absence through
// panics or sentinel values.
type UserRepository interface {
	Get(ctx context.Context, cognitoID string) (*User, error)
	Save(ctx context.Context, user *User) error
	Delete(ctx context.Context, cognitoID string) error
	FindByNickname(ctx context.Context, nickname string) (*User, error)
}

// DeadlineSource reports the wall-clock budget left for the current
// invocation. The value is monotonically decreasing across calls.
type DeadlineSource interface {
	Remaining(ctx context.Context) time.Duration
}

// ContextDeadlineSource derives the remaining budget from the context
// deadline. A context without a deadline reports an effectively unbounded
// budget.
type ContextDeadlineSource struct{}

func (ContextDeadlineSource) Remaining(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return time.Duration(math.MaxInt64)
	}
	return time.Until(deadline)
}
