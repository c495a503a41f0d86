package simplephotos

import (
	"context"
	"fmt"
	"time"
)

// Service defines the main interface for the simple-photos library
type Service interface {
	// Photo lifecycle operations
	UploadPhoto(ctx context.Context, req UploadPhotoRequest) (*UploadPhotoResult, error)
	DeletePhoto(ctx context.Context, req DeletePhotoRequest) (*DeletePhotoResult, error)
	RefreshPhotoURLs(ctx context.Context, req RefreshPhotoURLsRequest) (*RefreshPhotoURLsResult, error)

	// User operations
	UserDetails(ctx context.Context, req UserDetailsRequest) (*UserDetailsResult, error)
	DeleteUser(ctx context.Context, req DeleteUserRequest) (*DeleteUserResult, error)
	CheckNickname(ctx context.Context, nickname string) (*NicknameCheckResult, error)

	// Batch operations
	BatchDeleteUsers(ctx context.Context, req BatchDeleteRequest) (*BatchDeleteResult, error)
}

// UploadPhotoRequest carries a raw image to replace the photo set of a user.
// Nickname is consulted only when no record exists for the user yet.
type UploadPhotoRequest struct {
	UserID   string
	CallerID string
	Image    []byte
	Nickname string
}

// UploadPhotoResult reports the freshly issued access URLs per version name,
// along with what the pre-upload cleanup did.
type UploadPhotoResult struct {
	UserID        string
	Images        map[string]string
	SizeReduction string
	Cleanup       *CleanupReport
	CleanupErrors []KeyError
}

// DeletePhotoRequest removes every stored rendition of a user's photo.
type DeletePhotoRequest struct {
	UserID   string
	CallerID string
}

// DeletePhotoResult reports how many objects were removed. Deletion is
// idempotent: a user with no photos yields a zero-count success.
type DeletePhotoResult struct {
	UserID        string
	DeletedCount  int
	Cleanup       *CleanupReport
	CleanupErrors []KeyError
}

// RefreshPhotoURLsRequest re-issues access URLs for a user's current photo
// set without touching the stored objects.
type RefreshPhotoURLsRequest struct {
	UserID   string
	CallerID string
}

// RefreshPhotoURLsResult carries the re-issued URLs. Versions whose objects
// are missing from the store are reported in Failed rather than failing the
// whole call.
type RefreshPhotoURLsResult struct {
	UserID string
	Images map[string]string
	Failed map[string]string
}

// UserDetailsRequest looks up a user's record and photo URLs.
type UserDetailsRequest struct {
	UserID   string
	CallerID string
}

// UserDetailsResult is the external view of a user record.
type UserDetailsResult struct {
	UserID    string
	Nickname  string
	HasPhotos bool
	Images    map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeleteUserRequest removes a user's record and photos. Confirm must be set
// or the call is rejected.
type DeleteUserRequest struct {
	UserID   string
	CallerID string
	Confirm  bool
}

// DeleteUserResult reports what the record removal cleaned up. CleanupErrors
// lists objects that could not be removed; the record is deleted regardless.
type DeleteUserResult struct {
	UserID        string
	PhotosDeleted int
	CleanupErrors []KeyError
}

// NicknameCheckResult reports whether a nickname is valid and unclaimed.
type NicknameCheckResult struct {
	Nickname  string
	Valid     bool
	Available bool
	Reason    string
}

// BatchDeleteRequest removes up to maxBatchSize users in one call. Confirm
// must be set. TestMode skips the per-user authorization check. Reason is
// free text recorded for auditing.
type BatchDeleteRequest struct {
	UserIDs  []string
	CallerID string
	Confirm  bool
	TestMode bool
	Reason   string
}

// BatchDeleteResult pairs per-user outcomes with the aggregate summary.
type BatchDeleteResult struct {
	Outcomes []DeletionOutcome
	Summary  BatchSummary
	Reason   string
}

// service implements the Service interface
type service struct {
	repo     UserRepository
	store    ObjectStore
	deadline DeadlineSource

	versionSpecs  []VersionSpec
	maxImageBytes int
	presignTTL    time.Duration
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the user repository for the service
func WithRepository(repo UserRepository) Option {
	return func(s *service) {
		s.repo = repo
	}
}

// WithObjectStore sets the object storage backend
func WithObjectStore(store ObjectStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithDeadlineSource overrides where the batch executor reads its remaining
// time budget from
func WithDeadlineSource(ds DeadlineSource) Option {
	return func(s *service) {
		s.deadline = ds
	}
}

// WithVersionSpecs overrides the derived photo versions
func WithVersionSpecs(specs []VersionSpec) Option {
	return func(s *service) {
		s.versionSpecs = specs
	}
}

// WithMaxImageBytes caps the accepted decoded upload size
func WithMaxImageBytes(n int) Option {
	return func(s *service) {
		s.maxImageBytes = n
	}
}

// WithPresignTTL sets the lifetime of presigned access URLs
func WithPresignTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.presignTTL = ttl
	}
}

const (
	// DefaultMaxImageBytes caps decoded uploads at 5 MiB.
	DefaultMaxImageBytes = 5 * 1024 * 1024

	// DefaultPresignTTL is the lifetime of protected access URLs, 7 days.
	DefaultPresignTTL = 7 * 24 * time.Hour
)

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		deadline:      ContextDeadlineSource{},
		versionSpecs:  DefaultVersionSpecs(),
		maxImageBytes: DefaultMaxImageBytes,
		presignTTL:    DefaultPresignTTL,
	}

	for _, option := range options {
		option(s)
	}

	if s.repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("object store is required")
	}

	return s, nil
}
