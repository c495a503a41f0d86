package simplephotos

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrUserNotFound indicates the owner record does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrNicknameTaken indicates the requested nickname is already in use
	ErrNicknameTaken = errors.New("nickname already taken")

	// ErrNicknameRequired indicates a first-time upload arrived without a nickname
	ErrNicknameRequired = errors.New("nickname required for first-time upload")

	// ErrNoImageData indicates an upload with an empty body
	ErrNoImageData = errors.New("no image data provided")

	// ErrImageTooLarge indicates the raw image exceeds the configured size limit
	ErrImageTooLarge = errors.New("image too large")

	// ErrNoPhotos indicates the owner has no photo versions on record
	ErrNoPhotos = errors.New("no photos found")

	// ErrNotAuthorized indicates the caller identity does not match the owner
	ErrNotAuthorized = errors.New("not authorized")

	// ErrKeyNotFound indicates an object key is absent from the store
	ErrKeyNotFound = errors.New("object key not found")

	// ErrConfirmationRequired indicates a destructive request without confirm=true
	ErrConfirmationRequired = errors.New("deletion requires confirmation")

	// ErrBatchEmpty indicates a batch request with no owner ids
	ErrBatchEmpty = errors.New("user_ids cannot be empty")

	// ErrBatchTooLarge indicates a batch request above the size limit
	ErrBatchTooLarge = errors.New("batch size exceeds maximum limit")
)

// Stable machine-readable codes attached to per-item batch outcomes.
const (
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeUnauthorizedDeletion = "UNAUTHORIZED_DELETION"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeTimeoutRisk          = "TIMEOUT_RISK"
	CodeTaskExecution        = "TASK_EXECUTION_ERROR"
	CodeDeletionError        = "DELETION_ERROR"
)

// ImageProcessingError wraps any decode/crop/resize/encode failure. It stems
// from caller-supplied bytes and is treated as a client error.
type ImageProcessingError struct {
	Err error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("failed to process image: %v", e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to object store operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SigningError represents a failure to mint a presigned URL for a key,
// including the key being absent from the store. Callers surface it as a
// partial, not total, failure.
type SigningError struct {
	Key string
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign url for key %q: %v", e.Key, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
