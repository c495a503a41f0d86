package simplephotos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/simple-photos/pkg/simplephotos/imaging"
	"github.com/tendant/simple-photos/pkg/simplephotos/nickname"
	"github.com/tendant/simple-photos/pkg/simplephotos/objectkey"
)

// Photo lifecycle operations

// UploadPhoto replaces a user's photo set with renditions derived from the
// request image. Derivation and record resolution run before any object is
// written, so a rejected upload leaves the store untouched. For a user with
// no record yet, a valid and available nickname must accompany the upload;
// the record is created as part of the same call.
func (s *service) UploadPhoto(ctx context.Context, req UploadPhotoRequest) (*UploadPhotoResult, error) {
	if err := authorizeOwner(req.CallerID, req.UserID); err != nil {
		return nil, err
	}
	if len(req.Image) == 0 {
		return nil, ErrNoImageData
	}
	if len(req.Image) > s.maxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrImageTooLarge, len(req.Image), s.maxImageBytes)
	}

	renditions, err := s.derive(req.Image)
	if err != nil {
		return nil, &ImageProcessingError{Err: err}
	}

	now := time.Now().UTC()

	user, err := s.repo.Get(ctx, req.UserID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user, err = s.newUserRecord(ctx, req, now)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	report := s.cleanupExisting(ctx, user)

	// One (timestamp, nonce) pair per upload event so the versions of this
	// upload share a recognizable suffix.
	nonce := objectkey.NewNonce()
	keys := make(map[PhotoVersion]string, len(s.versionSpecs))
	for _, spec := range s.versionSpecs {
		key := objectkey.Make(req.UserID, string(spec.Name), now, nonce)
		data := renditions[string(spec.Name)]

		params := PutParams{
			Key:          key,
			ContentType:  "image/jpeg",
			CacheControl: "max-age=31536000",
			Metadata: map[string]string{
				"owner":       req.UserID,
				"version":     string(spec.Name),
				"uploaded-at": now.Format(time.RFC3339),
			},
		}
		if err := s.store.Put(ctx, params, data); err != nil {
			return nil, &StorageError{Key: key, Op: "put", Err: err}
		}
		keys[spec.Name] = key
	}

	user.ClearPhotos()
	if err := applyUploadedVersions(user, s.store, keys); err != nil {
		return nil, err
	}
	user.UpdatedAt = now

	// The record is saved even when cleanup reported per-key errors; a new
	// upload must never be lost to a stale object that would not delete.
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	urls := make(map[string]string, len(keys))
	for _, spec := range s.versionSpecs {
		url, err := s.issueURL(ctx, keys[spec.Name], spec.Visibility)
		if err != nil {
			return nil, err
		}
		urls[string(spec.Name)] = url
	}

	slog.Info("photo uploaded",
		"user_id", req.UserID,
		"versions", len(keys),
		"cleanup_strategy", report.Strategy,
		"cleanup_errors", len(report.Errors))

	return &UploadPhotoResult{
		UserID:        req.UserID,
		Images:        urls,
		SizeReduction: sizeReduction(len(req.Image), renditions),
		Cleanup:       report,
		CleanupErrors: report.Errors,
	}, nil
}

// DeletePhoto removes every stored object of a user and clears the photo
// fields from the record. The call is idempotent: a user with no photos
// succeeds with a zero count and no store calls.
func (s *service) DeletePhoto(ctx context.Context, req DeletePhotoRequest) (*DeletePhotoResult, error) {
	if err := authorizeOwner(req.CallerID, req.UserID); err != nil {
		return nil, err
	}

	user, err := s.repo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if !user.HasPhotos() {
		return &DeletePhotoResult{
			UserID:  req.UserID,
			Cleanup: &CleanupReport{Strategy: CleanupSkip},
		}, nil
	}

	report := s.deleteAllForOwner(ctx, req.UserID)

	user.ClearPhotos()
	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return &DeletePhotoResult{
		UserID:        req.UserID,
		DeletedCount:  len(report.DeletedKeys),
		Cleanup:       report,
		CleanupErrors: report.Errors,
	}, nil
}

// RefreshPhotoURLs re-issues access URLs for the current photo set. Versions
// whose objects are missing are reported per version; the remaining versions
// still get fresh URLs.
func (s *service) RefreshPhotoURLs(ctx context.Context, req RefreshPhotoURLsRequest) (*RefreshPhotoURLsResult, error) {
	if err := authorizeOwner(req.CallerID, req.UserID); err != nil {
		return nil, err
	}

	user, err := s.repo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !user.HasPhotos() {
		return nil, ErrNoPhotos
	}

	urls, failed := s.issueRecordedURLs(ctx, user)
	if len(urls) == 0 {
		// The record claims photos but none of the objects could be signed.
		return nil, ErrNoPhotos
	}

	return &RefreshPhotoURLsResult{
		UserID: req.UserID,
		Images: urls,
		Failed: failed,
	}, nil
}

// User operations

// UserDetails returns the public view of a user record. Versions that fail
// to sign are omitted from Images rather than failing the lookup.
func (s *service) UserDetails(ctx context.Context, req UserDetailsRequest) (*UserDetailsResult, error) {
	user, err := s.repo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	urls, failed := s.issueRecordedURLs(ctx, user)
	if len(failed) > 0 {
		slog.Warn("some photo urls could not be issued", "user_id", req.UserID, "failed", len(failed))
	}

	return &UserDetailsResult{
		UserID:    user.CognitoID,
		Nickname:  user.Nickname,
		HasPhotos: user.HasPhotos(),
		Images:    urls,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}

// DeleteUser removes the user's record and every stored object under the
// namespace. Confirm must be set. Object deletion failures never block the
// record removal; stuck keys are reported on the result for later cleanup.
func (s *service) DeleteUser(ctx context.Context, req DeleteUserRequest) (*DeleteUserResult, error) {
	if err := authorizeOwner(req.CallerID, req.UserID); err != nil {
		return nil, err
	}
	if !req.Confirm {
		return nil, ErrConfirmationRequired
	}

	if _, err := s.repo.Get(ctx, req.UserID); err != nil {
		return nil, err
	}

	report := s.deleteAllForOwner(ctx, req.UserID)
	if len(report.Errors) > 0 {
		slog.Warn("photo cleanup incomplete, deleting record anyway",
			"user_id", req.UserID, "errors", len(report.Errors))
	}

	if err := s.repo.Delete(ctx, req.UserID); err != nil {
		return nil, err
	}

	return &DeleteUserResult{
		UserID:        req.UserID,
		PhotosDeleted: len(report.DeletedKeys),
		CleanupErrors: report.Errors,
	}, nil
}

// CheckNickname reports whether a nickname is valid and unclaimed.
func (s *service) CheckNickname(ctx context.Context, raw string) (*NicknameCheckResult, error) {
	normalized := nickname.Normalize(raw)
	result := &NicknameCheckResult{Nickname: normalized}

	if err := nickname.Validate(raw); err != nil {
		result.Reason = err.Error()
		return result, nil
	}
	result.Valid = true

	_, err := s.repo.FindByNickname(ctx, normalized)
	switch {
	case errors.Is(err, ErrUserNotFound):
		result.Available = true
	case err != nil:
		return nil, err
	default:
		result.Reason = "nickname already taken"
	}

	return result, nil
}

// helpers

func authorizeOwner(callerID, userID string) error {
	if callerID != userID {
		return fmt.Errorf("%w: caller does not own this resource", ErrNotAuthorized)
	}
	return nil
}

// newUserRecord creates the record for a first-time upload. The nickname is
// validated and claimed here, before any object store work.
func (s *service) newUserRecord(ctx context.Context, req UploadPhotoRequest, now time.Time) (*User, error) {
	if req.Nickname == "" {
		return nil, ErrNicknameRequired
	}
	if err := nickname.Validate(req.Nickname); err != nil {
		return nil, err
	}

	normalized := nickname.Normalize(req.Nickname)
	if _, err := s.repo.FindByNickname(ctx, normalized); err == nil {
		return nil, ErrNicknameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	return &User{
		CognitoID:          req.UserID,
		Nickname:           req.Nickname,
		NicknameNormalized: normalized,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (s *service) derive(raw []byte) (map[string][]byte, error) {
	specs := make([]imaging.Spec, 0, len(s.versionSpecs))
	for _, v := range s.versionSpecs {
		specs = append(specs, imaging.Spec{Name: string(v.Name), Size: v.Size, Quality: v.Quality})
	}
	return imaging.Derive(raw, specs)
}

// sizeReduction formats the saving of the derived set against the original,
// e.g. "87.5%". A derived set larger than the original yields a negative
// percentage.
func sizeReduction(originalBytes int, renditions map[string][]byte) string {
	if originalBytes == 0 {
		return "0.0%"
	}
	total := 0
	for _, data := range renditions {
		total += len(data)
	}
	pct := (1 - float64(total)/float64(originalBytes)) * 100
	return fmt.Sprintf("%.1f%%", pct)
}
