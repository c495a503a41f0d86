package simplephotos

import (
	"context"
	"fmt"

	"github.com/tendant/simple-photos/pkg/simplephotos/objectkey"
)

// issueURL mints an access URL for one stored object. Public versions get
// the static bucket URL; protected versions get a presigned URL bounded by
// the configured TTL. The key is probed first so a stale record surfaces as
// a SigningError instead of a URL that 404s on first use.
func (s *service) issueURL(ctx context.Context, key string, visibility Visibility) (string, error) {
	exists, err := s.store.HeadExists(ctx, key)
	if err != nil {
		return "", &SigningError{Key: key, Err: err}
	}
	if !exists {
		return "", &SigningError{Key: key, Err: ErrKeyNotFound}
	}

	if visibility == VisibilityPublic {
		return s.store.PublicURL(key), nil
	}

	url, err := s.store.Presign(ctx, key, s.presignTTL)
	if err != nil {
		return "", &SigningError{Key: key, Err: err}
	}
	return url, nil
}

// recordedKey returns the stored object key for one version of a user
// record. The thumbnail is recorded as a full public URL, so its key is
// recovered from the URL.
func recordedKey(user *User, version PhotoVersion) (string, bool) {
	switch version {
	case VersionThumbnail:
		if user.ThumbnailURL == "" {
			return "", false
		}
		return objectkey.FromURL(user.ThumbnailURL)
	case VersionStandard:
		return user.StandardKey, user.StandardKey != ""
	case VersionHighRes:
		return user.HighResKey, user.HighResKey != ""
	}
	return "", false
}

// issueRecordedURLs re-issues access URLs for every version present on the
// record. Versions that fail to sign are reported in failed; the map of
// successes may be partial.
func (s *service) issueRecordedURLs(ctx context.Context, user *User) (urls map[string]string, failed map[string]string) {
	urls = make(map[string]string)
	failed = make(map[string]string)

	for _, spec := range s.versionSpecs {
		key, ok := recordedKey(user, spec.Name)
		if !ok {
			continue
		}

		url, err := s.issueURL(ctx, key, spec.Visibility)
		if err != nil {
			failed[string(spec.Name)] = err.Error()
			continue
		}
		urls[string(spec.Name)] = url
	}

	return urls, failed
}

// applyUploadedVersions writes the freshly uploaded keys and URLs onto the
// record. The thumbnail is recorded as its static public URL; protected
// versions are recorded as bare keys.
func applyUploadedVersions(user *User, store ObjectStore, keys map[PhotoVersion]string) error {
	for version, key := range keys {
		switch version {
		case VersionThumbnail:
			url := store.PublicURL(key)
			user.ThumbnailURL = url
			user.LegacyImageURL = url
		case VersionStandard:
			user.StandardKey = key
		case VersionHighRes:
			user.HighResKey = key
		default:
			return fmt.Errorf("unknown photo version %q", version)
		}
	}
	return nil
}
