package simplephotos

import (
	"time"
)

// PhotoVersion is the domain type for the fixed derived renditions of an
// uploaded photo.
type PhotoVersion string

// Photo version constants (typed).
const (
	VersionThumbnail PhotoVersion = "thumbnail"
	VersionStandard  PhotoVersion = "standard"
	VersionHighRes   PhotoVersion = "high_res"
)

// Visibility is the access class of a derived version.
type Visibility string

// Visibility constants (typed).
const (
	// VisibilityPublic versions are served from a static bucket URL with no
	// expiry. The object must have been uploaded with public-read semantics.
	VisibilityPublic Visibility = "public"

	// VisibilityProtected versions are served through time-bounded presigned
	// URLs.
	VisibilityProtected Visibility = "protected"
)

// VersionSpec describes one derived rendition: its square pixel dimension,
// JPEG encoding quality and access class.
type VersionSpec struct {
	Name       PhotoVersion `json:"name"`
	Size       int          `json:"size"`
	Quality    int          `json:"quality"`
	Visibility Visibility   `json:"visibility"`
}

// DefaultVersionSpecs returns the built-in three-version profile:
// a public 150px thumbnail and protected 320px/800px renditions.
func DefaultVersionSpecs() []VersionSpec {
	return []VersionSpec{
		{Name: VersionThumbnail, Size: 150, Quality: 80, Visibility: VisibilityPublic},
		{Name: VersionStandard, Size: 320, Quality: 85, Visibility: VisibilityProtected},
		{Name: VersionHighRes, Size: 800, Quality: 90, Visibility: VisibilityProtected},
	}
}

// User is the durable record mapping an owner to its current photo version
// keys and URLs. Primary identity lives in the identity provider; this record
// stores the searchable nickname and the photo fields.
//
// A record with none of the photo fields populated has "no photos"; the
// lifecycle manager treats that as a fast path and issues no store calls.
type User struct {
	// CognitoID is the verified principal identifier (primary key).
	CognitoID string `json:"cognito_id"`

	// Nickname preserves the original casing; NicknameNormalized is the
	// lowercased form used for uniqueness lookups.
	Nickname           string `json:"nickname"`
	NicknameNormalized string `json:"-"`

	// ThumbnailURL is the public static URL of the thumbnail version.
	// StandardKey and HighResKey are object keys; their URLs are minted on
	// demand because presigned URLs expire.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	StandardKey  string `json:"standard_s3_key,omitempty"`
	HighResKey   string `json:"high_res_s3_key,omitempty"`

	// LegacyImageURL mirrors ThumbnailURL for older clients.
	LegacyImageURL string `json:"image_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPhotos reports whether any photo field is populated.
func (u *User) HasPhotos() bool {
	return u.ThumbnailURL != "" || u.StandardKey != "" || u.HighResKey != "" || u.LegacyImageURL != ""
}

// ClearPhotos empties every photo field.
func (u *User) ClearPhotos() {
	u.ThumbnailURL = ""
	u.StandardKey = ""
	u.HighResKey = ""
	u.LegacyImageURL = ""
}

// CleanupStrategy identifies how prior objects of an owner were cleaned up.
type CleanupStrategy string

// Cleanup strategy constants (typed).
const (
	// CleanupSkip means the record had no photo fields, so no store calls
	// were issued.
	CleanupSkip CleanupStrategy = "skip"

	// CleanupTargeted means only the keys known from the record were
	// deleted, followed by a bounded orphan scan.
	CleanupTargeted CleanupStrategy = "targeted"

	// CleanupFullScan means the owner's whole namespace was listed and
	// deleted.
	CleanupFullScan CleanupStrategy = "full_scan"
)

// KeyError is a per-key deletion failure. Per-key failures never abort the
// surrounding operation; they are collected and reported.
type KeyError struct {
	Key     string `json:"key"`
	Code    string `json:"error_code,omitempty"`
	Message string `json:"error"`
}

// CleanupReport describes the outcome of cleaning up an owner's prior
// objects.
type CleanupReport struct {
	Strategy     CleanupStrategy `json:"strategy"`
	FilesScanned int             `json:"files_scanned"`
	DeletedKeys  []string        `json:"deleted_keys,omitempty"`
	Errors       []KeyError      `json:"deletion_errors,omitempty"`
}

// DeletionOutcome is the per-owner result of a batch deletion. Every
// requested owner (post-dedup) appears in exactly one outcome.
type DeletionOutcome struct {
	UserID        string        `json:"user_id"`
	Success       bool          `json:"success"`
	ErrorCode     string        `json:"error_code,omitempty"`
	Error         string        `json:"error,omitempty"`
	PhotosDeleted int           `json:"photos_deleted"`
	CleanupError  string        `json:"cleanup_error,omitempty"`
	Elapsed       time.Duration `json:"-"`
}

// BatchSummary aggregates a completed batch deletion.
type BatchSummary struct {
	RequestedCount     int     `json:"requested_count"`
	SuccessfulCount    int     `json:"successful_count"`
	FailedCount        int     `json:"failed_count"`
	TotalPhotosDeleted int     `json:"total_photos_deleted"`
	ProcessingSeconds  float64 `json:"processing_time_seconds"`
}
