// Package objectkey implements the object key scheme for per-owner photo
// namespaces.
//
// Keys have the form
//
//	users/{owner}/{version}_{YYYYMMDD_HHMMSS}_{nonce}.jpg
//
// Collision avoidance relies on second-level timestamp plus nonce
// granularity, not hashing. The three versions of a single upload event share
// one (timestamp, nonce) pair so they can be bulk-targeted later; only the
// version segment differs.
package objectkey

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	namespace = "users"
	extension = "jpg"

	timestampLayout = "20060102_150405"
)

// NewNonce returns a short random nonce for one upload event.
func NewNonce() string {
	return uuid.New().String()[:8]
}

// Make formats the object key for one derived version of an upload event.
// Calls for the same event must pass identical now/nonce values.
func Make(owner, version string, now time.Time, nonce string) string {
	return fmt.Sprintf("%s/%s/%s_%s_%s.%s",
		namespace, owner, version, now.UTC().Format(timestampLayout), nonce, extension)
}

// OwnerPrefix returns the listing prefix covering every object of an owner.
func OwnerPrefix(owner string) string {
	return fmt.Sprintf("%s/%s/", namespace, owner)
}

// FromURL extracts the object key embedded in a stored bucket URL
// (https://{bucket}.s3.amazonaws.com/{key}). Records written by older
// versions stored full URLs where only a key was needed.
func FromURL(rawURL string) (string, bool) {
	const marker = ".s3.amazonaws.com/"
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return "", false
	}
	key := rawURL[idx+len(marker):]
	if key == "" {
		return "", false
	}
	return key, true
}
