// Package nickname validates and normalizes user-chosen display names.
package nickname

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalid is wrapped by every Validate failure so callers can match the
// whole class with errors.Is.
var ErrInvalid = errors.New("invalid nickname")

const (
	minLength = 3
	maxLength = 20
)

// Allowed characters after normalization. Names must start and end with an
// alphanumeric so bare punctuation cannot be claimed.
var pattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*[a-z0-9]$`)

// reserved names can never be claimed regardless of availability.
var reserved = map[string]struct{}{
	"admin":     {},
	"root":      {},
	"system":    {},
	"support":   {},
	"moderator": {},
	"anonymous": {},
	"deleted":   {},
	"null":      {},
	"undefined": {},
}

// Normalize lowercases and trims a nickname. Uniqueness checks always run
// on the normalized form.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Validate checks the normalized form of raw against the naming rules and
// returns a reason suitable for showing to the user when it fails.
func Validate(raw string) error {
	name := Normalize(raw)

	if len(name) < minLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalid, minLength)
	}
	if len(name) > maxLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrInvalid, maxLength)
	}
	if !pattern.MatchString(name) {
		return fmt.Errorf("%w: only lowercase letters, digits, underscores and hyphens are allowed, starting and ending with a letter or digit", ErrInvalid)
	}
	if _, ok := reserved[name]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalid, name)
	}
	return nil
}
