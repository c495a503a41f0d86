package nickname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alice", Normalize("  Alice "))
	assert.Equal(t, "bob_99", Normalize("Bob_99"))
	assert.Equal(t, "", Normalize("   "))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		nickname string
		wantErr  bool
	}{
		{"simple", "alice", false},
		{"mixed case accepted", "Alice", false},
		{"digits and separators", "user_42-x", false},
		{"minimum length", "abc", false},
		{"maximum length", "abcdefghij0123456789", false},
		{"too short", "ab", true},
		{"too long", "abcdefghij0123456789x", true},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"inner space", "a b c", true},
		{"leading underscore", "_abc", true},
		{"trailing hyphen", "abc-", true},
		{"illegal characters", "al!ce", true},
		{"unicode", "ålice", true},
		{"reserved", "admin", true},
		{"reserved mixed case", "Admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.nickname)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
