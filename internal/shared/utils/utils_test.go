package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasher(t *testing.T) {
	h := DefaultHasher()

	assert.Equal(t, h.HashString("abc"), h.Hash([]byte("abc")))
	assert.Len(t, h.HashString("abc"), 64)
	assert.Equal(t, h.HashFields("a", "b"), h.HashFields("b", "a"))

	etag := h.ETag("<p>hi</p>")
	assert.Len(t, etag, 18)
	assert.True(t, strings.HasPrefix(etag, `"`))
	assert.NotEqual(t, etag, h.ETag("<p>bye</p>"))
	assert.Equal(t, "ab", ShortHash("ab", 8))
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		required bool
		wantErr  bool
	}{
		{"optional empty", "", false, false},
		{"required empty", "", true, true},
		{"ok", "Counter", true, false},
		{"too long", strings.Repeat("x", 11), false, true},
		{"null byte", "a\x00b", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateString(tt.value, "field", 1, 10, tt.required)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChallengeFieldValidators(t *testing.T) {
	assert.NoError(t, ValidateDifficulty(""))
	assert.NoError(t, ValidateDifficulty("medium"))
	assert.Error(t, ValidateDifficulty("impossible"))

	assert.NoError(t, ValidateTags([]string{"dom", "events"}))
	assert.Error(t, ValidateTags([]string{""}))
	assert.Error(t, ValidateTags(make([]string, MaxTagCount+1)))

	assert.Error(t, ValidateTitle(strings.Repeat("t", MaxTitleLength+1)))
	assert.NoError(t, ValidateDescription("<p>ok</p>"))
	assert.Error(t, ValidateLogMessage(""))
}
