package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// String length limits
const (
	MaxTitleLength       = 128
	MaxDescriptionLength = 16 * 1024
	MaxTagLength         = 32
	MaxTagCount          = 20
	MaxLogMessageLength  = 4 * 1024
)

// Difficulties lists the accepted challenge difficulty labels
var Difficulties = []string{"easy", "medium", "hard"}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if value == "" {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateTitle validates a challenge title
func ValidateTitle(title string) error {
	return ValidateString(title, "title", 1, MaxTitleLength, false)
}

// ValidateDescription validates a description field
func ValidateDescription(description string) error {
	return ValidateString(description, "description", 0, MaxDescriptionLength, false)
}

// ValidateDifficulty accepts an empty label or one of Difficulties
func ValidateDifficulty(difficulty string) error {
	if difficulty == "" {
		return nil
	}
	for _, d := range Difficulties {
		if difficulty == d {
			return nil
		}
	}
	return fmt.Errorf("difficulty must be one of %s", strings.Join(Difficulties, ", "))
}

// ValidateTags validates an array of tags
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagCount {
		return fmt.Errorf("too many tags (maximum %d)", MaxTagCount)
	}
	for i, tag := range tags {
		if err := ValidateString(tag, fmt.Sprintf("tag[%d]", i), 1, MaxTagLength, true); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLogMessage validates a log message reported by a browser
func ValidateLogMessage(message string) error {
	return ValidateString(message, "message", 1, MaxLogMessageLength, true)
}
