package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateRef validates a reference before it is handed to a backend.
// It rejects input that git would read as an option or that cannot be a
// revision at all.
//
// The validation rules are intentionally conservative:
//   - No empty refs
//   - No leading dash
//   - No control characters or whitespace
//   - No ".." range syntax
//   - Maximum length of 256 characters
//
// Whether the ref actually exists is for the backend to decide.
func ValidateRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidRef, "reference cannot be empty")
	}

	if len(ref) > 256 {
		return New(ErrCodeInvalidRef, "reference too long (max 256 characters)")
	}

	if strings.HasPrefix(ref, "-") {
		return New(ErrCodeInvalidRef, "reference cannot start with '-': %q", ref)
	}

	for _, r := range ref {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidRef, "reference contains invalid characters: %q", ref)
		}
	}

	// A range names a set of commits, not one
	if strings.Contains(ref, "..") {
		return New(ErrCodeInvalidRef, "reference cannot be a range: %q", ref)
	}

	return nil
}

// commitIDRegex matches full or abbreviated hexadecimal object names.
var commitIDRegex = regexp.MustCompile(`^[0-9a-f]{4,64}$`)

// ValidateCommitID validates a commit id given to a query.
func ValidateCommitID(id string) error {
	if !commitIDRegex.MatchString(id) {
		return New(ErrCodeInvalidRef, "invalid commit id: %q", id)
	}
	return nil
}

// ValidatePath validates a file path supplied by a user.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
