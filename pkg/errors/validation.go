package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxMapNameLength bounds stored map names.
const MaxMapNameLength = 128

// mapNameRegex matches names that are safe as file names and store keys.
var mapNameRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} _.,()'-]*$`)

// ValidateMapName validates the name a mind map is stored under.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Must start with a letter or digit
//   - Maximum length of MaxMapNameLength characters
func ValidateMapName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "map name cannot be empty")
	}

	if len(name) > MaxMapNameLength {
		return New(ErrCodeInvalidName, "map name too long (max %d characters)", MaxMapNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "map name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "map name cannot contain path separators or '..'")
	}

	if !mapNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid map name: %q", name)
	}

	return nil
}

// ValidateDepth validates an expansion depth supplied by a user.
// Depth 0 is allowed; it collapses the node.
func ValidateDepth(depth int) error {
	if depth < 0 {
		return New(ErrCodeInvalidDepth, "depth must be >= 0, got %d", depth)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}

	return nil
}
