package errors

import (
	"strings"
	"unicode"
)

// ValidateTaxID validates a taxon identifier read from an input file or
// a request path. The rules are intentionally conservative: identifiers
// end up in cache keys and file names, so anything that could smuggle a
// path component is rejected.
func ValidateTaxID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidTaxID, "taxid cannot be empty")
	}

	if len(id) > 64 {
		return New(ErrCodeInvalidTaxID, "taxid too long (max 64 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidTaxID, "taxid contains whitespace or control characters")
		}
	}

	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return New(ErrCodeInvalidTaxID, "taxid contains path characters: %q", id)
	}

	return nil
}

// ValidatePath validates an output path supplied on the command line.
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

// ValidateURL validates a remote input URL. Only http and https are
// accepted.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}

	return nil
}

// IsRemote reports whether an input argument names a URL rather than a
// local file.
func IsRemote(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}
