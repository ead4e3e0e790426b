// Package validation checks user-supplied strings that end up in file system
// paths or inside generated source code.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// restrictedPaths are system locations keymapgen never reads or writes.
var restrictedPaths = []string{
	"/etc/",
	"/proc/",
	"/sys/",
	"/dev/",
	"/boot/",
}

// ValidatePath rejects paths that are empty, contain control or shell
// metacharacters, or point into a system directory.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if r, ok := firstControl(path); ok {
		return fmt.Errorf("path contains control character %U", r)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	cleanPath := filepath.ToSlash(filepath.Clean(path))
	if filepath.IsAbs(path) {
		lower := strings.ToLower(cleanPath) + "/"
		for _, restricted := range restrictedPaths {
			if strings.HasPrefix(lower, restricted) {
				return fmt.Errorf("access to restricted path denied: %s", path)
			}
		}
	}
	return nil
}

// ValidateFileExtension validates file extensions against an allowlist
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension '%s' is not allowed", ext)
}

// ValidateImportPath checks the shape of a Go import path: slash-separated
// non-empty elements made of letters, digits and "-._~+".
func ValidateImportPath(path string) error {
	if path == "" {
		return fmt.Errorf("import path cannot be empty")
	}
	if strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return fmt.Errorf("import path %q has a leading or trailing slash", path)
	}
	for _, elem := range strings.Split(path, "/") {
		if elem == "" || elem == "." || elem == ".." {
			return fmt.Errorf("import path %q has an invalid element %q", path, elem)
		}
		for _, r := range elem {
			if !importPathRune(r) {
				return fmt.Errorf("import path %q contains invalid character %q", path, r)
			}
		}
	}
	return nil
}

func importPathRune(r rune) bool {
	switch {
	case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		return true
	case strings.ContainsRune("-._~+", r):
		return true
	}
	return false
}

// ValidateCommentText rejects text that cannot sit on one line of a generated
// comment: control characters, line breaks, and comment terminators.
func ValidateCommentText(text string) error {
	if r, ok := firstControl(text); ok {
		return fmt.Errorf("text contains control character %U", r)
	}
	if strings.Contains(text, "*/") {
		return fmt.Errorf("text contains a comment terminator */")
	}
	return nil
}

// SanitizeInput removes null bytes and control characters other than tab and
// newline.
func SanitizeInput(input string) string {
	var sanitized strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\t' || r == '\n' {
			sanitized.WriteRune(r)
		}
	}
	return sanitized.String()
}

func firstControl(s string) (rune, bool) {
	for _, r := range s {
		if unicode.IsControl(r) {
			return r, true
		}
	}
	return 0, false
}
