package middleware

import (
	"fmt"
	"strings"
)

// Input validation and sanitization utilities

var severityLevels = map[string]bool{
	"LOW":      true,
	"MEDIUM":   true,
	"HIGH":     true,
	"CRITICAL": true,
	"UNKNOWN":  true,
}

// ValidateSeverity normalizes a severity filter to upper case and checks it
// against the known levels.
func ValidateSeverity(severity string) (string, error) {
	if severity == "" {
		return "", nil
	}
	s := strings.ToUpper(strings.TrimSpace(severity))
	if !severityLevels[s] {
		return "", fmt.Errorf("invalid severity: %s (allowed: LOW, MEDIUM, HIGH, CRITICAL, UNKNOWN)", severity)
	}
	return s, nil
}

// SupportedFiletypes are the text-based extensions the analyzer accepts
// directly. Binary formats need text extraction upstream.
var SupportedFiletypes = []string{
	"txt", "csv", "json", "xml", "html", "md", "log",
	"py", "js", "ts", "yaml", "yml", "ini", "conf", "cfg",
}

// ValidateFiletype checks an extension against the supported list.
func ValidateFiletype(ext string) error {
	e := strings.ToLower(strings.TrimSpace(ext))
	for _, s := range SupportedFiletypes {
		if e == s {
			return nil
		}
	}
	return fmt.Errorf("file type '%s' not directly supported (supported: %s); for PDF/DOCX, extract text first",
		ext, strings.Join(SupportedFiletypes, ", "))
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 50 // default
	}
	if limit > 200 {
		return 200 // max limit
	}
	return limit
}

// ValidateOffset validates pagination offset
func ValidateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
