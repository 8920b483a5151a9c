// Package redact provides utilities for redacting sensitive information from
// strings before they are logged. It prevents accidental leakage of
// credentials, connection strings, session tokens, and file paths that might
// be embedded in error messages.
package redact

import (
	"regexp"
)

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
)

// Precompiled redaction patterns.
var (
	// Database connection strings with inline credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database)://[^@\s]+@`)

	// password=..., secret:..., etc.
	credentialRegex = regexp.MustCompile(
		`(?i)(password|passwd|pwd|secret|api[_-]?key|token)([=:\s]['"]?)[^'"&\s]{3,}`,
	)

	// JWT tokens (three base64url segments starting with eyJ).
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Opaque session tokens as issued by the session service:
	// 32 random bytes, base64url encoded without padding (43 chars).
	sessionTokenRegex = regexp.MustCompile(`\b[A-Za-z0-9_-]{43}\b`)

	// Absolute unix file paths with at least two components.
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	// Email addresses.
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// String redacts sensitive information from the given string.
func String(s string) string {
	if s == "" {
		return s
	}

	s = dbConnRegex.ReplaceAllString(s, "$1://"+RedactedCredentialPlaceholder+"@")
	s = credentialRegex.ReplaceAllString(s, "$1$2"+RedactedCredentialPlaceholder)
	s = jwtTokenRegex.ReplaceAllString(s, RedactionPlaceholder)
	s = sessionTokenRegex.ReplaceAllString(s, RedactionPlaceholder)
	s = emailRegex.ReplaceAllString(s, RedactionPlaceholder)
	s = unixPathRegex.ReplaceAllString(s, RedactedPathPlaceholder)

	return s
}

// Error redacts sensitive information from an error's message.
// Returns an empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
