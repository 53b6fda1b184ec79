package util

import (
	"html"
	"strings"
)

// SanitizeInput trims surrounding whitespace and escapes HTML/script-like
// characters before a field is stored
func SanitizeInput(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// SanitizeEmail trims an email address. Escaping is not applied here: the
// address must stay usable as-is, and validation has already rejected
// angle brackets and control characters.
func SanitizeEmail(s string) string {
	return strings.TrimSpace(s)
}
