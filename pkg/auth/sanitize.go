package auth

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeInput escapes HTML and removes control characters. Used for values
// interpolated into HTML email bodies.
func SanitizeInput(input string) string {
	return html.EscapeString(removeControlChars(input))
}

// CleanName trims a display name and strips control characters, including
// newlines. The result is stored as-is and escaped at render time.
func CleanName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}

// NameLength counts runes, not bytes, so non-ASCII names get the same limit.
func NameLength(name string) int {
	return utf8.RuneCountInString(name)
}

// removeControlChars removes control characters except newline and tab.
func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		// Keep newline, carriage return, and tab
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
