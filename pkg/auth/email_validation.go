package auth

import (
	"regexp"
	"strings"
)

// inviteEmailRegex accepts local@domain with at least one dot in the domain.
var inviteEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const maxEmailLength = 254 // RFC 5321

// ValidEmail reports whether email has the basic shape of an address.
// Callers normalize first.
func ValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	return inviteEmailRegex.MatchString(email)
}

// NormalizeEmail normalizes an email address by lowercasing and trimming.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
