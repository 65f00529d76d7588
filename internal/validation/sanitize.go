package validation

import (
	"regexp"
	"strings"
)

const (
	maxUserInputLength   = 1000
	maxDisplayNameLength = 50
	maxEmailLength       = 100
)

var (
	angleBrackets      = regexp.MustCompile(`[<>]`)
	scriptProtocol     = regexp.MustCompile(`(?i)javascript:`)
	displayNameInvalid = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
)

// SanitizeUserInput trims free text, strips angle brackets and script
// protocol prefixes, and caps the length
func SanitizeUserInput(input string) string {
	s := strings.TrimSpace(input)
	s = angleBrackets.ReplaceAllString(s, "")
	// Removing one occurrence can join the pieces of another
	for scriptProtocol.MatchString(s) {
		s = scriptProtocol.ReplaceAllString(s, "")
	}
	return truncate(s, maxUserInputLength)
}

// SanitizeDisplayName keeps letters, digits, whitespace, hyphens and underscores
func SanitizeDisplayName(name string) string {
	s := strings.TrimSpace(name)
	s = displayNameInvalid.ReplaceAllString(s, "")
	return truncate(s, maxDisplayNameLength)
}

// SanitizeEmail trims and lower-cases an email address
func SanitizeEmail(email string) string {
	s := strings.ToLower(strings.TrimSpace(email))
	return truncate(s, maxEmailLength)
}

// truncate caps s at n runes
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
