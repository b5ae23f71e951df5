package utils

import (
	"strings"
	"unicode/utf8"
)

// TruncateString cuts s to at most maxLen runes
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}

// SanitizeString trims and collapses runs of whitespace
func SanitizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SafeUsername sanitized username without the leading @
func SafeUsername(username string) string {
	username = strings.TrimPrefix(SanitizeString(username), "@")
	return TruncateString(username, 255)
}

// SafeFullName sanitized display name
func SafeFullName(fullName string) string {
	return TruncateString(SanitizeString(fullName), 255)
}

// SafeNote free text note, limited to 500 characters
func SafeNote(note string) string {
	return TruncateString(strings.TrimSpace(note), 500)
}

// SafeText longer free text such as responses and affirmations
func SafeText(text string) string {
	return TruncateString(strings.TrimSpace(text), 2000)
}
