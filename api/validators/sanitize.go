package validators

import "strings"

// SanitizeString trims input and caps it at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	return Truncate(strings.TrimSpace(input), maxLen)
}

// Truncate caps input at maxLen runes and keeps surrounding whitespace.
func Truncate(input string, maxLen int) string {
	if maxLen <= 0 {
		return input
	}
	runes := []rune(input)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return input
}
