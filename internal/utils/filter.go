package utils

import (
	"unicode"
	"unicode/utf8"
)

// IsSeparator checks if a rune separates words
func IsSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '/' || r == ','
}

// IsOnlyNumbers checks if a string consists entirely of numeric digits
func IsOnlyNumbers(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsValidWord checks if s can be looked up as a single word: valid UTF-8,
// at most maxLen runes, no separators or control characters, and not
// purely numeric. maxLen <= 0 disables the length check.
func IsValidWord(s string, maxLen int) bool {
	if s == "" || !utf8.ValidString(s) {
		return false
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		return false
	}
	for _, r := range s {
		if IsSeparator(r) || unicode.IsControl(r) {
			return false
		}
	}
	return !IsOnlyNumbers(s)
}
