package utils

import (
	"strings"
	"unicode"
)

// SanitizeText trims input and strips control characters except newlines and tabs.
func SanitizeText(input string) string {
	trimmed := strings.TrimSpace(input)

	var result strings.Builder
	for _, r := range trimmed {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// SanitizeOptional applies SanitizeText to an optional value, returning nil for blanks.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	clean := SanitizeText(*input)
	if clean == "" {
		return nil
	}
	return &clean
}
