package service

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// sanitizeID trims surrounding whitespace only; ids are otherwise opaque.
func sanitizeID(value string) string {
	return strings.TrimSpace(value)
}
