// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// Truncate returns s truncated to maxLen bytes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateRunes returns the first n runes of s. Unlike Truncate it never
// splits a multi-byte character and appends nothing.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// CollapseWhitespace replaces runs of whitespace with a single space and
// trims leading and trailing space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
