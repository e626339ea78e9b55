// Package utils holds small parsing helpers for query parameters.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

// Page converts 1-based page parameters into an offset and limit. Missing or
// invalid values fall back to page 1 and defSize; the size is capped at
// maxSize.
func Page(pageParam, sizeParam string, defSize, maxSize int) (page, size, offset int) {
	page = max(AtoiDefault(pageParam, 1), 1)
	size = Clamp(AtoiDefault(sizeParam, defSize), 1, maxSize)
	return page, size, (page - 1) * size
}

// BoolDefault parses "true"/"1"/"yes" style flags; anything unparsable
// yields def.
func BoolDefault(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	}
	return def
}
