package services

import (
	"fmt"
	"strconv"
	"strings"
)

// slugKey derives a stable column key from header text: case-folded, with
// parentheses and other non-alphanumeric, non-space characters removed and
// runs of whitespace collapsed. "System (Project Name)" and
// "system project name" therefore slug identically.
func slugKey(label string) string {
	lower := strings.ToLower(label)
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// columnKey slugs a label and falls back to a 1-based positional placeholder
// for empty results
func columnKey(label string, position int) string {
	if key := slugKey(label); key != "" {
		return key
	}
	return fmt.Sprintf("column %d", position+1)
}

// uniqueKey disambiguates a key against those already taken by appending the
// 1-based column position, advancing the counter while the suffixed form is
// itself taken (a header may literally read "a 3"). Deterministic: the same
// labels in the same order always produce the same keys.
func uniqueKey(key string, position int, taken map[string]bool) string {
	if !taken[key] {
		taken[key] = true
		return key
	}
	suffixed := fmt.Sprintf("%s %d", key, position+1)
	for n := position + 2; taken[suffixed]; n++ {
		suffixed = fmt.Sprintf("%s %d", key, n)
	}
	taken[suffixed] = true
	return suffixed
}

// stringifyValue renders a decoded JSON value as a display string. JSON
// numbers arrive as float64; integral ones must not grow a ".0" tail.
func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
