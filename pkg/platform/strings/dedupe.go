// Package strings normalizes free-text values submitted by clients.
package strings

import (
	"strings"
)

// CompactFold collapses runs of whitespace inside each value, drops blanks and
// removes case-insensitive repeats. The first spelling wins:
//
//	CompactFold([]string{" Go ", "react  native", "go", ""})
//	// []string{"Go", "react native"}
func CompactFold(values []string) []string {
	if values == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = Collapse(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Collapse trims s and replaces inner whitespace runs with one space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CollapsePtr applies Collapse to an optional value; nil stays nil.
func CollapsePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Collapse(*s)
	return &v
}
