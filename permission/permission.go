// Package permission resolves effective permission slugs from role
// assignments and answers membership checks against them.
package permission

import (
	"sort"
	"strings"
)

// Matches reports whether a granted slug satisfies a required one. A grant
// ending in '*' matches any slug with that prefix; otherwise the comparison is
// an exact case-insensitive match.
func Matches(granted, required string) bool {
	granted = strings.ToLower(strings.TrimSpace(granted))
	required = strings.ToLower(strings.TrimSpace(required))
	if granted == "" || required == "" {
		return false
	}
	if strings.HasSuffix(granted, "*") {
		return strings.HasPrefix(required, strings.TrimSuffix(granted, "*"))
	}
	return granted == required
}

// HasSlug reports whether any granted slug satisfies the required one.
func HasSlug(granted []string, required string) bool {
	for _, g := range granted {
		if Matches(g, required) {
			return true
		}
	}
	return false
}

// NormalizeSlugs lowercases, deduplicates and sorts a slug set so cached and
// freshly resolved sets compare equal.
func NormalizeSlugs(slugs []string) []string {
	seen := make(map[string]bool, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
