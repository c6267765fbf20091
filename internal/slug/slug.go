// Package slug provides URL-friendly slug generation from arbitrary strings,
// with numeric-suffix disambiguation for entities that need unique slugs.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)

	// stripMarks decomposes accented characters and removes the combining
	// marks, so "Café" slugifies to "cafe" instead of losing the letter.
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Café, World! 2026" → "cafe-world-2026"
func Generate(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// ForTag builds a tag slug from its category's slug and the tag name.
// Tag slugs are not disambiguated further; uniqueness comes from the
// (category, name) constraint.
func ForTag(categorySlug, tagName string) string {
	return categorySlug + "-" + Generate(tagName)
}

// Unique returns base unchanged if taken reports it free, otherwise
// appends -1, -2, ... until taken reports a free candidate. taken receives
// each candidate and returns whether it already exists (and any lookup
// error, which aborts the search).
func Unique(base string, taken func(string) (bool, error)) (string, error) {
	exists, err := taken(base)
	if err != nil {
		return "", fmt.Errorf("slug lookup %q: %w", base, err)
	}
	if !exists {
		return base, nil
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		exists, err := taken(candidate)
		if err != nil {
			return "", fmt.Errorf("slug lookup %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}
