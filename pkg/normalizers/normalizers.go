// Package normalizers provides the name normalization used for catalog keys
package normalizers

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("strip_symbols", StripSymbols)
	Register("cname", CanonicalName)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

var (
	symbolRe     = regexp.MustCompile(`[^0-9A-Za-z\s\p{L}]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CanonicalName derives the catalog key for a display name. Symbols are
// stripped (letters in any script survive), runs of whitespace collapse to a
// single space, and ASCII letters are lowered. Two display names with the
// same canonical name are treated as the same game.
func CanonicalName(s string) string {
	s = symbolRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return Lowercase(s)
}

// Lowercase lowers ASCII letters only; non-ASCII letters keep their case so
// keys stay stable across locale-dependent case rules.
func Lowercase(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// CollapseWhitespace folds runs of whitespace into a single space
func CollapseWhitespace(s string) string {
	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		result.WriteRune(r)
		prevSpace = false
	}
	return result.String()
}

// StripSymbols removes everything except digits, whitespace, and letters
func StripSymbols(s string) string {
	return symbolRe.ReplaceAllString(s, "")
}
