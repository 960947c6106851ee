package core

// validation.go holds the input rules shared by every write path.
// Each validator returns a KindValidation *Error naming the bad field.

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxKeyNameLength = 255

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9_-]+$`)
	languagePattern = regexp.MustCompile(`^[A-Za-z]{2,3}([_-][A-Za-z0-9]{2,8})*$`)
)

// normalizeSlug lowercases and validates a project slug.
func normalizeSlug(slug string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(slug))
	if s == "" {
		return "", invalidf("project slug is required")
	}
	if !slugPattern.MatchString(s) {
		return "", invalidf("invalid project slug %q: use letters, digits, '-' or '_'", slug)
	}
	return s, nil
}

func validateProjectName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", invalidf("project name is required")
	}
	return n, nil
}

func validateLanguageCode(code string) (string, error) {
	c := strings.TrimSpace(code)
	if c == "" {
		return "", invalidf("language is required")
	}
	if !languagePattern.MatchString(c) {
		return "", invalidf("invalid language code %q", code)
	}
	return c, nil
}

// validateKeyName accepts any printable dotted path without surrounding
// whitespace.
func validateKeyName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalidf("key name is required")
	}
	if !utf8.ValidString(name) {
		return invalidf("key name is not valid UTF-8")
	}
	if name != strings.TrimSpace(name) {
		return invalidf("key name %q has surrounding whitespace", name)
	}
	if utf8.RuneCountInString(name) > maxKeyNameLength {
		return invalidf("key name %q exceeds %d characters", truncateRunes(name, 32)+"...", maxKeyNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return invalidf("key name %q contains control characters", name)
		}
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return invalidf("key name %q has an empty path segment", name)
	}
	return nil
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func validateAuthor(author string) error {
	if strings.TrimSpace(author) == "" {
		return invalidf("author is required")
	}
	return nil
}

// normalizeDescription trims a description; blank becomes nil.
func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	d := strings.TrimSpace(*desc)
	if d == "" {
		return nil
	}
	return &d
}
