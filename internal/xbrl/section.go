package xbrl

import (
	"strings"
	"unicode"
)

// rolePatterns are matched against a presentation-link role URI to locate
// the section identifier. Filer-specific patterns come first so custom role
// bases like https://www.apple.com/role/... resolve before the generic one.
var rolePatterns = []string{
	"/role/",
	"/Role/",
	"/taxonomy/role/",
}

// sectionSuffixes are disclosure-type qualifiers stripped from the raw
// section id before word splitting.
var sectionSuffixes = []string{
	"Details",
	"Information",
	"Disclosure",
	"Tables",
	"Table",
	"Policies",
	"Policy",
}

// SectionName derives a human-readable section label from a presentation
// linkbase role URI: the path segment after the /role/ pattern, with
// disclosure suffixes stripped and CamelCase split into words. Role URIs
// with no recognizable pattern map to "Other". Pure and deterministic.
func SectionName(roleURI string) string {
	raw := ""
	for _, pat := range rolePatterns {
		if i := strings.LastIndex(roleURI, pat); i >= 0 {
			raw = roleURI[i+len(pat):]
			break
		}
	}
	if raw == "" {
		return "Other"
	}

	// Drop any trailing path or query residue.
	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		raw = raw[:i]
	}

	for changed := true; changed; {
		changed = false
		for _, suffix := range sectionSuffixes {
			if len(raw) > len(suffix) && strings.HasSuffix(raw, suffix) {
				raw = strings.TrimSuffix(raw, suffix)
				changed = true
			}
		}
	}

	name := strings.Join(splitWords(raw), " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "Other"
	}
	return name
}

// splitWords breaks a CamelCase identifier into words, additionally
// splitting at digit/letter boundaries and discarding non-alphanumeric
// residue. "IncomeStatement" -> ["Income", "Statement"],
// "Note3Inventory" -> ["Note", "3", "Inventory"].
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
			continue
		case i > 0 && boundary(runes[i-1], r, peek(runes, i+1)):
			flush()
		}
		cur.WriteRune(r)
	}
	flush()

	return words
}

// boundary reports whether a new word starts at curr given its neighbors:
// lower->Upper, letter<->digit, or the last capital of an acronym run
// followed by a lowercase letter (HTMLReport -> HTML Report).
func boundary(prev, curr, next rune) bool {
	switch {
	case unicode.IsLower(prev) && unicode.IsUpper(curr):
		return true
	case unicode.IsLetter(prev) != unicode.IsLetter(curr):
		return true
	case unicode.IsUpper(prev) && unicode.IsUpper(curr) && unicode.IsLower(next):
		return true
	}
	return false
}

func peek(runes []rune, i int) rune {
	if i < len(runes) {
		return runes[i]
	}
	return 0
}
