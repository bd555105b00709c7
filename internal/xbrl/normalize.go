// Package xbrl parses SEC EDGAR XBRL instance documents and linkbases:
// context resolution, fact extraction, reporting-period selection, and
// presentation hierarchy reconstruction.
package xbrl

import "strings"

// Taxonomy prefixes recognized when a tag is qualified with an underscore
// or hyphen separator. Colon-qualified tags strip any prefix, since the
// instance document declares its own namespaces.
var (
	standardPrefixes = map[string]bool{
		"us-gaap": true, "usgaap": true, "us": true, "gaap": true,
		"dei": true, "srt": true,
	}
	internationalPrefixes = map[string]bool{
		"ifrs": true, "country": true, "currency": true,
	}
	otherPrefixes = map[string]bool{
		"invest": true, "risk": true, "ref": true, "ecd": true,
	}
)

// Normalizer strips taxonomy prefixes from concept tags. Custom prefixes
// cover filer-specific extension taxonomies (e.g. "aapl", "nvda"), which
// appear underscore-qualified in linkbase href fragments.
type Normalizer struct {
	custom map[string]bool
}

// NewNormalizer returns a Normalizer that additionally recognizes the given
// filer-specific prefixes.
func NewNormalizer(customPrefixes ...string) *Normalizer {
	custom := make(map[string]bool, len(customPrefixes))
	for _, p := range customPrefixes {
		custom[strings.ToLower(p)] = true
	}
	return &Normalizer{custom: custom}
}

var defaultNormalizer = NewNormalizer()

// Normalize strips a recognized namespace prefix and lower-cases the result,
// producing a concept key comparable across the instance document and the
// linkbase href fragments. Idempotent: normalizing an already-normalized tag
// is a no-op.
func Normalize(tag string) string {
	return defaultNormalizer.Normalize(tag)
}

// Normalize strips a recognized namespace prefix and lower-cases the result.
func (n *Normalizer) Normalize(tag string) string {
	return strings.ToLower(n.StripPrefix(tag))
}

// StripPrefix removes a recognized namespace prefix while preserving the
// bare name's original casing, for display use.
func (n *Normalizer) StripPrefix(tag string) string {
	// Colon-qualified tags come from the instance document, where any
	// prefix is namespace machinery rather than part of the concept name.
	if i := strings.Index(tag, ":"); i >= 0 {
		return tag[i+1:]
	}

	// Underscore-qualified tags come from linkbase href fragments
	// (us-gaap_Revenues). Only strip recognized prefixes.
	if i := strings.Index(tag, "_"); i >= 0 {
		prefix := strings.ToLower(tag[:i])
		if n.recognized(prefix) {
			return tag[i+1:]
		}
	}

	// Hyphen-qualified names are rare and only ever use standard prefixes.
	if i := strings.Index(tag, "-"); i >= 0 {
		if standardPrefixes[strings.ToLower(tag[:i])] {
			return tag[i+1:]
		}
	}

	return tag
}

func trim(s string) string { return strings.TrimSpace(s) }

func (n *Normalizer) recognized(prefix string) bool {
	return standardPrefixes[prefix] ||
		internationalPrefixes[prefix] ||
		otherPrefixes[prefix] ||
		n.custom[prefix]
}
