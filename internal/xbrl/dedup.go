package xbrl

import (
	"strconv"
	"strings"
)

// Dedup collapses duplicate facts, keeping the first occurrence in
// encounter order. Two facts are duplicates when they agree on context,
// normalized value, unit, decimals, and dimensional breakdown. Idempotent.
func Dedup(facts []Fact) []Fact {
	if len(facts) < 2 {
		return facts
	}

	seen := make(map[string]bool, len(facts))
	out := make([]Fact, 0, len(facts))
	for _, f := range facts {
		key := dedupKey(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func dedupKey(f Fact) string {
	var b strings.Builder
	b.WriteString(f.ContextID)
	b.WriteByte('|')
	if f.Numeric {
		b.WriteString(strconv.FormatFloat(f.Value, 'g', -1, 64))
	} else {
		b.WriteString(f.Text)
	}
	b.WriteByte('|')
	b.WriteString(f.Unit)
	b.WriteByte('|')
	b.WriteString(f.Decimals)
	for _, d := range f.Dimensions {
		b.WriteByte('|')
		b.WriteString(d.Axis)
		b.WriteByte('=')
		b.WriteString(d.Member)
	}
	return b.String()
}
