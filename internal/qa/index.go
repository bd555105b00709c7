package qa

import (
	"sort"
	"strings"
	"unicode"
)

// Index is a small in-memory lexical index over report documents. Scoring
// is term-frequency overlap with a boost for raw substring hits, which
// keeps Korean queries working without segmentation.
type Index struct {
	docs   []Document
	tokens []map[string]int
}

// NewIndex builds the index.
func NewIndex(docs []Document) *Index {
	ix := &Index{docs: docs, tokens: make([]map[string]int, len(docs))}
	for i, doc := range docs {
		ix.tokens[i] = termCounts(doc.Text + " " + doc.Concept)
	}
	return ix
}

type scored struct {
	doc   Document
	score float64
}

// Search returns the top-k documents for the query, best first. Documents
// with zero score are excluded.
func (ix *Index) Search(query string, k int) []Document {
	queryTerms := termCounts(query)

	var hits []scored
	for i, doc := range ix.docs {
		var score float64
		for term := range queryTerms {
			if tf, ok := ix.tokens[i][term]; ok {
				score += 1 + float64(tf)*0.1
				continue
			}
			// Korean particles attach to the noun (매출액은 → 매출액), so
			// a query term that starts with a document term still counts.
			for docTerm, tf := range ix.tokens[i] {
				if strings.HasPrefix(term, docTerm) || strings.HasPrefix(docTerm, term) {
					score += 0.8 + float64(tf)*0.1
					break
				}
			}
		}
		if score > 0 {
			hits = append(hits, scored{doc: doc, score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	if k > len(hits) {
		k = len(hits)
	}
	out := make([]Document, 0, k)
	for _, h := range hits[:k] {
		out = append(out, h.doc)
	}
	return out
}

// termCounts tokenizes on non-letter/digit boundaries, lower-cased, and
// additionally splits CamelCase concept names.
func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	add := func(term string) {
		term = strings.ToLower(term)
		if len([]rune(term)) >= 2 {
			counts[term]++
		}
	}

	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			add(string(cur))
			cur = nil
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsUpper(r):
			// CamelCase boundary inside concept names.
			if len(cur) > 0 && !unicode.IsUpper(cur[len(cur)-1]) {
				flush()
			}
			cur = append(cur, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur = append(cur, r)
		default:
			flush()
		}
	}
	flush()
	return counts
}
