package xbrl

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fact is a single tagged value from the instance document, joined with its
// resolved context. Numeric facts carry a scaled Value; non-numeric facts
// keep the raw text. Facts are read-only after extraction.
type Fact struct {
	Concept   string `json:"concept"`
	ContextID string `json:"context"`
	Unit      string `json:"unit,omitempty"`
	Decimals  string `json:"decimals,omitempty"`
	RawValue  string `json:"raw_value"`

	Numeric      bool    `json:"numeric"`
	Value        float64 `json:"value,omitempty"`
	Text         string  `json:"text,omitempty"`
	DisplayValue string  `json:"display_value"`

	// Resolved from the referenced Context. Nil/empty when the context id
	// did not resolve; the fact is retained in this degraded form.
	Period     *Context    `json:"period,omitempty"`
	Dimensions []Dimension `json:"dimensions,omitempty"`
}

var displayPrinter = message.NewPrinter(language.English)

// scaleValue applies the decimals attribute to a parsed numeric value.
// decimals "-6" means the raw figure is tagged at millions precision and is
// divided down to a millions-denominated display value; "-9" likewise for
// billions. Any other decimals value leaves the number unscaled.
func scaleValue(raw float64, decimals string) (float64, string) {
	scale, err := strconv.Atoi(decimals)
	if err != nil || scale >= 0 {
		return raw, displayPrinter.Sprintf("$%.2f", raw)
	}
	switch scale {
	case -6:
		v := raw / 1e6
		return v, displayPrinter.Sprintf("$%.0fM", v)
	case -9:
		v := raw / 1e9
		return v, displayPrinter.Sprintf("$%.0fB", v)
	default:
		return raw, displayPrinter.Sprintf("$%.0f", raw)
	}
}

// newFact builds a Fact from a raw tagged element, coercing the value to a
// number when possible and joining the resolved context.
func newFact(concept, contextID, unit, decimals, raw string, contexts map[string]Context) Fact {
	f := Fact{
		Concept:   concept,
		ContextID: contextID,
		Unit:      unit,
		Decimals:  decimals,
		RawValue:  raw,
	}

	if n, err := strconv.ParseFloat(raw, 64); err == nil && raw != "" {
		f.Numeric = true
		f.Value, f.DisplayValue = scaleValue(n, decimals)
	} else {
		f.Text = raw
		f.DisplayValue = raw
	}

	if ctx, ok := contexts[contextID]; ok {
		f.Period = &ctx
		f.Dimensions = ctx.Dimensions
	}

	return f
}

// ExtractFacts scans the instance document for tagged facts under the target
// taxonomy (e.g. "us-gaap") and returns them grouped by normalized concept
// key. Facts referencing an unresolved context are retained without a period
// view rather than dropped.
func ExtractFacts(r io.Reader, contexts map[string]Context, taxonomy string, norm *Normalizer) (map[string][]Fact, error) {
	if norm == nil {
		norm = defaultNormalizer
	}
	if taxonomy == "" {
		taxonomy = "us-gaap"
	}
	log := zap.L()

	facts := make(map[string][]Fact)
	dec := newDecoder(r)

	var missing int
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "xbrl: extract facts")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || !matchesTaxonomy(se.Name.Space, taxonomy) {
			continue
		}

		contextRef := attr(se, "contextRef")
		if contextRef == "" {
			continue
		}

		var body struct {
			Value string `xml:",chardata"`
		}
		if err := dec.DecodeElement(&body, &se); err != nil {
			log.Warn("skipping undecodable fact element",
				zap.String("concept", se.Name.Local),
				zap.Error(err),
			)
			continue
		}

		concept := taxonomy + ":" + se.Name.Local
		f := newFact(concept, contextRef,
			attr(se, "unitRef"), attr(se, "decimals"),
			trim(body.Value), contexts)
		if f.Period == nil {
			missing++
		}

		key := norm.Normalize(concept)
		facts[key] = append(facts[key], f)
	}

	if missing > 0 {
		log.Warn("facts retained with unresolved context references",
			zap.Int("count", missing),
		)
	}

	return facts, nil
}

// matchesTaxonomy reports whether an element's namespace belongs to the
// target taxonomy. The decoder surfaces either a full namespace URI
// (http://fasb.org/us-gaap/2024) or, for unbound prefixes, the raw prefix.
func matchesTaxonomy(space, taxonomy string) bool {
	if space == "" {
		return false
	}
	if space == taxonomy {
		return true
	}
	return strings.Contains(space, "/"+taxonomy+"/") ||
		strings.HasSuffix(space, "/"+taxonomy)
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
