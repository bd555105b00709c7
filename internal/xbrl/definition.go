package xbrl

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// DefinitionDates collects the reporting dates encoded in definition-link
// role URIs, used as a cross-check against the instance document's contexts.
type DefinitionDates struct {
	Instants  []string    `json:"instant"`
	Durations []DateRange `json:"duration"`
}

// DateRange is an inclusive start/end calendar range.
type DateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// AxisHierarchy describes one dimensional axis declared in the definition
// linkbase: its members and the member-to-member nesting beneath them.
type AxisHierarchy struct {
	Axis            string   `json:"axis"`
	Members         []string `json:"members"`
	ExplicitMembers []string `json:"explicit_members"`
	Children        []string `json:"children"`
}

var (
	asOfRe = regexp.MustCompile(`AsOf(\d{8})`)
	toRe   = regexp.MustCompile(`(\d{8})_To_(\d{8})`)
)

type xmlDefinitionLink struct {
	Role string `xml:"role,attr"`
	Locs []struct {
		Href  string `xml:"href,attr"`
		Label string `xml:"label,attr"`
	} `xml:"loc"`
	Arcs []struct {
		From    string `xml:"from,attr"`
		To      string `xml:"to,attr"`
		Arcrole string `xml:"arcrole,attr"`
	} `xml:"definitionArc"`
}

// ScanDefinitionDates extracts AsOfYYYYMMDD instants and
// YYYYMMDD_To_YYYYMMDD duration ranges from definition-link role URIs.
// Results are sorted and de-duplicated.
func ScanDefinitionDates(r io.Reader) (*DefinitionDates, error) {
	instants := make(map[string]bool)
	ranges := make(map[DateRange]bool)

	err := decodeElements(r, "definitionLink", func(link xmlDefinitionLink) error {
		if m := asOfRe.FindStringSubmatch(link.Role); m != nil {
			instants[formatCompactDate(m[1])] = true
		}
		if m := toRe.FindStringSubmatch(link.Role); m != nil {
			ranges[DateRange{Start: formatCompactDate(m[1]), End: formatCompactDate(m[2])}] = true
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "xbrl: scan definition dates")
	}

	out := &DefinitionDates{}
	for d := range instants {
		out.Instants = append(out.Instants, d)
	}
	sort.Strings(out.Instants)
	for dr := range ranges {
		out.Durations = append(out.Durations, dr)
	}
	sort.Slice(out.Durations, func(i, j int) bool {
		if out.Durations[i].Start != out.Durations[j].Start {
			return out.Durations[i].Start < out.Durations[j].Start
		}
		return out.Durations[i].End < out.Durations[j].End
	})

	return out, nil
}

// ExtractAxisHierarchy reads dimension-domain and domain-member arcs from
// the definition linkbase into a per-axis member hierarchy.
func ExtractAxisHierarchy(r io.Reader, norm *Normalizer) (map[string]*AxisHierarchy, error) {
	if norm == nil {
		norm = defaultNormalizer
	}

	hierarchy := make(map[string]*AxisHierarchy)
	entry := func(concept string) *AxisHierarchy {
		if h, ok := hierarchy[concept]; ok {
			return h
		}
		h := &AxisHierarchy{}
		hierarchy[concept] = h
		return h
	}

	err := decodeElements(r, "definitionLink", func(link xmlDefinitionLink) error {
		concepts := make(map[string]string, len(link.Locs))
		for _, loc := range link.Locs {
			frag := loc.Href
			if i := strings.Index(frag, "#"); i >= 0 {
				frag = frag[i+1:]
			}
			if frag != "" && loc.Label != "" {
				concepts[loc.Label] = norm.StripPrefix(frag)
			}
		}

		for _, arc := range link.Arcs {
			from, okF := concepts[arc.From]
			to, okT := concepts[arc.To]
			if !okF || !okT {
				continue
			}
			switch {
			case strings.Contains(arc.Arcrole, "dimension-domain"):
				h := entry(from)
				h.Axis = from
				h.Members = append(h.Members, to)
			case strings.Contains(arc.Arcrole, "domain-member"):
				h := entry(from)
				h.Children = append(h.Children, to)
				if strings.HasSuffix(to, "Member") {
					h.ExplicitMembers = append(h.ExplicitMembers, to)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "xbrl: extract axis hierarchy")
	}

	for _, h := range hierarchy {
		sort.Strings(h.ExplicitMembers)
	}

	return hierarchy, nil
}

// formatCompactDate converts YYYYMMDD to YYYY-MM-DD.
func formatCompactDate(s string) string {
	return s[:4] + "-" + s[4:6] + "-" + s[6:]
}
