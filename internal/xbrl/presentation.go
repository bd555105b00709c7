package xbrl

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// PresentationNode is one entry in a section's concept tree. Children are
// ordered by the presentation arc's order attribute; Facts holds the
// concept's data points filtered to the selected reporting contexts and
// deduplicated. A node with no facts is kept for structure.
type PresentationNode struct {
	Concept  string              `json:"concept"`
	Order    float64             `json:"order"`
	Children []*PresentationNode `json:"children,omitempty"`
	Facts    []Fact              `json:"data"`
}

// xmlPresentationLink mirrors a <presentationLink> element: located concepts
// plus parent/child arcs, grouped under one role URI.
type xmlPresentationLink struct {
	Role string `xml:"role,attr"`
	Locs []struct {
		Href  string `xml:"href,attr"`
		Label string `xml:"label,attr"`
	} `xml:"loc"`
	Arcs []struct {
		From  string `xml:"from,attr"`
		To    string `xml:"to,attr"`
		Order string `xml:"order,attr"`
	} `xml:"presentationArc"`
}

// BuildHierarchy reconstructs the filer's presentation outline from the
// presentation linkbase and attaches each concept's facts, filtered to the
// selected context ids. Sections whose trees carry no facts at all are
// dropped. The linkbase is a DAG by specification; a cycle stops expansion
// of that branch and is logged as a data-quality error.
func BuildHierarchy(r io.Reader, facts map[string][]Fact, selected map[string]bool, norm *Normalizer) (map[string][]*PresentationNode, error) {
	if norm == nil {
		norm = defaultNormalizer
	}
	log := zap.L()

	result := make(map[string][]*PresentationNode)

	err := decodeElements(r, "presentationLink", func(link xmlPresentationLink) error {
		section := SectionName(link.Role)
		roots := buildSectionTrees(link, facts, selected, norm)
		if len(roots) == 0 {
			return nil
		}
		if !anyFacts(roots, make(map[*PresentationNode]bool)) {
			log.Debug("dropping section with no facts",
				zap.String("section", section),
				zap.String("role", link.Role),
			)
			return nil
		}
		result[section] = append(result[section], roots...)
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "xbrl: build hierarchy")
	}

	return result, nil
}

// buildSectionTrees assembles one presentation link's arcs into ordered
// concept trees, returning the root nodes.
func buildSectionTrees(link xmlPresentationLink, facts map[string][]Fact, selected map[string]bool, norm *Normalizer) []*PresentationNode {
	// Locator label -> concept name, from the href fragment
	// (filer-20240629.xsd#us-gaap_Revenues -> us-gaap_Revenues).
	concepts := make(map[string]string, len(link.Locs))
	for _, loc := range link.Locs {
		frag := loc.Href
		if i := strings.Index(frag, "#"); i >= 0 {
			frag = frag[i+1:]
		}
		if frag != "" && loc.Label != "" {
			concepts[loc.Label] = frag
		}
	}

	nodes := make(map[string]*PresentationNode, len(concepts))
	nodeFor := func(label string) *PresentationNode {
		concept, ok := concepts[label]
		if !ok {
			return nil
		}
		if n, ok := nodes[label]; ok {
			return n
		}
		key := norm.Normalize(concept)
		n := &PresentationNode{
			Concept: norm.StripPrefix(concept),
			Order:   1.0,
			Facts:   Dedup(filterFacts(facts[key], selected)),
		}
		nodes[label] = n
		return n
	}

	isChild := make(map[string]bool)
	for _, arc := range link.Arcs {
		parent := nodeFor(arc.From)
		child := nodeFor(arc.To)
		if parent == nil || child == nil || parent == child {
			continue
		}
		if order, err := strconv.ParseFloat(arc.Order, 64); err == nil {
			child.Order = order
		}
		parent.Children = append(parent.Children, child)
		isChild[arc.To] = true
	}

	// Stable sort keeps document order for equal-order siblings.
	for _, n := range nodes {
		sort.SliceStable(n.Children, func(i, j int) bool {
			return n.Children[i].Order < n.Children[j].Order
		})
	}

	var rootLabels []string
	for label := range nodes {
		if !isChild[label] {
			rootLabels = append(rootLabels, label)
		}
	}
	sort.Strings(rootLabels)

	var roots []*PresentationNode
	for _, label := range rootLabels {
		root := nodes[label]
		if pruneCycles(root, make(map[*PresentationNode]bool)) {
			zap.L().Warn("presentation arc cycle detected, branch truncated",
				zap.String("role", link.Role),
				zap.String("concept", root.Concept),
			)
		}
		roots = append(roots, root)
	}
	sort.SliceStable(roots, func(i, j int) bool { return roots[i].Order < roots[j].Order })

	return roots
}

// pruneCycles removes any child edge that would revisit a node already on
// the current path, reporting whether a cycle was found.
func pruneCycles(n *PresentationNode, onPath map[*PresentationNode]bool) bool {
	onPath[n] = true
	defer delete(onPath, n)

	found := false
	kept := n.Children[:0]
	for _, child := range n.Children {
		if onPath[child] {
			found = true
			continue
		}
		if pruneCycles(child, onPath) {
			found = true
		}
		kept = append(kept, child)
	}
	n.Children = kept
	return found
}

func anyFacts(nodes []*PresentationNode, visited map[*PresentationNode]bool) bool {
	for _, n := range nodes {
		if visited[n] {
			continue
		}
		visited[n] = true
		if len(n.Facts) > 0 || anyFacts(n.Children, visited) {
			return true
		}
	}
	return false
}

func filterFacts(facts []Fact, selected map[string]bool) []Fact {
	if len(facts) == 0 {
		return nil
	}
	var out []Fact
	for _, f := range facts {
		if selected[f.ContextID] {
			out = append(out, f)
		}
	}
	return out
}
