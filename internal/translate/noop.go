package translate

import (
	"context"
	"sort"
	"time"

	"github.com/dimi-labs/kensho-cli/internal/model"
	"github.com/dimi-labs/kensho-cli/internal/xbrl"
)

// Passthrough builds the report structure without calling the LLM. Standard
// statement names still map through the K-IFRS table; everything else keeps
// its English name. Used when translation is disabled.
type Passthrough struct{}

func (Passthrough) Translate(_ context.Context, hierarchy map[string][]*xbrl.PresentationNode) (*model.Report, *Stats, error) {
	items := flatten(hierarchy)

	sectionNames := make([]string, 0, len(hierarchy))
	for name := range hierarchy {
		sectionNames = append(sectionNames, name)
	}
	sort.Strings(sectionNames)

	sectionKo := make(map[string]string, len(sectionNames))
	for _, s := range sectionNames {
		if ko, ok := standardSection(s); ok {
			sectionKo[s] = ko
		} else {
			sectionKo[s] = s
		}
	}

	tagKo := make(map[string]model.TagTranslation)
	for _, it := range items {
		if _, ok := tagKo[it.concept]; !ok {
			tagKo[it.concept] = model.TagTranslation{KoreanName: it.concept, Importance: 3}
		}
	}

	report := assemble(sectionNames, items, sectionKo, tagKo, map[string]string{})
	report.GeneratedAt = time.Now().UTC()
	return report, &Stats{TranslatedTags: len(tagKo)}, nil
}
