// Package qa answers Korean questions about a translated filing report:
// the report is flattened into per-item documents, a lexical index retrieves
// the most relevant ones, and the LLM synthesizes the answer from them.
package qa

import (
	"fmt"
	"strings"

	"github.com/dimi-labs/kensho-cli/internal/model"
)

// Document is one retrievable unit of report content.
type Document struct {
	Section string
	Concept string
	Text    string
}

// BuildDocuments flattens the report into one document per item.
func BuildDocuments(rpt *model.Report) []Document {
	var docs []Document
	for _, sec := range rpt.Sections {
		for _, item := range sec.Items {
			var b strings.Builder
			fmt.Fprintf(&b, "섹션: %s\n", sec.KoreanName)
			fmt.Fprintf(&b, "항목: %s\n", item.Translation.KoreanName)
			fmt.Fprintf(&b, "태그: %s\n", item.Concept)
			if item.Translation.Description != "" {
				fmt.Fprintf(&b, "설명: %s\n", item.Translation.Description)
			}
			if item.Translation.Category != "" {
				fmt.Fprintf(&b, "카테고리: %s\n", item.Translation.Category)
			}
			for _, dp := range item.Data {
				fmt.Fprintf(&b, "값: %s", dp.DisplayValue)
				if dp.Unit != "" {
					fmt.Fprintf(&b, " %s", strings.ToUpper(dp.Unit))
				}
				if len(dp.MembersKo) > 0 {
					fmt.Fprintf(&b, " (%s)", strings.Join(dp.MembersKo, ", "))
				}
				switch {
				case dp.Date != "":
					fmt.Fprintf(&b, " [%s]", dp.Date)
				case dp.StartDate != "":
					fmt.Fprintf(&b, " [%s ~ %s]", dp.StartDate, dp.EndDate)
				}
				b.WriteString("\n")
			}
			docs = append(docs, Document{
				Section: sec.KoreanName,
				Concept: item.Concept,
				Text:    b.String(),
			})
		}
	}
	return docs
}
