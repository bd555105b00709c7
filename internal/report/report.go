// Package report renders a translated filing report to JSON, HTML, and XLSX.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/dimi-labs/kensho-cli/internal/model"
)

// Options controls which items make it into a rendered report.
type Options struct {
	// MinImportance drops items scored below it (1-5 scale, 0 keeps all).
	MinImportance int
	// StatementsOnly keeps only the three primary financial statements.
	StatementsOnly bool
}

// Filter returns a copy of the report with the options applied. Sections
// left without items are dropped.
func Filter(rpt *model.Report, opts Options) *model.Report {
	out := *rpt
	out.Sections = nil

	for _, sec := range rpt.Sections {
		if opts.StatementsOnly && !model.IsMainStatement(sec.KoreanName) {
			continue
		}
		filtered := sec
		filtered.Items = nil
		for _, item := range sec.Items {
			if item.Translation.Importance < opts.MinImportance {
				continue
			}
			filtered.Items = append(filtered.Items, item)
		}
		if len(filtered.Items) > 0 {
			out.Sections = append(out.Sections, filtered)
		}
	}
	return &out
}

// EncodeJSON serializes the report for storage and transport.
func EncodeJSON(rpt *model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(rpt, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "report: encode json")
	}
	return data, nil
}

// WriteJSON writes the report as JSON, creating parent directories.
func WriteJSON(rpt *model.Report, path string) error {
	data, err := EncodeJSON(rpt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create output dir")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}
