package report

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/dimi-labs/kensho-cli/internal/model"
)

// Excel caps sheet names at 31 characters and forbids a handful of
// punctuation characters.
const maxSheetNameLen = 31

var sheetNameReplacer = strings.NewReplacer("/", " ", "\\", " ", "?", "", "*", "", "[", "(", "]", ")", ":", " ")

var xlsxHeader = []string{"태그", "한글명", "카테고리", "중요도", "값", "단위", "멤버", "기간"}

// WriteXLSX writes one sheet per section with a row per data point.
func WriteXLSX(rpt *model.Report, path string) error {
	f := xlsx.NewFile()

	used := make(map[string]bool)
	for _, sec := range rpt.Sections {
		sheet, err := f.AddSheet(sheetName(sec.KoreanName, used))
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", sec.KoreanName)
		}

		header := sheet.AddRow()
		for _, h := range xlsxHeader {
			header.AddCell().SetString(h)
		}

		for _, item := range sec.Items {
			for _, dp := range item.Data {
				row := sheet.AddRow()
				row.AddCell().SetString(item.Concept)
				row.AddCell().SetString(item.Translation.KoreanName)
				row.AddCell().SetString(item.Translation.Category)
				row.AddCell().SetInt(item.Translation.Importance)
				row.AddCell().SetString(dp.DisplayValue)
				row.AddCell().SetString(strings.ToUpper(dp.Unit))
				row.AddCell().SetString(strings.Join(dp.MembersKo, ", "))
				row.AddCell().SetString(periodLabel(dp))
			}
		}
	}

	if len(f.Sheets) == 0 {
		sheet, err := f.AddSheet("Report")
		if err != nil {
			return eris.Wrap(err, "report: add empty sheet")
		}
		sheet.AddRow().AddCell().SetString("데이터 없음")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create output dir")
	}
	return eris.Wrapf(f.Save(path), "report: write %s", path)
}

func periodLabel(dp model.DataPoint) string {
	if dp.Date != "" {
		return dp.Date
	}
	if dp.StartDate != "" {
		return dp.StartDate + " ~ " + dp.EndDate
	}
	return ""
}

// sheetName sanitizes and deduplicates a section name for use as an Excel
// sheet name.
func sheetName(name string, used map[string]bool) string {
	s := strings.TrimSpace(sheetNameReplacer.Replace(name))
	if s == "" {
		s = "Sheet"
	}
	if len([]rune(s)) > maxSheetNameLen {
		s = string([]rune(s)[:maxSheetNameLen])
	}
	base := s
	for i := 2; used[s]; i++ {
		suffix := " " + strconv.Itoa(i)
		trimmed := base
		if len([]rune(trimmed))+len(suffix) > maxSheetNameLen {
			trimmed = string([]rune(trimmed)[:maxSheetNameLen-len(suffix)])
		}
		s = trimmed + suffix
	}
	used[s] = true
	return s
}
