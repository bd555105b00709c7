package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/dimi-labs/kensho-cli/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Ticker:    "AAPL",
		CIK:       "0000320193",
		Form:      "10-Q",
		Accession: "0000320193-24-000081",
		FiledAt:   "2024-08-02",
		Sections: []model.Section{
			{
				Name:       "Income Statement",
				KoreanName: "포괄손익계산서",
				Items: []model.Item{
					{
						Concept: "Revenues",
						Translation: model.TagTranslation{
							KoreanName: "매출액", Category: "수익", Importance: 5,
							Description: "영업활동으로 벌어들인 수익",
						},
						Data: []model.DataPoint{{
							Value: "85777000000", DisplayValue: "$85,777M", Unit: "usd",
							ContextID: "c-1", StartDate: "2024-04-01", EndDate: "2024-06-29",
							Members: []string{"AmericasSegmentMember"}, MembersKo: []string{"미주 부문"},
						}},
					},
					{
						Concept:     "OtherNonoperatingIncomeExpense",
						Translation: model.TagTranslation{KoreanName: "기타영업외손익", Importance: 2},
						Data: []model.DataPoint{{
							Value: "142000000", DisplayValue: "$142M", Unit: "usd", ContextID: "c-1",
						}},
					},
				},
			},
			{
				Name:       "Note 3 Inventory",
				KoreanName: "주석 3 재고자산",
				Items: []model.Item{
					{
						Concept:     "InventoryNet",
						Translation: model.TagTranslation{KoreanName: "재고자산", Importance: 3},
						Data: []model.DataPoint{{
							Value: "6331000000", DisplayValue: "$6,331M", Unit: "usd",
							ContextID: "c-20", Date: "2024-06-29",
						}},
					},
				},
			},
		},
	}
}

func TestFilterMinImportance(t *testing.T) {
	filtered := Filter(sampleReport(), Options{MinImportance: 3})

	require.Len(t, filtered.Sections, 2)
	require.Len(t, filtered.Sections[0].Items, 1)
	assert.Equal(t, "Revenues", filtered.Sections[0].Items[0].Concept)
	assert.Equal(t, "InventoryNet", filtered.Sections[1].Items[0].Concept)
}

func TestFilterStatementsOnly(t *testing.T) {
	filtered := Filter(sampleReport(), Options{StatementsOnly: true})

	require.Len(t, filtered.Sections, 1)
	assert.Equal(t, "포괄손익계산서", filtered.Sections[0].KoreanName)
}

func TestFilterDropsEmptySections(t *testing.T) {
	filtered := Filter(sampleReport(), Options{MinImportance: 4})

	require.Len(t, filtered.Sections, 1)
	assert.Equal(t, "Income Statement", filtered.Sections[0].Name)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	rpt := sampleReport()
	_ = Filter(rpt, Options{MinImportance: 5, StatementsOnly: true})
	assert.Len(t, rpt.Sections, 2)
	assert.Len(t, rpt.Sections[0].Items, 2)
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, WriteJSON(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got model.Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "AAPL", got.Ticker)
	require.Len(t, got.Sections, 2)
	assert.Equal(t, "매출액", got.Sections[0].Items[0].Translation.KoreanName)
	assert.Equal(t, "2024-04-01", got.Sections[0].Items[0].Data[0].StartDate)
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, sampleReport()))

	html := buf.String()
	assert.Contains(t, html, `<html lang="ko">`)
	assert.Contains(t, html, "포괄손익계산서")
	assert.Contains(t, html, "매출액")
	assert.Contains(t, html, "$85,777M")
	assert.Contains(t, html, "미주 부문")
	assert.Contains(t, html, "중요도: 5")
	assert.Contains(t, html, "2024-04-01 ~ 2024-06-29")
	assert.Contains(t, html, "날짜: 2024-06-29")
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteHTML(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAPL 10-Q 분석 리포트")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSX(sampleReport(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	sheet := f.Sheets[0]
	assert.Equal(t, "포괄손익계산서", sheet.Name)
	require.True(t, len(sheet.Rows) >= 3)
	assert.Equal(t, "태그", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Revenues", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "매출액", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "$85,777M", sheet.Rows[1].Cells[4].String())
	assert.Equal(t, "USD", sheet.Rows[1].Cells[5].String())
}

func TestWriteXLSXEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(&model.Report{}, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
}

func TestSheetName(t *testing.T) {
	used := make(map[string]bool)
	assert.Equal(t, "재무상태표", sheetName("재무상태표", used))
	assert.Equal(t, "재무상태표 2", sheetName("재무상태표", used))

	long := sheetName("A Very Long Section Name That Exceeds The Excel Limit", used)
	assert.LessOrEqual(t, len([]rune(long)), maxSheetNameLen)

	assert.Equal(t, "Notes (1)", sheetName("Notes:[1]", make(map[string]bool)))
}
