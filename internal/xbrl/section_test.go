package xbrl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionName(t *testing.T) {
	tests := []struct {
		name string
		role string
		want string
	}{
		{
			"income statement",
			"http://www.company.com/role/IncomeStatement",
			"Income Statement",
		},
		{
			"balance sheet with suffix",
			"http://www.company.com/role/CondensedConsolidatedBalanceSheetsDetails",
			"Condensed Consolidated Balance Sheets",
		},
		{
			"stacked suffixes",
			"http://www.company.com/role/InventoriesTablesDetails",
			"Inventories",
		},
		{
			"capital Role segment",
			"http://www.company.com/Role/CashFlows",
			"Cash Flows",
		},
		{
			"taxonomy role base",
			"http://www.company.com/taxonomy/role/NotesPayable",
			"Notes Payable",
		},
		{
			"numbered note",
			"http://www.company.com/role/Note3Inventory",
			"Note 3 Inventory",
		},
		{
			"acronym run",
			"http://www.company.com/role/EPSCalculation",
			"EPS Calculation",
		},
		{
			"no role segment",
			"http://www.company.com/disclosures/IncomeStatement",
			"Other",
		},
		{
			"empty after role",
			"http://www.company.com/role/",
			"Other",
		},
		{
			"empty uri",
			"",
			"Other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SectionName(tt.role))
		})
	}
}

func TestSectionNameDeterministic(t *testing.T) {
	role := "http://www.company.com/role/SegmentInformationDetails"
	first := SectionName(role)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, SectionName(role))
	}
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"Income", "Statement"}, splitWords("IncomeStatement"))
	assert.Equal(t, []string{"HTML", "Report"}, splitWords("HTMLReport"))
	assert.Equal(t, []string{"Note", "3", "Inventory"}, splitWords("Note3Inventory"))
	assert.Empty(t, splitWords(""))
}
