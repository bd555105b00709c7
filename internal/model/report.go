package model

import (
	"strings"
	"time"
)

// Report is the translated, filtered rendition of a filing's presentation
// hierarchy. Sections keep document order; items within a section keep
// presentation order.
type Report struct {
	Ticker      string    `json:"ticker"`
	CIK         string    `json:"cik"`
	Form        string    `json:"form"`
	Accession   string    `json:"accession,omitempty"`
	FiledAt     string    `json:"filed_at,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
}

// Section groups report items under a presentation role.
type Section struct {
	Name       string `json:"name"`
	KoreanName string `json:"korean_name"`
	Items      []Item `json:"items"`
}

// Item is one translated concept with its data points.
type Item struct {
	Concept     string         `json:"concept"`
	Translation TagTranslation `json:"translation"`
	Data        []DataPoint    `json:"data"`
}

// TagTranslation holds the Korean rendering of a concept. Importance is a
// 1-5 investor-relevance score assigned during translation.
type TagTranslation struct {
	KoreanName  string `json:"korean_name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Importance  int    `json:"importance"`
}

// DataPoint is one reported value for an item.
type DataPoint struct {
	Value        string   `json:"value"`
	DisplayValue string   `json:"display_value"`
	Unit         string   `json:"unit,omitempty"`
	ContextID    string   `json:"context"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Date         string   `json:"date,omitempty"`
	Members      []string `json:"members,omitempty"`
	MembersKo    []string `json:"members_ko,omitempty"`
}

// MainStatements are the Korean names of the three primary statements,
// used by the statements-only report mode.
var MainStatements = []string{"재무상태표", "포괄손익계산서", "손익계산서", "현금흐름표"}

// IsMainStatement reports whether a translated section name refers to one
// of the three primary financial statements.
func IsMainStatement(koreanName string) bool {
	for _, s := range MainStatements {
		if strings.Contains(koreanName, s) {
			return true
		}
	}
	return false
}
