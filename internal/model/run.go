// Package model defines the domain types shared across the scrape pipeline
// and the store.
package model

import (
	"time"
)

// RunStatus represents the current state of a scrape run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusFetching    RunStatus = "fetching"
	RunStatusParsing     RunStatus = "parsing"
	RunStatusTranslating RunStatus = "translating"
	RunStatusRendering   RunStatus = "rendering"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run represents a single scrape-and-report run for one filing.
type Run struct {
	ID        string     `json:"id"`
	Ticker    string     `json:"ticker"`
	CIK       string     `json:"cik"`
	Form      string     `json:"form"`
	Accession string     `json:"accession"`
	FiledAt   string     `json:"filed_at"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Contexts         int     `json:"contexts"`
	ContextWarnings  int     `json:"context_warnings"`
	Facts            int     `json:"facts"`
	SelectedContexts int     `json:"selected_contexts"`
	Sections         int     `json:"sections"`
	TranslatedTags   int     `json:"translated_tags"`
	TotalTokens      int     `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost"`
	ReportPath       string  `json:"report_path,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// Terminal reports whether the run has reached a final state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusComplete || s == RunStatusFailed
}
