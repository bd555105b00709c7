// Package store persists scrape runs, their parsed artifacts, and the
// Korean translation cache, on SQLite or PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/dimi-labs/kensho-cli/internal/model"
)

// Artifact kinds stored per run. Artifacts are the JSON exchange documents
// produced by the pipeline stages.
const (
	ArtifactContexts   = "contexts"
	ArtifactFacts      = "facts"
	ArtifactHierarchy  = "hierarchy"
	ArtifactReportJSON = "report_json"
	ArtifactReportHTML = "report_html"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Ticker string          `json:"ticker,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Translation is one cached translation entry: kind distinguishes tag,
// member, and section translations; key is the normalized source string.
type Translation struct {
	Kind string
	Key  string
	Data []byte
}

// Store defines the persistence interface for the scrape pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, ticker, cik, form string) (*model.Run, error)
	UpdateRunFiling(ctx context.Context, runID, accession, filedAt string) error
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, message string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Artifacts
	SaveArtifact(ctx context.Context, runID, kind string, data []byte) error
	GetArtifact(ctx context.Context, runID, kind string) ([]byte, error)
	LatestArtifact(ctx context.Context, ticker, kind string) ([]byte, error)

	// Translation cache
	GetTranslation(ctx context.Context, kind, key string) ([]byte, error)
	SetTranslations(ctx context.Context, entries []Translation, ttl time.Duration) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
