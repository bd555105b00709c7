// Package pipeline orchestrates one scrape run: EDGAR discovery, filing
// download, XBRL parsing, period selection, hierarchy construction, Korean
// translation, and report rendering.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dimi-labs/kensho-cli/internal/config"
	"github.com/dimi-labs/kensho-cli/internal/edgar"
	"github.com/dimi-labs/kensho-cli/internal/fetcher"
	"github.com/dimi-labs/kensho-cli/internal/model"
	"github.com/dimi-labs/kensho-cli/internal/report"
	"github.com/dimi-labs/kensho-cli/internal/store"
	"github.com/dimi-labs/kensho-cli/internal/translate"
	"github.com/dimi-labs/kensho-cli/internal/xbrl"
)

// Pipeline wires the collaborators for a scrape run.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	fetcher    fetcher.Fetcher
	edgar      *edgar.Client
	translator translate.Translator
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, f fetcher.Fetcher, ec *edgar.Client, tr translate.Translator) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		fetcher:    f,
		edgar:      ec,
		translator: tr,
	}
}

// filingDocs holds the three downloaded filing documents.
type filingDocs struct {
	instance     []byte
	presentation []byte
	definition   []byte
	primary      []byte // inline HTML rendition, fetched only on fallback
}

// Run executes the full pipeline for a ticker and returns the completed run.
// Failures after run creation are recorded on the run before returning.
func (p *Pipeline) Run(ctx context.Context, ticker string) (*model.Run, error) {
	log := zap.L().With(zap.String("ticker", ticker))
	log.Info("pipeline: starting run")

	cik, err := p.edgar.ResolveCIK(ctx, ticker)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: resolve ticker %s", ticker)
	}

	run, err := p.store.CreateRun(ctx, ticker, cik, p.cfg.EDGAR.Form)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	result, err := p.execute(ctx, run, log)
	if err != nil {
		if failErr := p.store.FailRun(ctx, run.ID, err.Error()); failErr != nil {
			log.Warn("pipeline: failed to record failure", zap.Error(failErr))
		}
		return run, err
	}

	if err := p.store.CompleteRun(ctx, run.ID, result); err != nil {
		log.Warn("pipeline: failed to record completion", zap.Error(err))
	}
	run.Status = model.RunStatusComplete
	run.Result = result

	log.Info("pipeline: run complete",
		zap.String("run_id", run.ID),
		zap.Int("contexts", result.Contexts),
		zap.Int("facts", result.Facts),
		zap.Int("sections", result.Sections),
		zap.String("report", result.ReportPath),
	)
	return run, nil
}

func (p *Pipeline) execute(ctx context.Context, run *model.Run, log *zap.Logger) (*model.RunResult, error) {
	result := &model.RunResult{}
	setStatus := func(status model.RunStatus) {
		if err := p.store.UpdateRunStatus(ctx, run.ID, status); err != nil {
			log.Warn("pipeline: failed to update status", zap.Error(err))
		}
	}

	// Discovery + download.
	setStatus(model.RunStatusFetching)

	filing, err := p.edgar.LatestFiling(ctx, run.CIK, p.cfg.EDGAR.Form)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: latest %s filing", p.cfg.EDGAR.Form)
	}
	if err := p.store.UpdateRunFiling(ctx, run.ID, filing.AccessionNumber, filing.FilingDate); err != nil {
		log.Warn("pipeline: failed to record filing", zap.Error(err))
	}
	log.Info("pipeline: filing located",
		zap.String("accession", filing.AccessionNumber),
		zap.String("filed", filing.FilingDate),
	)

	docs, err := p.download(ctx, filing)
	if err != nil {
		return nil, err
	}

	// Parsing.
	setStatus(model.RunStatusParsing)

	norm := xbrl.NewNormalizer(customPrefix(run.Ticker))

	contexts, warnings, err := xbrl.ResolveContexts(bytes.NewReader(docs.instance), norm)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: resolve contexts")
	}
	if len(contexts) == 0 {
		// Some filings only carry contexts in the inline rendition.
		log.Warn("pipeline: no contexts in raw instance, trying inline fallback")
		docs.primary, err = p.fetchDoc(ctx, edgar.InlineViewerStripped(filing.DocumentURL()))
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: fetch inline document")
		}
		contexts, warnings, err = xbrl.ResolveInlineContexts(bytes.NewReader(docs.primary))
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: resolve inline contexts")
		}
	}
	result.Contexts = len(contexts)
	result.ContextWarnings = len(warnings)
	for _, w := range warnings {
		log.Warn("pipeline: context skipped", zap.String("context", w.ContextID), zap.String("reason", w.Reason))
	}

	facts, err := xbrl.ExtractFacts(bytes.NewReader(docs.instance), contexts, p.cfg.EDGAR.Taxonomy, norm)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: extract facts")
	}
	for _, fs := range facts {
		result.Facts += len(fs)
	}

	selected := xbrl.SelectLatest(contexts)
	result.SelectedContexts = len(selected)
	if len(selected) == 0 {
		log.Warn("pipeline: no latest-period contexts selected")
	}

	hierarchy, err := xbrl.BuildHierarchy(bytes.NewReader(docs.presentation), facts, selected, norm)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build hierarchy")
	}
	result.Sections = len(hierarchy)

	// Definition-linkbase cross-check: role dates should bracket the
	// selected period.
	if defDates, defErr := xbrl.ScanDefinitionDates(bytes.NewReader(docs.definition)); defErr != nil {
		log.Warn("pipeline: definition date scan failed", zap.Error(defErr))
	} else if defDates != nil {
		log.Info("pipeline: definition dates",
			zap.Strings("instants", defDates.Instants),
			zap.Int("durations", len(defDates.Durations)),
		)
	}

	p.saveArtifacts(ctx, run.ID, contexts, facts, hierarchy, log)

	// Translation.
	setStatus(model.RunStatusTranslating)

	rpt, stats, err := p.translator.Translate(ctx, hierarchy)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: translate")
	}
	rpt.Ticker = run.Ticker
	rpt.CIK = run.CIK
	rpt.Form = run.Form
	rpt.Accession = filing.AccessionNumber
	rpt.FiledAt = filing.FilingDate
	result.TranslatedTags = stats.TranslatedTags
	result.TotalTokens = int(stats.Usage.InputTokens + stats.Usage.OutputTokens)
	result.TotalCost = stats.Usage.EstimateCost(p.cfg.Anthropic.HaikuModel)

	// Rendering.
	setStatus(model.RunStatusRendering)

	filtered := report.Filter(rpt, report.Options{
		MinImportance:  p.cfg.Report.MinImportance,
		StatementsOnly: p.cfg.Report.StatementsOnly,
	})

	base := filepath.Join(p.cfg.Report.OutputDir, run.Ticker+"_"+p.cfg.EDGAR.Form)
	jsonPath := base + ".json"
	if err := report.WriteJSON(filtered, jsonPath); err != nil {
		return nil, err
	}
	if err := report.WriteHTML(filtered, base+".html"); err != nil {
		return nil, err
	}
	if err := report.WriteXLSX(filtered, base+".xlsx"); err != nil {
		return nil, err
	}
	result.ReportPath = jsonPath

	if data, encErr := report.EncodeJSON(filtered); encErr == nil {
		p.saveArtifact(ctx, run.ID, store.ArtifactReportJSON, data, log)
	}
	var htmlBuf bytes.Buffer
	if err := report.RenderHTML(&htmlBuf, filtered); err == nil {
		p.saveArtifact(ctx, run.ID, store.ArtifactReportHTML, htmlBuf.Bytes(), log)
	}

	return result, nil
}

// download fetches the instance, presentation, and definition documents
// concurrently.
func (p *Pipeline) download(ctx context.Context, filing *edgar.Filing) (*filingDocs, error) {
	docURL := filing.DocumentURL()
	docs := &filingDocs{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := p.fetchDoc(gCtx, edgar.InstanceURL(docURL))
		docs.instance = data
		return eris.Wrap(err, "pipeline: fetch instance")
	})
	g.Go(func() error {
		data, err := p.fetchDoc(gCtx, edgar.PresentationURL(docURL))
		docs.presentation = data
		return eris.Wrap(err, "pipeline: fetch presentation linkbase")
	})
	g.Go(func() error {
		data, err := p.fetchDoc(gCtx, edgar.DefinitionURL(docURL))
		docs.definition = data
		return eris.Wrap(err, "pipeline: fetch definition linkbase")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (p *Pipeline) fetchDoc(ctx context.Context, url string) ([]byte, error) {
	body, err := p.fetcher.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// saveArtifacts persists the parse products. Artifact failures are logged,
// not fatal: the run can still produce its report.
func (p *Pipeline) saveArtifacts(ctx context.Context, runID string, contexts map[string]xbrl.Context, facts map[string][]xbrl.Fact, hierarchy map[string][]*xbrl.PresentationNode, log *zap.Logger) {
	if data, err := json.Marshal(contexts); err == nil {
		p.saveArtifact(ctx, runID, store.ArtifactContexts, data, log)
	}
	if data, err := json.Marshal(facts); err == nil {
		p.saveArtifact(ctx, runID, store.ArtifactFacts, data, log)
	}
	if data, err := json.Marshal(hierarchy); err == nil {
		p.saveArtifact(ctx, runID, store.ArtifactHierarchy, data, log)
	}
}

func (p *Pipeline) saveArtifact(ctx context.Context, runID, kind string, data []byte, log *zap.Logger) {
	if err := p.store.SaveArtifact(ctx, runID, kind, data); err != nil {
		log.Warn("pipeline: failed to save artifact", zap.String("kind", kind), zap.Error(err))
	}
}

// customPrefix guesses the filer extension taxonomy prefix from the ticker
// (e.g. AAPL instance documents qualify extension concepts with "aapl").
func customPrefix(ticker string) string {
	return strings.ToLower(ticker)
}
