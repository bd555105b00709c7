package main

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dimi-labs/kensho-cli/internal/edgar"
	"github.com/dimi-labs/kensho-cli/internal/fetcher"
	"github.com/dimi-labs/kensho-cli/internal/pipeline"
	"github.com/dimi-labs/kensho-cli/internal/store"
	"github.com/dimi-labs/kensho-cli/internal/translate"
	anthropicpkg "github.com/dimi-labs/kensho-cli/pkg/anthropic"
)

// pipelineEnv holds the initialized store, clients, and pipeline shared by
// the run/serve commands.
type pipelineEnv struct {
	Store      store.Store
	Fetcher    fetcher.Fetcher
	EDGAR      *edgar.Client
	Translator translate.Translator
	Pipeline   *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return store.NewSQLite(cfg.Store.DatabaseURL)
	}
}

// newFetcher builds the rate-limited EDGAR fetcher from config.
func newFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.EDGAR.UserAgent,
		Timeout:    time.Duration(cfg.EDGAR.TimeoutSecs) * time.Second,
		MaxRetries: cfg.EDGAR.MaxRetries,
	})
}

// newTranslator picks the LLM-backed translator, or the passthrough when
// translation is disabled.
func newTranslator(st store.Store) translate.Translator {
	if cfg.Translate.Disabled {
		zap.L().Info("translation disabled, using passthrough")
		return translate.Passthrough{}
	}
	return translate.New(anthropicpkg.NewClient(cfg.Anthropic.Key), st, translate.Options{
		Model:     cfg.Anthropic.HaikuModel,
		BatchSize: cfg.Translate.BatchSize,
		CacheTTL:  time.Duration(cfg.Translate.CacheTTLDays) * 24 * time.Hour,
	})
}

// initPipeline sets up the store and all collaborators and builds the
// Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("run"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	f := newFetcher()
	ec := edgar.NewClient(f)
	tr := newTranslator(st)

	return &pipelineEnv{
		Store:      st,
		Fetcher:    f,
		EDGAR:      ec,
		Translator: tr,
		Pipeline:   pipeline.New(cfg, st, f, ec, tr),
	}, nil
}

// locateFiling resolves a ticker to its latest filing of the configured form.
func locateFiling(ctx context.Context, ec *edgar.Client, ticker string) (*edgar.Filing, error) {
	cik, err := ec.ResolveCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return ec.LatestFiling(ctx, cik, cfg.EDGAR.Form)
}

// fetchDoc downloads one filing document into memory.
func fetchDoc(ctx context.Context, f fetcher.Fetcher, url string) ([]byte, error) {
	body, err := f.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// fetchFilingDocs downloads the instance, presentation, and definition
// documents of a filing concurrently.
func fetchFilingDocs(ctx context.Context, f fetcher.Fetcher, filing *edgar.Filing) (instance, presentation, definition []byte, err error) {
	docURL := filing.DocumentURL()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := fetchDoc(gCtx, f, edgar.InstanceURL(docURL))
		instance = data
		return eris.Wrap(err, "fetch instance")
	})
	g.Go(func() error {
		data, err := fetchDoc(gCtx, f, edgar.PresentationURL(docURL))
		presentation = data
		return eris.Wrap(err, "fetch presentation linkbase")
	})
	g.Go(func() error {
		data, err := fetchDoc(gCtx, f, edgar.DefinitionURL(docURL))
		definition = data
		return eris.Wrap(err, "fetch definition linkbase")
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return instance, presentation, definition, nil
}
