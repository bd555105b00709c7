package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimi-labs/kensho-cli/internal/config"
	"github.com/dimi-labs/kensho-cli/internal/edgar"
	"github.com/dimi-labs/kensho-cli/internal/model"
	"github.com/dimi-labs/kensho-cli/internal/store"
	"github.com/dimi-labs/kensho-cli/internal/translate"
)

const tickersJSON = `{"0":{"cik_str":320193,"ticker":"AAPL","title":"Apple Inc."}}`

const submissionsJSON = `{
  "cik": "320193",
  "name": "Apple Inc.",
  "filings": {
    "recent": {
      "accessionNumber": ["0000320193-24-000081"],
      "filingDate": ["2024-08-02"],
      "form": ["10-Q"],
      "primaryDocument": ["aapl-20240629.htm"],
      "isInlineXBRL": [1]
    }
  }
}`

const instanceXML = `<?xml version="1.0" encoding="utf-8"?>
<xbrl xmlns="http://www.xbrl.org/2003/instance"
      xmlns:us-gaap="http://fasb.org/us-gaap/2024">
  <context id="c-1">
    <entity>
      <identifier scheme="http://www.sec.gov/CIK">0000320193</identifier>
    </entity>
    <period>
      <startDate>2024-04-01</startDate>
      <endDate>2024-06-29</endDate>
    </period>
  </context>
  <context id="c-2">
    <entity>
      <identifier scheme="http://www.sec.gov/CIK">0000320193</identifier>
    </entity>
    <period>
      <instant>2024-06-29</instant>
    </period>
  </context>
  <us-gaap:Revenues contextRef="c-1" unitRef="usd" decimals="-6">85777000000</us-gaap:Revenues>
  <us-gaap:NetIncomeLoss contextRef="c-1" unitRef="usd" decimals="-6">21448000000</us-gaap:NetIncomeLoss>
</xbrl>`

const presentationXML = `<?xml version="1.0" encoding="utf-8"?>
<linkbase xmlns="http://www.xbrl.org/2003/linkbase" xmlns:xlink="http://www.w3.org/1999/xlink">
  <presentationLink xlink:role="http://www.apple.com/role/IncomeStatement">
    <loc xlink:href="aapl-20240629.xsd#us-gaap_IncomeStatementAbstract" xlink:label="loc_abstract"/>
    <loc xlink:href="aapl-20240629.xsd#us-gaap_Revenues" xlink:label="loc_revenues"/>
    <loc xlink:href="aapl-20240629.xsd#us-gaap_NetIncomeLoss" xlink:label="loc_net"/>
    <presentationArc xlink:from="loc_abstract" xlink:to="loc_revenues" order="1"/>
    <presentationArc xlink:from="loc_abstract" xlink:to="loc_net" order="2"/>
  </presentationLink>
</linkbase>`

const definitionXML = `<?xml version="1.0" encoding="utf-8"?>
<linkbase xmlns="http://www.xbrl.org/2003/linkbase" xmlns:xlink="http://www.w3.org/1999/xlink">
  <definitionLink xlink:role="http://www.apple.com/role/BalanceSheetAsOf20240629"/>
  <definitionLink xlink:role="http://www.apple.com/role/IncomeStatement20240401_To_20240629"/>
</linkbase>`

// stubFetcher serves canned payloads by URL suffix (documents) or substring
// (JSON APIs).
type stubFetcher struct {
	docs map[string]string // suffix -> body
	json map[string]string // substring -> body
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		docs: map[string]string{
			"_htm.xml": instanceXML,
			"_pre.xml": presentationXML,
			"_def.xml": definitionXML,
		},
		json: map[string]string{
			"company_tickers": tickersJSON,
			"submissions":     submissionsJSON,
		},
	}
}

func (s *stubFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	for suffix, body := range s.docs {
		if strings.HasSuffix(url, suffix) {
			return io.NopCloser(bytes.NewReader([]byte(body))), nil
		}
	}
	return nil, eris.Errorf("stub: no document for %s", url)
}

func (s *stubFetcher) DownloadToFile(_ context.Context, url, _ string) (int64, error) {
	return 0, eris.Errorf("stub: DownloadToFile not supported (%s)", url)
}

func (s *stubFetcher) DownloadJSON(_ context.Context, url string, v any) error {
	for sub, body := range s.json {
		if strings.Contains(url, sub) {
			return json.Unmarshal([]byte(body), v)
		}
	}
	return eris.Errorf("stub: no json for %s", url)
}

func newTestPipeline(t *testing.T, f *stubFetcher) (*Pipeline, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{}
	cfg.EDGAR.Form = "10-Q"
	cfg.EDGAR.Taxonomy = "us-gaap"
	cfg.Report.OutputDir = t.TempDir()
	cfg.Anthropic.HaikuModel = "claude-haiku-4-5-20251001"

	return New(cfg, st, f, edgar.NewClient(f), translate.Passthrough{}), st
}

func TestRunEndToEnd(t *testing.T) {
	p, st := newTestPipeline(t, newStubFetcher())
	ctx := context.Background()

	run, err := p.Run(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, "AAPL", run.Ticker)
	assert.Equal(t, "0000320193", run.CIK)

	require.NotNil(t, run.Result)
	assert.Equal(t, 2, run.Result.Contexts)
	assert.Equal(t, 2, run.Result.Facts)
	assert.Equal(t, 1, run.Result.Sections)
	assert.NotEmpty(t, run.Result.ReportPath)

	// All three report renditions on disk.
	for _, ext := range []string{".json", ".html", ".xlsx"} {
		path := strings.TrimSuffix(run.Result.ReportPath, ".json") + ext
		_, err := os.Stat(path)
		assert.NoError(t, err, "missing %s", filepath.Base(path))
	}

	// Stored run reflects the filing and completion.
	stored, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.RunStatusComplete, stored.Status)
	assert.Equal(t, "0000320193-24-000081", stored.Accession)
	assert.Equal(t, "2024-08-02", stored.FiledAt)

	// Artifacts persisted for downstream commands.
	for _, kind := range []string{
		store.ArtifactContexts,
		store.ArtifactFacts,
		store.ArtifactHierarchy,
		store.ArtifactReportJSON,
		store.ArtifactReportHTML,
	} {
		data, err := st.GetArtifact(ctx, run.ID, kind)
		require.NoError(t, err)
		assert.NotEmpty(t, data, "artifact %s", kind)
	}

	// Passthrough still maps standard statement names to Korean.
	var rpt model.Report
	reportData, err := st.GetArtifact(ctx, run.ID, store.ArtifactReportJSON)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(reportData, &rpt))
	require.Len(t, rpt.Sections, 1)
	assert.Equal(t, "Income Statement", rpt.Sections[0].Name)
	assert.Equal(t, "포괄손익계산서", rpt.Sections[0].KoreanName)
}

func TestRunUnknownTicker(t *testing.T) {
	p, _ := newTestPipeline(t, newStubFetcher())

	run, err := p.Run(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.Nil(t, run, "no run is created before the ticker resolves")
	assert.Contains(t, err.Error(), "not found")
}

func TestRunDownloadFailureRecorded(t *testing.T) {
	f := newStubFetcher()
	delete(f.docs, "_pre.xml")
	p, st := newTestPipeline(t, f)
	ctx := context.Background()

	run, err := p.Run(ctx, "AAPL")
	require.Error(t, err)
	require.NotNil(t, run, "run is created before the download starts")

	stored, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.RunStatusFailed, stored.Status)
	require.NotNil(t, stored.Result)
	assert.Contains(t, stored.Result.Error, "presentation")
}
