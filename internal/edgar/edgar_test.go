package edgar

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher serves canned payloads by URL.
type stubFetcher struct {
	payloads map[string]string
}

func (s *stubFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	body, ok := s.payloads[url]
	if !ok {
		return nil, eris.Errorf("stub: no payload for %s", url)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *stubFetcher) DownloadToFile(context.Context, string, string) (int64, error) {
	return 0, eris.New("stub: not implemented")
}

func (s *stubFetcher) DownloadJSON(ctx context.Context, url string, v any) error {
	body, err := s.Download(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

const tickersPayload = `{
  "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
  "1": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"}
}`

const submissionsPayload = `{
  "cik": 320193,
  "name": "Apple Inc.",
  "filings": {
    "recent": {
      "accessionNumber": ["0000320193-24-000081", "0000320193-24-000069", "0000320193-24-000055"],
      "filingDate": ["2024-08-02", "2024-07-15", "2024-05-03"],
      "form": ["10-Q", "8-K", "10-Q"],
      "primaryDocument": ["aapl-20240629.htm", "aapl-8k.htm", "aapl-20240330.htm"],
      "isInlineXBRL": [1, 0, 1]
    }
  }
}`

func newTestClient() *Client {
	return NewClient(&stubFetcher{payloads: map[string]string{
		companyTickersURL: tickersPayload,
		"https://data.sec.gov/submissions/CIK0000320193.json": submissionsPayload,
	}})
}

func TestResolveCIK(t *testing.T) {
	c := newTestClient()

	cik, err := c.ResolveCIK(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", cik)
}

func TestResolveCIKCaseInsensitive(t *testing.T) {
	c := newTestClient()

	cik, err := c.ResolveCIK(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", cik)
}

func TestResolveCIKNotFound(t *testing.T) {
	c := newTestClient()

	_, err := c.ResolveCIK(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestResolveCIKEmptyTicker(t *testing.T) {
	c := newTestClient()

	_, err := c.ResolveCIK(context.Background(), "  ")
	require.Error(t, err)
}

func TestLatestFiling(t *testing.T) {
	c := newTestClient()

	filing, err := c.LatestFiling(context.Background(), "320193", "10-Q")
	require.NoError(t, err)

	assert.Equal(t, "0000320193", filing.CIK)
	assert.Equal(t, "0000320193-24-000081", filing.AccessionNumber, "newest 10-Q wins, 8-K skipped")
	assert.Equal(t, "2024-08-02", filing.FilingDate)
	assert.Equal(t, "aapl-20240629.htm", filing.PrimaryDoc)
	assert.True(t, filing.IsInlineXBRL)
}

func TestLatestFilingNoMatch(t *testing.T) {
	c := newTestClient()

	_, err := c.LatestFiling(context.Background(), "320193", "10-K")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no 10-K filing")
}

func TestPadCIK(t *testing.T) {
	assert.Equal(t, "0000320193", PadCIK("320193"))
	assert.Equal(t, "0000320193", PadCIK("0000320193"))
	assert.Equal(t, "0000320193", PadCIK(" 320193 "))
}

func TestDocumentURL(t *testing.T) {
	f := &Filing{
		CIK:             "0000320193",
		AccessionNumber: "0000320193-24-000081",
		PrimaryDoc:      "aapl-20240629.htm",
	}
	assert.Equal(t,
		"https://www.sec.gov/Archives/edgar/data/320193/000032019324000081/aapl-20240629.htm",
		f.DocumentURL(),
	)
}

func TestDerivedURLs(t *testing.T) {
	doc := "https://www.sec.gov/Archives/edgar/data/320193/000032019324000081/aapl-20240629.htm"

	assert.Equal(t,
		"https://www.sec.gov/Archives/edgar/data/320193/000032019324000081/aapl-20240629_htm.xml",
		InstanceURL(doc),
	)
	assert.Equal(t,
		"https://www.sec.gov/Archives/edgar/data/320193/000032019324000081/aapl-20240629_pre.xml",
		PresentationURL(doc),
	)
	assert.Equal(t,
		"https://www.sec.gov/Archives/edgar/data/320193/000032019324000081/aapl-20240629_def.xml",
		DefinitionURL(doc),
	)
}

func TestInlineViewerStripped(t *testing.T) {
	wrapped := "https://www.sec.gov/ix?doc=/Archives/edgar/data/320193/000032019324000081/aapl-20240629.htm"
	assert.Equal(t,
		"https://www.sec.gov/Archives/edgar/data/320193/000032019324000081/aapl-20240629.htm",
		InlineViewerStripped(wrapped),
	)

	plain := "https://www.sec.gov/Archives/edgar/data/320193/000032019324000081/aapl-20240629.htm"
	assert.Equal(t, plain, InlineViewerStripped(plain))

	assert.Equal(t,
		"https://www.sec.gov/Archives/edgar/data/320193/000032019324000081/aapl-20240629_htm.xml",
		InstanceURL(wrapped),
		"viewer wrapper stripped before suffix mapping",
	)
}
