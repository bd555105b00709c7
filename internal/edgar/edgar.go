// Package edgar locates a company's filings on SEC EDGAR: ticker-to-CIK
// resolution, latest-filing discovery via the submissions API, and
// derivation of the XBRL document URLs for a filing.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dimi-labs/kensho-cli/internal/fetcher"
)

const (
	companyTickersURL = "https://www.sec.gov/files/company_tickers.json"
	submissionsURL    = "https://data.sec.gov/submissions/CIK%s.json"
	archivesBaseURL   = "https://www.sec.gov/Archives/edgar/data"
)

// Client resolves filings through the EDGAR public APIs.
type Client struct {
	fetcher fetcher.Fetcher
}

// NewClient creates an EDGAR client backed by the given fetcher.
func NewClient(f fetcher.Fetcher) *Client {
	return &Client{fetcher: f}
}

// Filing identifies one EDGAR filing and its primary document.
type Filing struct {
	CIK             string `json:"cik"`
	AccessionNumber string `json:"accession_number"`
	Form            string `json:"form"`
	FilingDate      string `json:"filing_date"`
	PrimaryDoc      string `json:"primary_document"`
	IsInlineXBRL    bool   `json:"is_inline_xbrl"`
}

// tickerEntry is one record of company_tickers.json, which maps arbitrary
// numeric keys to {cik_str, ticker, title} objects.
type tickerEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// submissionJSON is the subset of the submissions API response we consume.
type submissionJSON struct {
	CIK     json.Number `json:"cik"`
	Name    string      `json:"name"`
	Filings struct {
		Recent filingList `json:"recent"`
	} `json:"filings"`
}

// filingList holds the parallel arrays of the submissions API's recent
// filings block.
type filingList struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDoc      []string `json:"primaryDocument"`
	IsInlineXBRL    []int    `json:"isInlineXBRL"`
}

// ResolveCIK maps a ticker symbol to its zero-padded 10-digit CIK.
// Matching is case-insensitive.
func (c *Client) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", eris.New("edgar: empty ticker")
	}

	var entries map[string]tickerEntry
	if err := c.fetcher.DownloadJSON(ctx, companyTickersURL, &entries); err != nil {
		return "", eris.Wrap(err, "edgar: fetch company tickers")
	}

	for _, e := range entries {
		if strings.ToUpper(e.Ticker) == ticker {
			cik := PadCIK(e.CIK.String())
			zap.L().Info("resolved ticker",
				zap.String("ticker", ticker),
				zap.String("cik", cik),
				zap.String("company", e.Title),
			)
			return cik, nil
		}
	}

	return "", eris.Errorf("edgar: ticker %q not found", ticker)
}

// LatestFiling returns the most recent filing of the given form type
// (e.g. "10-Q"). The submissions API lists recent filings newest first, so
// the first match wins.
func (c *Client) LatestFiling(ctx context.Context, cik, form string) (*Filing, error) {
	cik = PadCIK(cik)

	var sub submissionJSON
	if err := c.fetcher.DownloadJSON(ctx, fmt.Sprintf(submissionsURL, cik), &sub); err != nil {
		return nil, eris.Wrapf(err, "edgar: fetch submissions for CIK %s", cik)
	}

	recent := sub.Filings.Recent
	for i, f := range recent.Form {
		if f != form {
			continue
		}
		filing := &Filing{
			CIK:             cik,
			AccessionNumber: safeIndex(recent.AccessionNumber, i),
			Form:            f,
			FilingDate:      safeIndex(recent.FilingDate, i),
			PrimaryDoc:      safeIndex(recent.PrimaryDoc, i),
			IsInlineXBRL:    safeIntIndex(recent.IsInlineXBRL, i) == 1,
		}
		if filing.AccessionNumber == "" || filing.PrimaryDoc == "" {
			continue
		}
		zap.L().Info("found latest filing",
			zap.String("form", form),
			zap.String("accession", filing.AccessionNumber),
			zap.String("filed", filing.FilingDate),
		)
		return filing, nil
	}

	return nil, eris.Errorf("edgar: no %s filing found for CIK %s", form, cik)
}

// PadCIK left-pads a CIK to the 10 digits EDGAR URLs expect.
func PadCIK(cik string) string {
	cik = strings.TrimLeft(strings.TrimSpace(cik), "0")
	return fmt.Sprintf("%010s", cik)
}

// safeIndex returns the string at index i, or empty string if out of bounds.
func safeIndex(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// safeIntIndex returns the int at index i, or 0 if out of bounds.
func safeIntIndex(s []int, i int) int {
	if i < len(s) {
		return s[i]
	}
	return 0
}
