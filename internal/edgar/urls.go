package edgar

import (
	"fmt"
	"strings"
)

// DocumentURL builds the archive URL of a filing's primary document. The
// archives path uses the unpadded CIK and the accession number without
// dashes.
func (f *Filing) DocumentURL() string {
	cik := strings.TrimLeft(f.CIK, "0")
	accession := strings.ReplaceAll(f.AccessionNumber, "-", "")
	return fmt.Sprintf("%s/%s/%s/%s", archivesBaseURL, cik, accession, f.PrimaryDoc)
}

// InstanceURL derives the raw XBRL instance document URL from the primary
// document URL: the inline viewer prefix is stripped and the .htm rendition
// maps to its _htm.xml sibling.
func InstanceURL(docURL string) string {
	return replaceDocSuffix(docURL, "_htm.xml")
}

// PresentationURL derives the presentation linkbase URL (_pre.xml sibling).
func PresentationURL(docURL string) string {
	return replaceDocSuffix(docURL, "_pre.xml")
}

// DefinitionURL derives the definition linkbase URL (_def.xml sibling).
func DefinitionURL(docURL string) string {
	return replaceDocSuffix(docURL, "_def.xml")
}

// InlineViewerStripped removes the iXBRL viewer wrapper (ix?doc=) so the
// URL points at the raw document.
func InlineViewerStripped(docURL string) string {
	if i := strings.Index(docURL, "ix?doc="); i >= 0 {
		return "https://www.sec.gov" + docURL[i+len("ix?doc="):]
	}
	return docURL
}

func replaceDocSuffix(docURL, suffix string) string {
	docURL = InlineViewerStripped(docURL)
	if strings.HasSuffix(docURL, ".htm") {
		return strings.TrimSuffix(docURL, ".htm") + suffix
	}
	if strings.HasSuffix(docURL, ".html") {
		return strings.TrimSuffix(docURL, ".html") + suffix
	}
	return docURL
}
