package xbrl

import (
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// newDecoder builds an XML decoder that handles the non-UTF-8 charsets that
// occasionally show up in EDGAR documents.
func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xbrl: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return dec
}

// decodeElements walks the document and decodes every element whose local
// name matches elementName into T, invoking fn for each. Namespace prefixes
// are ignored so xbrli:context and context parse identically. Returns an
// error only if the document itself is unreadable; fn may return an error
// to abort early.
func decodeElements[T any](r io.Reader, elementName string, fn func(T) error) error {
	dec := newDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "xbrl: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != elementName {
			continue
		}

		var item T
		if err := dec.DecodeElement(&item, &se); err != nil {
			return eris.Wrap(err, "xbrl: decode element")
		}
		if err := fn(item); err != nil {
			return err
		}
	}
}
