package xbrl

import (
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ResolveInlineContexts recovers reporting contexts from an inline XBRL
// (iXBRL) HTML rendition. Filings occasionally ship without a standalone
// instance document; the contexts then live inside the hidden ix:header of
// the HTML filing. Emits the same map and warning shape as ResolveContexts
// so callers can treat the two sources interchangeably.
func ResolveInlineContexts(r io.Reader) (map[string]Context, []Warning, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, eris.Wrap(err, "xbrl: parse inline document")
	}
	log := zap.L()

	contexts := make(map[string]Context)
	var warnings []Warning

	// goquery lowercases tag names and flattens namespaces, so
	// xbrli:context appears as "xbrli\:context".
	doc.Find(`context, xbrli\:context`).Each(func(_ int, sel *goquery.Selection) {
		id, ok := sel.Attr("id")
		if !ok || id == "" {
			warnings = append(warnings, Warning{Reason: "inline context missing id"})
			return
		}
		if _, dup := contexts[id]; dup {
			return
		}

		ctx := Context{ID: id}

		if instant := firstText(sel, `instant, xbrli\:instant`); instant != "" {
			date, err := time.Parse(DateFormat, instant)
			if err != nil {
				warnings = append(warnings, Warning{ContextID: id, Reason: "unparseable instant date"})
				log.Warn("skipping inline context", zap.String("context_id", id), zap.Error(err))
				return
			}
			ctx.Kind = PeriodInstant
			ctx.Date = date
		} else {
			start := firstText(sel, `startdate, xbrli\:startdate`)
			end := firstText(sel, `enddate, xbrli\:enddate`)
			if start == "" || end == "" {
				warnings = append(warnings, Warning{ContextID: id, Reason: "inline context missing period"})
				return
			}
			startDate, err := time.Parse(DateFormat, start)
			if err != nil {
				warnings = append(warnings, Warning{ContextID: id, Reason: "unparseable start date"})
				return
			}
			endDate, err := time.Parse(DateFormat, end)
			if err != nil {
				warnings = append(warnings, Warning{ContextID: id, Reason: "unparseable end date"})
				return
			}
			if endDate.Before(startDate) {
				warnings = append(warnings, Warning{ContextID: id, Reason: "period end precedes start"})
				return
			}
			ctx.Kind = PeriodDuration
			ctx.StartDate = startDate
			ctx.EndDate = endDate
		}

		sel.Find(`explicitmember, xbrldi\:explicitmember`).Each(func(_ int, m *goquery.Selection) {
			axis, _ := m.Attr("dimension")
			member := strings.TrimSpace(m.Text())
			if axis != "" && member != "" {
				ctx.Dimensions = append(ctx.Dimensions, Dimension{Axis: axis, Member: member})
			}
		})

		contexts[id] = ctx
	})

	log.Info("resolved inline contexts",
		zap.Int("contexts", len(contexts)),
		zap.Int("warnings", len(warnings)),
	)

	return contexts, warnings, nil
}

// firstText returns the trimmed text of the first match under sel.
func firstText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(sel.Find(selector).First().Text())
}
