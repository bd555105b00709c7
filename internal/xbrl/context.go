package xbrl

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DateFormat is the calendar-date layout used throughout XBRL instance
// documents.
const DateFormat = "2006-01-02"

// PeriodKind tags a Context as either a point-in-time balance or a
// time-span flow.
type PeriodKind string

const (
	PeriodInstant  PeriodKind = "instant"
	PeriodDuration PeriodKind = "period"
)

// Dimension is one (axis, member) pair from an explicit-member segment,
// naming the breakdown slice a fact belongs to.
type Dimension struct {
	Axis   string `json:"axis"`
	Member string `json:"member"`
}

// Context is a resolved XBRL context: the reporting period and optional
// dimensional breakdown that tagged facts reference by id. A context is
// either Instant (Date set) or Duration (StartDate/EndDate set), never both.
// Immutable once resolved.
type Context struct {
	ID         string
	Kind       PeriodKind
	Date       time.Time // instant only
	StartDate  time.Time // duration only
	EndDate    time.Time // duration only
	Dimensions []Dimension
}

// contextJSON is the persisted exchange shape for a context
// (context_data.json): {"type": "instant", "date": ...} or
// {"type": "period", "start_date": ..., "end_date": ...}.
type contextJSON struct {
	Type       string      `json:"type"`
	Date       string      `json:"date,omitempty"`
	StartDate  string      `json:"start_date,omitempty"`
	EndDate    string      `json:"end_date,omitempty"`
	Dimensions []Dimension `json:"dimensions,omitempty"`
}

// MarshalJSON serializes the context in the exchange format consumed by the
// period selector and report generators.
func (c Context) MarshalJSON() ([]byte, error) {
	out := contextJSON{Type: string(c.Kind), Dimensions: c.Dimensions}
	if c.Kind == PeriodInstant {
		out.Date = c.Date.Format(DateFormat)
	} else {
		out.StartDate = c.StartDate.Format(DateFormat)
		out.EndDate = c.EndDate.Format(DateFormat)
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the exchange format back into a Context. The id is
// carried by the enclosing map key, not the value.
func (c *Context) UnmarshalJSON(data []byte) error {
	var in contextJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return eris.Wrap(err, "xbrl: unmarshal context")
	}

	c.Kind = PeriodKind(in.Type)
	c.Dimensions = in.Dimensions

	var err error
	switch c.Kind {
	case PeriodInstant:
		c.Date, err = time.Parse(DateFormat, in.Date)
	case PeriodDuration:
		if c.StartDate, err = time.Parse(DateFormat, in.StartDate); err == nil {
			c.EndDate, err = time.Parse(DateFormat, in.EndDate)
		}
	default:
		return eris.Errorf("xbrl: unknown context type %q", in.Type)
	}
	return eris.Wrap(err, "xbrl: parse context date")
}

// Warning records a per-item malformation that was recovered from rather
// than aborting the document.
type Warning struct {
	ContextID string
	Reason    string
}

// xmlContext mirrors the raw <context> element shape.
type xmlContext struct {
	ID     string `xml:"id,attr"`
	Period struct {
		Instant   string `xml:"instant"`
		StartDate string `xml:"startDate"`
		EndDate   string `xml:"endDate"`
	} `xml:"period"`
	Entity struct {
		Segment xmlSegment `xml:"segment"`
	} `xml:"entity"`
	Scenario xmlSegment `xml:"scenario"`
}

type xmlSegment struct {
	Members []struct {
		Dimension string `xml:"dimension,attr"`
		Value     string `xml:",chardata"`
	} `xml:"explicitMember"`
}

// ResolveContexts parses every <context> element in the instance document
// into a context map. A malformed context (missing period, bad date,
// end before start) is dropped with a warning; only an unreadable document
// is a hard error.
func ResolveContexts(r io.Reader, norm *Normalizer) (map[string]Context, []Warning, error) {
	if norm == nil {
		norm = defaultNormalizer
	}
	log := zap.L()

	contexts := make(map[string]Context)
	var warnings []Warning

	err := decodeElements(r, "context", func(raw xmlContext) error {
		ctx, reason := resolveContext(raw, norm)
		if reason != "" {
			warnings = append(warnings, Warning{ContextID: raw.ID, Reason: reason})
			log.Warn("skipping malformed context",
				zap.String("context_id", raw.ID),
				zap.String("reason", reason),
			)
			return nil
		}
		contexts[ctx.ID] = ctx
		return nil
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "xbrl: resolve contexts")
	}

	return contexts, warnings, nil
}

func resolveContext(raw xmlContext, norm *Normalizer) (Context, string) {
	if raw.ID == "" {
		return Context{}, "missing context id"
	}

	ctx := Context{ID: raw.ID}

	switch {
	case raw.Period.Instant != "":
		date, err := time.Parse(DateFormat, trim(raw.Period.Instant))
		if err != nil {
			return Context{}, "unparseable instant date"
		}
		ctx.Kind = PeriodInstant
		ctx.Date = date

	case raw.Period.StartDate != "" && raw.Period.EndDate != "":
		start, err := time.Parse(DateFormat, trim(raw.Period.StartDate))
		if err != nil {
			return Context{}, "unparseable start date"
		}
		end, err := time.Parse(DateFormat, trim(raw.Period.EndDate))
		if err != nil {
			return Context{}, "unparseable end date"
		}
		if end.Before(start) {
			return Context{}, "end date before start date"
		}
		ctx.Kind = PeriodDuration
		ctx.StartDate = start
		ctx.EndDate = end

	default:
		return Context{}, "missing period"
	}

	// Explicit members may sit under entity/segment or under scenario.
	for _, seg := range []xmlSegment{raw.Entity.Segment, raw.Scenario} {
		for _, m := range seg.Members {
			ctx.Dimensions = append(ctx.Dimensions, Dimension{
				Axis:   norm.Normalize(trim(m.Dimension)),
				Member: norm.Normalize(trim(m.Value)),
			})
		}
	}

	return ctx, ""
}

// SortedContextIDs returns the context ids in lexicographic order, for
// deterministic iteration and serialization.
func SortedContextIDs(contexts map[string]Context) []string {
	ids := make([]string, 0, len(contexts))
	for id := range contexts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
