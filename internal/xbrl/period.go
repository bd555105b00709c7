package xbrl

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Quarter selection heuristics. These values are load-bearing business
// logic, not tuning knobs: the [85,93] band tolerates fiscal calendars
// whose quarters are not exactly 91 days, the recurrence floor separates
// the filing's primary period (tagged on many facts) from one-off
// durations, and the 10-day extension absorbs end-date drift between
// restated labels for the same quarter.
const (
	quarterMinDays      = 85
	quarterMaxDays      = 93
	recurrenceFloor     = 10
	windowExtensionDays = 10
)

// SelectLatest identifies the contexts representing the filing's primary
// current quarter and its tightly related comparison periods and instants.
// Returns an empty set when no quarter-length duration qualifies, which is
// a normal "no current-period data" outcome. Deterministic for a given
// context map regardless of iteration order.
func SelectLatest(contexts map[string]Context) map[string]bool {
	log := zap.L()

	var durations, instants []Context
	for _, ctx := range contexts {
		switch ctx.Kind {
		case PeriodDuration:
			durations = append(durations, ctx)
		case PeriodInstant:
			instants = append(instants, ctx)
		}
	}

	// Quarter-length candidates.
	var candidates []Context
	for _, d := range durations {
		days := int(d.EndDate.Sub(d.StartDate).Hours() / 24)
		if days >= quarterMinDays && days <= quarterMaxDays {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		log.Info("no quarter-length durations found")
		return map[string]bool{}
	}

	baseline, ok := baselineContext(candidates)
	if !ok {
		return map[string]bool{}
	}

	windowStart := baseline.StartDate
	windowEnd := baseline.EndDate.AddDate(0, 0, windowExtensionDays)

	selected := map[string]bool{baseline.ID: true}

	for _, d := range durations {
		if inWindow(d.StartDate, windowStart, windowEnd) || inWindow(d.EndDate, windowStart, windowEnd) {
			selected[d.ID] = true
		}
	}
	for _, inst := range instants {
		if inWindow(inst.Date, windowStart, windowEnd) {
			selected[inst.ID] = true
		}
	}

	log.Info("selected reporting window",
		zap.String("baseline_context", baseline.ID),
		zap.String("window_start", windowStart.Format(DateFormat)),
		zap.String("window_end", windowEnd.Format(DateFormat)),
		zap.Int("selected", len(selected)),
	)

	return selected
}

// baselineContext picks the primary-quarter context: the latest start date
// shared by at least recurrenceFloor candidates, then the latest end date
// among candidates with that start. When no start date recurs enough, falls
// back to the single candidate with the latest end date. Ties break to the
// lexicographically smallest context id.
func baselineContext(candidates []Context) (Context, bool) {
	startCounts := make(map[time.Time]int)
	for _, c := range candidates {
		startCounts[c.StartDate]++
	}

	var baselineStart time.Time
	recurring := false
	for start, count := range startCounts {
		if count >= recurrenceFloor && start.After(baselineStart) {
			baselineStart = start
			recurring = true
		}
	}

	if !recurring {
		zap.L().Info("no start date meets recurrence floor, falling back to latest end date",
			zap.Int("floor", recurrenceFloor),
		)
		return latestEnd(candidates)
	}

	var withStart []Context
	for _, c := range candidates {
		if c.StartDate.Equal(baselineStart) {
			withStart = append(withStart, c)
		}
	}
	return latestEnd(withStart)
}

// latestEnd returns the context with the latest end date, breaking ties by
// the lexicographically smallest id.
func latestEnd(cs []Context) (Context, bool) {
	if len(cs) == 0 {
		return Context{}, false
	}
	sorted := make([]Context, len(cs))
	copy(sorted, cs)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].EndDate.Equal(sorted[j].EndDate) {
			return sorted[i].EndDate.After(sorted[j].EndDate)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0], true
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
