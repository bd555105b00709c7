// Package translate renders the presentation hierarchy into Korean: section
// names, concept names with investor-relevance scores, and dimension member
// names, with a store-backed cache in front of the LLM.
package translate

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dimi-labs/kensho-cli/internal/model"
	"github.com/dimi-labs/kensho-cli/internal/store"
	"github.com/dimi-labs/kensho-cli/internal/xbrl"
	"github.com/dimi-labs/kensho-cli/pkg/anthropic"
)

// Cache kinds in the translations table.
const (
	kindTag     = "tag"
	kindMember  = "member"
	kindSection = "section"
)

const defaultBatchSize = 40

// Stats summarizes one translation pass.
type Stats struct {
	TranslatedTags int
	CacheHits      int
	Usage          anthropic.TokenUsage
}

// Translator turns a presentation hierarchy into a Korean report.
type Translator interface {
	Translate(ctx context.Context, hierarchy map[string][]*xbrl.PresentationNode) (*model.Report, *Stats, error)
}

// Options configures an LLMTranslator.
type Options struct {
	Model     string
	BatchSize int
	CacheTTL  time.Duration
}

// LLMTranslator translates via pkg/anthropic with a translation cache in
// the store. Safe for sequential use within a run; not safe concurrently.
type LLMTranslator struct {
	client    anthropic.Client
	store     store.Store
	model     string
	batchSize int
	cacheTTL  time.Duration
	stats     Stats
}

// New creates an LLMTranslator.
func New(client anthropic.Client, st store.Store, opts Options) *LLMTranslator {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 90 * 24 * time.Hour
	}
	return &LLMTranslator{
		client:    client,
		store:     st,
		model:     opts.Model,
		batchSize: batchSize,
		cacheTTL:  cacheTTL,
	}
}

// flatItem is one translatable concept pulled out of the hierarchy.
type flatItem struct {
	section string
	concept string
	facts   []xbrl.Fact
}

// Translate flattens the hierarchy, translates sections, tags, and members
// (cache first, LLM for the remainder), and assembles the report.
func (t *LLMTranslator) Translate(ctx context.Context, hierarchy map[string][]*xbrl.PresentationNode) (*model.Report, *Stats, error) {
	t.stats = Stats{}

	items := flatten(hierarchy)
	if len(items) == 0 {
		zap.L().Warn("translate: nothing to translate")
		return &model.Report{Sections: []model.Section{}}, &t.stats, nil
	}

	sectionNames := make([]string, 0, len(hierarchy))
	for name := range hierarchy {
		sectionNames = append(sectionNames, name)
	}
	sort.Strings(sectionNames)

	sectionKo, err := t.translateSections(ctx, sectionNames)
	if err != nil {
		return nil, nil, err
	}

	tags := uniqueConcepts(items)
	tagKo, err := t.translateTags(ctx, tags)
	if err != nil {
		return nil, nil, err
	}

	members := uniqueMembers(items)
	memberKo, err := t.translateMembers(ctx, members)
	if err != nil {
		return nil, nil, err
	}

	report := assemble(sectionNames, items, sectionKo, tagKo, memberKo)
	t.stats.TranslatedTags = len(tags)

	zap.L().Info("translate: complete",
		zap.Int("sections", len(report.Sections)),
		zap.Int("tags", len(tags)),
		zap.Int("members", len(members)),
		zap.Int("cache_hits", t.stats.CacheHits),
		zap.Int64("input_tokens", t.stats.Usage.InputTokens),
		zap.Int64("output_tokens", t.stats.Usage.OutputTokens),
	)
	return report, &t.stats, nil
}

// flatten walks every section tree depth-first and collects concepts that
// carry data. Abstract concepts structure the statement but hold no values.
func flatten(hierarchy map[string][]*xbrl.PresentationNode) []flatItem {
	sections := make([]string, 0, len(hierarchy))
	for name := range hierarchy {
		sections = append(sections, name)
	}
	sort.Strings(sections)

	var items []flatItem
	for _, section := range sections {
		for _, root := range hierarchy[section] {
			walk(root, section, &items)
		}
	}
	return items
}

func walk(node *xbrl.PresentationNode, section string, out *[]flatItem) {
	if node == nil {
		return
	}
	if len(node.Facts) > 0 && !isAbstract(node.Concept) {
		*out = append(*out, flatItem{section: section, concept: node.Concept, facts: node.Facts})
	}
	for _, child := range node.Children {
		walk(child, section, out)
	}
}

func isAbstract(concept string) bool {
	return strings.Contains(strings.ToLower(concept), "abstract")
}

func uniqueConcepts(items []flatItem) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if !seen[it.concept] {
			seen[it.concept] = true
			out = append(out, it.concept)
		}
	}
	return out
}

func uniqueMembers(items []flatItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		for _, f := range it.facts {
			for _, d := range f.Dimensions {
				if d.Member != "" && !seen[d.Member] {
					seen[d.Member] = true
					out = append(out, d.Member)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

// assemble builds the report in section order, preserving item order.
func assemble(sectionNames []string, items []flatItem, sectionKo map[string]string, tagKo map[string]model.TagTranslation, memberKo map[string]string) *model.Report {
	bySection := make(map[string][]model.Item)
	for _, it := range items {
		tr, ok := tagKo[it.concept]
		if !ok {
			tr = model.TagTranslation{KoreanName: it.concept, Importance: 1}
		}
		item := model.Item{
			Concept:     it.concept,
			Translation: tr,
			Data:        toDataPoints(it.facts, memberKo),
		}
		bySection[it.section] = append(bySection[it.section], item)
	}

	report := &model.Report{GeneratedAt: time.Now().UTC()}
	for _, name := range sectionNames {
		secItems := bySection[name]
		if len(secItems) == 0 {
			continue
		}
		ko, ok := sectionKo[name]
		if !ok {
			ko = name
		}
		report.Sections = append(report.Sections, model.Section{
			Name:       name,
			KoreanName: ko,
			Items:      secItems,
		})
	}
	return report
}

func toDataPoints(facts []xbrl.Fact, memberKo map[string]string) []model.DataPoint {
	points := make([]model.DataPoint, 0, len(facts))
	for _, f := range facts {
		dp := model.DataPoint{
			Value:        f.RawValue,
			DisplayValue: f.DisplayValue,
			Unit:         f.Unit,
			ContextID:    f.ContextID,
		}
		if f.Period != nil {
			switch f.Period.Kind {
			case xbrl.PeriodInstant:
				dp.Date = f.Period.Date.Format("2006-01-02")
			case xbrl.PeriodDuration:
				dp.StartDate = f.Period.StartDate.Format("2006-01-02")
				dp.EndDate = f.Period.EndDate.Format("2006-01-02")
			}
		}
		for _, d := range f.Dimensions {
			dp.Members = append(dp.Members, d.Member)
			if ko, ok := memberKo[d.Member]; ok {
				dp.MembersKo = append(dp.MembersKo, ko)
			} else {
				dp.MembersKo = append(dp.MembersKo, d.Member)
			}
		}
		points = append(points, dp)
	}
	return points
}

// cacheKey normalizes a translation cache key.
func cacheKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// lookupCached splits keys into cached translations and a remainder.
func (t *LLMTranslator) lookupCached(ctx context.Context, kind string, keys []string) (map[string][]byte, []string, error) {
	cached := make(map[string][]byte)
	var misses []string
	for _, k := range keys {
		data, err := t.store.GetTranslation(ctx, kind, cacheKey(k))
		if err != nil {
			return nil, nil, err
		}
		if data != nil {
			cached[k] = data
			t.stats.CacheHits++
		} else {
			misses = append(misses, k)
		}
	}
	return cached, misses, nil
}

func (t *LLMTranslator) cachePut(ctx context.Context, kind string, entries map[string][]byte) {
	if len(entries) == 0 {
		return
	}
	batch := make([]store.Translation, 0, len(entries))
	for k, data := range entries {
		batch = append(batch, store.Translation{Kind: kind, Key: cacheKey(k), Data: data})
	}
	if err := t.store.SetTranslations(ctx, batch, t.cacheTTL); err != nil {
		zap.L().Warn("translate: cache write failed", zap.String("kind", kind), zap.Error(err))
	}
}

// translateSections resolves section names: the standard-statement table
// first, then the cache, then the LLM for the remainder.
func (t *LLMTranslator) translateSections(ctx context.Context, sections []string) (map[string]string, error) {
	result := make(map[string]string, len(sections))
	var unresolved []string
	for _, s := range sections {
		if ko, ok := standardSection(s); ok {
			result[s] = ko
		} else {
			unresolved = append(unresolved, s)
		}
	}

	cached, misses, err := t.lookupCached(ctx, kindSection, unresolved)
	if err != nil {
		return nil, err
	}
	for s, data := range cached {
		var ko string
		if err := json.Unmarshal(data, &ko); err == nil && ko != "" {
			result[s] = ko
		}
	}

	if len(misses) > 0 {
		translated, err := t.callSections(ctx, misses)
		if err != nil {
			return nil, err
		}
		newEntries := make(map[string][]byte, len(translated))
		for s, ko := range translated {
			result[s] = ko
			if data, err := json.Marshal(ko); err == nil {
				newEntries[s] = data
			}
		}
		t.cachePut(ctx, kindSection, newEntries)
	}

	for _, s := range sections {
		if _, ok := result[s]; !ok {
			result[s] = s
		}
	}
	return result, nil
}

// translateTags resolves concept translations through the cache and batches
// the remainder to the LLM.
func (t *LLMTranslator) translateTags(ctx context.Context, tags []string) (map[string]model.TagTranslation, error) {
	result := make(map[string]model.TagTranslation, len(tags))

	cached, misses, err := t.lookupCached(ctx, kindTag, tags)
	if err != nil {
		return nil, err
	}
	for tag, data := range cached {
		var tr model.TagTranslation
		if err := json.Unmarshal(data, &tr); err == nil && tr.KoreanName != "" {
			result[tag] = tr
		} else {
			misses = append(misses, tag)
		}
	}

	if len(misses) > 0 {
		translated, err := t.callTags(ctx, misses)
		if err != nil {
			return nil, err
		}
		newEntries := make(map[string][]byte, len(translated))
		for tag, tr := range translated {
			result[tag] = tr
			if data, err := json.Marshal(tr); err == nil {
				newEntries[tag] = data
			}
		}
		t.cachePut(ctx, kindTag, newEntries)

		// Tags the model skipped fall back to the raw concept name.
		for _, tag := range misses {
			if _, ok := result[tag]; !ok {
				result[tag] = model.TagTranslation{KoreanName: tag, Importance: 1}
			}
		}
	}
	return result, nil
}

// translateMembers resolves dimension member translations.
func (t *LLMTranslator) translateMembers(ctx context.Context, members []string) (map[string]string, error) {
	result := make(map[string]string, len(members))

	cached, misses, err := t.lookupCached(ctx, kindMember, members)
	if err != nil {
		return nil, err
	}
	for m, data := range cached {
		var ko string
		if err := json.Unmarshal(data, &ko); err == nil && ko != "" {
			result[m] = ko
		}
	}

	if len(misses) > 0 {
		translated, err := t.callMembers(ctx, misses)
		if err != nil {
			return nil, err
		}
		newEntries := make(map[string][]byte, len(translated))
		for m, ko := range translated {
			result[m] = ko
			if data, err := json.Marshal(ko); err == nil {
				newEntries[m] = data
			}
		}
		t.cachePut(ctx, kindMember, newEntries)
	}

	for _, m := range members {
		if _, ok := result[m]; !ok {
			result[m] = m
		}
	}
	return result, nil
}
