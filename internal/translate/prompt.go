package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dimi-labs/kensho-cli/internal/model"
	"github.com/dimi-labs/kensho-cli/pkg/anthropic"
)

// standardSections maps well-known statement names to their K-IFRS terms,
// bypassing the LLM entirely.
var standardSections = map[string]string{
	"balance sheet":                      "재무상태표",
	"balance sheets":                     "재무상태표",
	"statement of financial position":    "재무상태표",
	"income statement":                   "포괄손익계산서",
	"income statements":                  "포괄손익계산서",
	"statement of comprehensive income":  "포괄손익계산서",
	"statements of comprehensive income": "포괄손익계산서",
	"profit and loss":                    "포괄손익계산서",
	"statement of operations":            "포괄손익계산서",
	"statements of operations":           "포괄손익계산서",
	"cash flow":                          "현금흐름표",
	"cash flows":                         "현금흐름표",
	"statement of cash flows":            "현금흐름표",
	"statements of cash flows":           "현금흐름표",
}

// standardSection matches a section name against the standard statement
// table, exact key first then substring.
func standardSection(name string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if ko, ok := standardSections[lower]; ok {
		return ko, true
	}
	for eng, ko := range standardSections {
		if strings.Contains(lower, eng) {
			return ko, true
		}
	}
	return "", false
}

const (
	tagSystemPrompt     = "당신은 한국의 재무제표 및 회계 전문가입니다. US-GAAP 태그를 한국 K-IFRS 기준의 용어로 번역합니다. 모든 설명은 한국어로 제공해주세요."
	memberSystemPrompt  = "재무제표 세그먼트와 멤버 이름을 번역하는 전문가입니다. 한국 K-IFRS 기준의 용어를 사용합니다."
	sectionSystemPrompt = "재무제표 섹션 이름을 한국어로 번역하는 전문가입니다."

	maxResponseTokens = 8192
)

var jsonTagRe = regexp.MustCompile(`(?s)<json>\s*(.*?)\s*</json>`)

// decodeJSONResponse parses an LLM reply that is either bare JSON or JSON
// wrapped in <json>...</json> tags.
func decodeJSONResponse(text string, v any) error {
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}
	if m := jsonTagRe.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(m[1]), v); err == nil {
			return nil
		}
	}
	return eris.New("translate: response is not valid JSON")
}

func responseText(resp *anthropic.MessageResponse) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// tagTranslationPayload mirrors the expected tag-translation response.
type tagTranslationPayload struct {
	Translations []struct {
		Tag         string `json:"tag"`
		KoreanName  string `json:"korean_name"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Importance  int    `json:"importance"`
	} `json:"translations"`
}

func buildTagPrompt(tags []string) string {
	var b strings.Builder
	b.WriteString("다음 US-GAAP 태그들을 분석해주세요:\n\n")
	for i, tag := range tags {
		fmt.Fprintf(&b, "%d. %s\n", i+1, tag)
	}
	b.WriteString(`
각 태그에 대해 다음 정보를 제공해주세요:
1. tag: 원본 태그명 (입력된 순서대로)
2. korean_name: 이 항목의 공식적이고 전문적인 한글 명칭
3. description: 이 항목이 재무제표에서 가지는 의미와 중요성 (2-3줄)
4. category: 자산, 부채, 자본, 수익, 비용, 기타 중 하나
5. importance: 투자자에게 중요할수록 높은 1~5 점수

다음 규칙을 반드시 따라주세요:
1. 한국 K-IFRS 기준의 공식 용어를 우선적으로 사용
2. 공식 용어가 없는 경우, 한국 재무제표에서 일반적으로 사용되는 직관적인 용어로 번역
3. 번역시 다음 용어들은 일관되게 사용:
   - Revenue → 매출액
   - Cost of Revenue/Sales → 매출원가
   - Gross Profit → 매출총이익
   - Operating Income/Loss → 영업이익/손실
   - Net Income/Loss → 당기순이익/손실
4. 번역문은 간단명료하게, 불필요한 설명이나 수식어 제외

응답은 반드시 아래 JSON 형식으로 작성해주세요:

<json>
{"translations": [{"tag": "태그1", "korean_name": "한글명1", "description": "설명1", "category": "카테고리1", "importance": 5}]}
</json>`)
	return b.String()
}

// callTags translates concept tags in batches. A single batch goes through
// one synchronous request; multiple batches go through the Batches API with
// a primer request warming the cached system prompt.
func (t *LLMTranslator) callTags(ctx context.Context, tags []string) (map[string]model.TagTranslation, error) {
	var batches [][]string
	for i := 0; i < len(tags); i += t.batchSize {
		end := i + t.batchSize
		if end > len(tags) {
			end = len(tags)
		}
		batches = append(batches, tags[i:end])
	}

	result := make(map[string]model.TagTranslation, len(tags))
	collect := func(resp *anthropic.MessageResponse) {
		t.stats.Usage.Add(resp.Usage)

		var payload tagTranslationPayload
		if err := decodeJSONResponse(responseText(resp), &payload); err != nil {
			zap.L().Warn("translate: undecodable tag batch", zap.Error(err))
			return
		}
		for _, tr := range payload.Translations {
			if tr.Tag == "" || tr.KoreanName == "" {
				continue
			}
			importance := tr.Importance
			if importance < 1 || importance > 5 {
				importance = 1
			}
			result[tr.Tag] = model.TagTranslation{
				KoreanName:  tr.KoreanName,
				Description: tr.Description,
				Category:    tr.Category,
				Importance:  importance,
			}
		}
	}

	if len(batches) == 1 {
		resp, err := t.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     t.model,
			MaxTokens: maxResponseTokens,
			System:    []anthropic.SystemBlock{{Text: tagSystemPrompt}},
			Messages:  []anthropic.Message{{Role: "user", Content: buildTagPrompt(batches[0])}},
		})
		if err != nil {
			return nil, eris.Wrap(err, "translate: tag batch")
		}
		collect(resp)
		resp.Usage.LogCost(t.model, "translate_tags")
		return result, nil
	}

	// Warm the prompt cache once, then submit all batches together.
	system := anthropic.BuildCachedSystemBlocks(tagSystemPrompt)
	primer, err := anthropic.PrimerRequest(ctx, t.client, anthropic.MessageRequest{
		Model:     t.model,
		MaxTokens: maxResponseTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: buildTagPrompt(batches[0])}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "translate: primer")
	}
	collect(primer)

	requests := make([]anthropic.BatchRequestItem, 0, len(batches)-1)
	for i, batch := range batches[1:] {
		requests = append(requests, anthropic.BatchRequestItem{
			CustomID: fmt.Sprintf("tags-%d", i+1),
			Params: anthropic.MessageRequest{
				Model:     t.model,
				MaxTokens: maxResponseTokens,
				System:    system,
				Messages:  []anthropic.Message{{Role: "user", Content: buildTagPrompt(batch)}},
			},
		})
	}

	batchResp, err := t.client.CreateBatch(ctx, anthropic.BatchRequest{Requests: requests})
	if err != nil {
		return nil, eris.Wrap(err, "translate: create batch")
	}
	if _, err := anthropic.PollBatch(ctx, t.client, batchResp.ID); err != nil {
		return nil, eris.Wrap(err, "translate: poll batch")
	}
	iter, err := t.client.GetBatchResults(ctx, batchResp.ID)
	if err != nil {
		return nil, eris.Wrap(err, "translate: batch results")
	}
	succeeded, err := anthropic.CollectBatchResults(iter)
	if err != nil {
		return nil, err
	}
	for _, resp := range succeeded {
		collect(resp)
	}
	t.stats.Usage.LogCost(t.model, "translate_tags")
	return result, nil
}

// stringTranslationPayload mirrors {"translations": {"name": "번역"}}.
type stringTranslationPayload struct {
	Translations map[string]string `json:"translations"`
}

func buildMemberPrompt(members []string) string {
	var b strings.Builder
	b.WriteString(`다음 재무제표의 세그먼트(부문) 및 멤버 이름들을 한국어로 번역해주세요.

번역 규칙:
1. XXXSegmentMember → "XX 부문"으로 번역 (예: AsiaSegmentMember → "아시아 부문")
2. 지역 세그먼트는 일반적인 한국어 지역명 사용 (예: GreaterChina → "대중화권")
3. Member 접미사는 번역하지 않고 제외
4. 일반적인 재무용어는 한국 회계기준 용어 사용
5. 제품명이나 브랜드명은 한국에서 통용되는 명칭 사용

응답은 반드시 아래 JSON 형식으로 작성해주세요:

<json>
{"translations": {"member1": "번역1", "member2": "번역2"}}
</json>

번역할 멤버 목록:
`)
	for _, m := range members {
		b.WriteString("- " + m + "\n")
	}
	return b.String()
}

func (t *LLMTranslator) callMembers(ctx context.Context, members []string) (map[string]string, error) {
	result := make(map[string]string, len(members))
	for i := 0; i < len(members); i += t.batchSize {
		end := i + t.batchSize
		if end > len(members) {
			end = len(members)
		}
		batch := members[i:end]

		resp, err := t.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     t.model,
			MaxTokens: maxResponseTokens,
			System:    []anthropic.SystemBlock{{Text: memberSystemPrompt}},
			Messages:  []anthropic.Message{{Role: "user", Content: buildMemberPrompt(batch)}},
		})
		if err != nil {
			return nil, eris.Wrap(err, "translate: member batch")
		}
		t.stats.Usage.Add(resp.Usage)

		var payload stringTranslationPayload
		if err := decodeJSONResponse(responseText(resp), &payload); err != nil {
			zap.L().Warn("translate: undecodable member batch", zap.Error(err))
			continue
		}
		for m, ko := range payload.Translations {
			if ko != "" {
				result[m] = ko
			}
		}
	}
	return result, nil
}

func buildSectionPrompt(sections []string) string {
	var b strings.Builder
	b.WriteString(`재무제표 섹션 이름을 한국어로 번역해주세요.

다음 규칙을 반드시 따라주세요:
1. 한국 재무제표에서 일반적으로 사용되는 용어를 사용하여 번역
2. 번역문은 간단명료하게 작성
3. 불필요한 설명이나 수식어는 제외

응답은 반드시 아래 JSON 형식으로 작성해주세요:

<json>
{"translations": {"section1": "번역1", "section2": "번역2"}}
</json>

번역할 섹션 이름:
`)
	b.WriteString(strings.Join(sections, ", "))
	return b.String()
}

func (t *LLMTranslator) callSections(ctx context.Context, sections []string) (map[string]string, error) {
	resp, err := t.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     t.model,
		MaxTokens: maxResponseTokens,
		System:    []anthropic.SystemBlock{{Text: sectionSystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: buildSectionPrompt(sections)}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "translate: sections")
	}
	t.stats.Usage.Add(resp.Usage)

	var payload stringTranslationPayload
	if err := decodeJSONResponse(responseText(resp), &payload); err != nil {
		zap.L().Warn("translate: undecodable section response", zap.Error(err))
		return map[string]string{}, nil
	}
	result := make(map[string]string, len(payload.Translations))
	for s, ko := range payload.Translations {
		if ko != "" {
			result[s] = ko
		}
	}
	return result, nil
}
