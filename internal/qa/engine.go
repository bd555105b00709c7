package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dimi-labs/kensho-cli/internal/model"
	"github.com/dimi-labs/kensho-cli/pkg/anthropic"
)

const (
	// similarityTopK matches the retrieval depth of the report QA flow.
	similarityTopK = 3

	noAnswerMessage = "죄송합니다. 해당 질문에 대한 관련 정보를 찾을 수 없습니다."

	qaSystemPrompt = `당신은 재무제표 전문가입니다.
주어진 정보를 바탕으로 명확하고 정확한 답변을 제공해주세요.
숫자는 정확하게 인용하고, 필요한 경우 추가 설명을 제공하세요.
모든 답변은 한국어로 작성해주세요.`
)

// Engine answers questions over one translated report.
type Engine struct {
	index  *Index
	client anthropic.Client
	model  string
}

// NewEngine indexes the report and wires the LLM client.
func NewEngine(rpt *model.Report, client anthropic.Client, llmModel string) *Engine {
	docs := BuildDocuments(rpt)
	zap.L().Info("qa: index built", zap.Int("documents", len(docs)))
	return &Engine{
		index:  NewIndex(docs),
		client: client,
		model:  llmModel,
	}
}

// Ask retrieves the most relevant report items and synthesizes a Korean
// answer. When nothing relevant is found, a fixed no-answer message is
// returned without calling the LLM.
func (e *Engine) Ask(ctx context.Context, question string) (string, error) {
	docs := e.index.Search(question, similarityTopK)
	if len(docs) == 0 {
		return noAnswerMessage, nil
	}

	var b strings.Builder
	b.WriteString("다음은 재무제표 분석 리포트에서 검색된 관련 정보입니다:\n\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "--- 정보 %d ---\n", i+1)
		b.WriteString(doc.Text)
		b.WriteString("\n")
	}
	b.WriteString("\n질문: ")
	b.WriteString(question)

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 2048,
		System:    []anthropic.SystemBlock{{Text: qaSystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: b.String()}},
	})
	if err != nil {
		return "", eris.Wrap(err, "qa: answer")
	}
	resp.Usage.LogCost(e.model, "qa")

	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(answer.String()) == "" {
		return noAnswerMessage, nil
	}
	return answer.String(), nil
}
