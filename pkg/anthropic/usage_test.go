package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenUsageAdd(t *testing.T) {
	var total TokenUsage
	total.Add(TokenUsage{InputTokens: 100, OutputTokens: 20})
	total.Add(TokenUsage{InputTokens: 50, CacheCreationInputTokens: 800, CacheReadInputTokens: 400})

	assert.Equal(t, int64(150), total.InputTokens)
	assert.Equal(t, int64(20), total.OutputTokens)
	assert.Equal(t, int64(800), total.CacheCreationInputTokens)
	assert.Equal(t, int64(400), total.CacheReadInputTokens)
}

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, u.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.InDelta(t, 18.00, u.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
}

func TestEstimateCostCacheMultipliers(t *testing.T) {
	u := TokenUsage{
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}
	// 0.80*1.25 + 0.80*0.1
	assert.InDelta(t, 1.08, u.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
}

func TestEstimateCostUnknownModel(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000}
	assert.Zero(t, u.EstimateCost("claude-unpriced-model"))
}
