package anthropic

import "go.uber.org/zap"

// TokenUsage accumulates token counts across calls. The zero value is ready
// to use.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// Add merges another usage record into this one.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

// pricePerMTok maps model IDs to {input, output} USD per million tokens.
// Cache writes bill at 1.25x input, cache reads at 0.1x.
var pricePerMTok = map[string][2]float64{
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
}

// EstimateCost returns the estimated USD cost of this usage under the given
// model, or 0 for models without a pricing entry.
func (u TokenUsage) EstimateCost(model string) float64 {
	price, ok := pricePerMTok[model]
	if !ok {
		return 0
	}
	return float64(u.InputTokens)/1e6*price[0] +
		float64(u.OutputTokens)/1e6*price[1] +
		float64(u.CacheCreationInputTokens)/1e6*price[0]*1.25 +
		float64(u.CacheReadInputTokens)/1e6*price[0]*0.1
}

// LogCost emits a structured cost-attribution line for one phase of a run.
func (u TokenUsage) LogCost(model, phase string) {
	zap.L().Info("cost attribution",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheCreationInputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}
