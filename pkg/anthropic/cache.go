package anthropic

import (
	"context"

	"github.com/rotisserie/eris"
)

// BuildCachedSystemBlocks marks the system prompt as a 1-hour prompt-cache
// breakpoint. Translation batches share one large system prompt, so one
// sequential "primer" call warms the cache and the batch reads it.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{{
		Text:         text,
		CacheControl: &CacheControl{TTL: "1h"},
	}}
}

// PrimerRequest issues the single cache-warming call before a batch is
// submitted. The response is a normal message response and may be used or
// discarded by the caller.
func PrimerRequest(ctx context.Context, client Client, req MessageRequest) (*MessageResponse, error) {
	resp, err := client.CreateMessage(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: primer request")
	}
	return resp, nil
}
