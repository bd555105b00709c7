// Package anthropic wraps the official SDK behind a small interface so the
// translation and QA layers can be tested with canned responses. It also
// carries the batch-polling and prompt-cache helpers those layers share.
package anthropic

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/jsonl"
	"github.com/rotisserie/eris"
)

// Client is the subset of the Anthropic API this system calls.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
	CreateBatch(ctx context.Context, req BatchRequest) (*BatchResponse, error)
	GetBatch(ctx context.Context, batchID string) (*BatchResponse, error)
	GetBatchResults(ctx context.Context, batchID string) (BatchResultIterator, error)
}

// MessageRequest describes one Messages API call.
type MessageRequest struct {
	Model     string
	MaxTokens int64
	System    []SystemBlock
	Messages  []Message
}

// SystemBlock is one system-prompt block. A non-nil CacheControl marks it as
// a prompt-cache breakpoint.
type SystemBlock struct {
	Text         string
	CacheControl *CacheControl
}

// CacheControl sets the cache TTL for a system block ("5m" or "1h").
type CacheControl struct {
	TTL string
}

// Message is one turn of the conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// MessageResponse is the decoded Messages API response.
type MessageResponse struct {
	ID         string
	Model      string
	Content    []ContentBlock
	StopReason string
	Usage      TokenUsage
}

// ContentBlock is one response content block; only "text" blocks carry Text.
type ContentBlock struct {
	Type string
	Text string
}

// BatchRequest submits multiple message requests to the Batches API.
type BatchRequest struct {
	Requests []BatchRequestItem
}

// BatchRequestItem pairs a message request with the caller's correlation ID.
type BatchRequestItem struct {
	CustomID string
	Params   MessageRequest
}

// BatchResponse reports a batch's identity and progress.
type BatchResponse struct {
	ID               string
	ProcessingStatus string // "in_progress", "ended", "canceling", ...
	Succeeded        int64
	Errored          int64
}

// BatchResultItem is one per-request outcome from a completed batch.
type BatchResultItem struct {
	CustomID string
	Type     string // "succeeded", "errored", "canceled", "expired"
	Message  *MessageResponse
}

// BatchResultIterator streams the per-request results of a completed batch.
type BatchResultIterator interface {
	Next() bool
	Item() BatchResultItem
	Err() error
	Close() error
}

// NewClient returns a Client backed by the official SDK.
func NewClient(apiKey string) Client {
	return &sdkClient{api: sdk.NewClient(option.WithAPIKey(apiKey))}
}

type sdkClient struct {
	api sdk.Client
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	msg, err := c.api.Messages.New(ctx, messageParams(req))
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	return decodeMessage(msg), nil
}

func (c *sdkClient) CreateBatch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	items := make([]sdk.MessageBatchNewParamsRequest, len(req.Requests))
	for i, r := range req.Requests {
		p := messageParams(r.Params)
		items[i] = sdk.MessageBatchNewParamsRequest{
			CustomID: r.CustomID,
			Params: sdk.MessageBatchNewParamsRequestParams{
				Model:     p.Model,
				MaxTokens: p.MaxTokens,
				System:    p.System,
				Messages:  p.Messages,
			},
		}
	}

	batch, err := c.api.Messages.Batches.New(ctx, sdk.MessageBatchNewParams{Requests: items})
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create batch")
	}
	return decodeBatch(batch), nil
}

func (c *sdkClient) GetBatch(ctx context.Context, batchID string) (*BatchResponse, error) {
	batch, err := c.api.Messages.Batches.Get(ctx, batchID)
	if err != nil {
		return nil, eris.Wrapf(err, "anthropic: get batch %s", batchID)
	}
	return decodeBatch(batch), nil
}

func (c *sdkClient) GetBatchResults(ctx context.Context, batchID string) (BatchResultIterator, error) {
	stream := c.api.Messages.Batches.ResultsStreaming(ctx, batchID)
	if err := stream.Err(); err != nil {
		return nil, eris.Wrapf(err, "anthropic: batch results %s", batchID)
	}
	return &streamIterator{stream: stream}, nil
}

type streamIterator struct {
	stream *jsonl.Stream[sdk.MessageBatchIndividualResponse]
	item   BatchResultItem
}

func (it *streamIterator) Next() bool {
	if !it.stream.Next() {
		return false
	}
	cur := it.stream.Current()
	it.item = BatchResultItem{
		CustomID: cur.CustomID,
		Type:     cur.Result.Type,
	}
	if cur.Result.Type == "succeeded" {
		msg := cur.Result.Message
		it.item.Message = decodeMessage(&msg)
	}
	return true
}

func (it *streamIterator) Item() BatchResultItem { return it.item }
func (it *streamIterator) Err() error            { return it.stream.Err() }
func (it *streamIterator) Close() error          { return it.stream.Close() }

func messageParams(req MessageRequest) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
	}
	for _, m := range req.Messages {
		block := sdk.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, sdk.NewUserMessage(block))
		}
	}
	for _, b := range req.System {
		tb := sdk.TextBlockParam{Text: b.Text}
		if b.CacheControl != nil {
			cc := sdk.NewCacheControlEphemeralParam()
			if b.CacheControl.TTL != "" {
				cc.TTL = sdk.CacheControlEphemeralTTL(b.CacheControl.TTL)
			}
			tb.CacheControl = cc
		}
		params.System = append(params.System, tb)
	}
	return params
}

func decodeMessage(msg *sdk.Message) *MessageResponse {
	out := &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:              msg.Usage.InputTokens,
			OutputTokens:             msg.Usage.OutputTokens,
			CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
		},
	}
	for _, b := range msg.Content {
		out.Content = append(out.Content, ContentBlock{Type: b.Type, Text: b.Text})
	}
	return out
}

func decodeBatch(batch *sdk.MessageBatch) *BatchResponse {
	return &BatchResponse{
		ID:               batch.ID,
		ProcessingStatus: string(batch.ProcessingStatus),
		Succeeded:        batch.RequestCounts.Succeeded,
		Errored:          batch.RequestCounts.Errored,
	}
}
