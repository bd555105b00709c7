package anthropic

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns a fixed sequence of batch states from GetBatch.
type scriptedClient struct {
	states []BatchResponse
	calls  int
}

func (c *scriptedClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	return nil, eris.New("not scripted")
}

func (c *scriptedClient) CreateBatch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	return nil, eris.New("not scripted")
}

func (c *scriptedClient) GetBatch(ctx context.Context, batchID string) (*BatchResponse, error) {
	state := c.states[min(c.calls, len(c.states)-1)]
	c.calls++
	return &state, nil
}

func (c *scriptedClient) GetBatchResults(ctx context.Context, batchID string) (BatchResultIterator, error) {
	return nil, eris.New("not scripted")
}

func TestPollBatchWaitsForEnd(t *testing.T) {
	client := &scriptedClient{states: []BatchResponse{
		{ID: "batch_1", ProcessingStatus: "in_progress"},
		{ID: "batch_1", ProcessingStatus: "in_progress"},
		{ID: "batch_1", ProcessingStatus: "ended", Succeeded: 5},
	}}

	batch, err := PollBatch(context.Background(), client, "batch_1",
		WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "ended", batch.ProcessingStatus)
	assert.Equal(t, int64(5), batch.Succeeded)
	assert.Equal(t, 3, client.calls)
}

func TestPollBatchExpired(t *testing.T) {
	client := &scriptedClient{states: []BatchResponse{
		{ID: "batch_2", ProcessingStatus: "expired"},
	}}

	batch, err := PollBatch(context.Background(), client, "batch_2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
	require.NotNil(t, batch)
	assert.Equal(t, "expired", batch.ProcessingStatus)
}

func TestPollBatchCanceled(t *testing.T) {
	client := &scriptedClient{states: []BatchResponse{
		{ID: "batch_3", ProcessingStatus: "canceling"},
	}}

	_, err := PollBatch(context.Background(), client, "batch_3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canceled")
}

func TestPollBatchTimeout(t *testing.T) {
	client := &scriptedClient{states: []BatchResponse{
		{ID: "batch_4", ProcessingStatus: "in_progress"},
	}}

	_, err := PollBatch(context.Background(), client, "batch_4",
		WithPollInterval(50*time.Millisecond),
		WithPollTimeout(10*time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

// sliceIterator replays canned batch result items.
type sliceIterator struct {
	items  []BatchResultItem
	pos    int
	err    error
	closed bool
}

func (it *sliceIterator) Next() bool {
	if it.pos >= len(it.items) {
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Item() BatchResultItem { return it.items[it.pos-1] }
func (it *sliceIterator) Err() error            { return it.err }
func (it *sliceIterator) Close() error          { it.closed = true; return nil }

func TestCollectBatchResults(t *testing.T) {
	iter := &sliceIterator{items: []BatchResultItem{
		{CustomID: "tag-0", Type: "succeeded", Message: &MessageResponse{ID: "msg_a"}},
		{CustomID: "tag-1", Type: "errored"},
		{CustomID: "tag-2", Type: "succeeded", Message: &MessageResponse{ID: "msg_b"}},
	}}

	results, err := CollectBatchResults(iter)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "msg_a", results["tag-0"].ID)
	assert.Equal(t, "msg_b", results["tag-2"].ID)
	assert.NotContains(t, results, "tag-1")
	assert.True(t, iter.closed)
}

func TestCollectBatchResultsIteratorError(t *testing.T) {
	iter := &sliceIterator{err: eris.New("stream cut")}

	_, err := CollectBatchResults(iter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream cut")
	assert.True(t, iter.closed)
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("시스템 프롬프트")
	require.Len(t, blocks, 1)
	assert.Equal(t, "시스템 프롬프트", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}
