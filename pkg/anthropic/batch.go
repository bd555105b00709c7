package anthropic

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	pollInitialInterval = 2 * time.Second
	pollMaxInterval     = 15 * time.Second
	pollDefaultTimeout  = 30 * time.Minute
)

// PollOption tunes PollBatch. Mostly useful in tests.
type PollOption func(*pollSettings)

type pollSettings struct {
	interval time.Duration
	timeout  time.Duration
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(s *pollSettings) { s.interval = d }
}

// WithPollTimeout overrides the overall poll timeout.
func WithPollTimeout(d time.Duration) PollOption {
	return func(s *pollSettings) { s.timeout = d }
}

// PollBatch polls GetBatch until the batch ends, doubling the interval up to
// a cap with a little jitter to avoid thundering polls. An expired or
// canceled batch is returned along with an error.
func PollBatch(ctx context.Context, client Client, batchID string, opts ...PollOption) (*BatchResponse, error) {
	settings := pollSettings{interval: pollInitialInterval, timeout: pollDefaultTimeout}
	for _, opt := range opts {
		opt(&settings)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.timeout)
		defer cancel()
	}

	interval := settings.interval
	for {
		batch, err := client.GetBatch(ctx, batchID)
		if err != nil {
			return nil, eris.Wrapf(err, "anthropic: poll batch %s", batchID)
		}

		switch batch.ProcessingStatus {
		case "ended":
			return batch, nil
		case "expired":
			return batch, eris.Errorf("anthropic: batch %s expired", batchID)
		case "canceled", "canceling":
			return batch, eris.Errorf("anthropic: batch %s canceled", batchID)
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "anthropic: poll batch %s timed out", batchID)
		case <-time.After(interval):
		}

		interval *= 2
		if interval > pollMaxInterval {
			interval = pollMaxInterval
		}
		interval += time.Duration(rand.Int64N(int64(interval) / 5))
	}
}

// CollectBatchResults drains the iterator into a map keyed by custom ID.
// Failed items are logged and skipped; only an iterator error aborts.
func CollectBatchResults(iter BatchResultIterator) (map[string]*MessageResponse, error) {
	defer iter.Close()

	succeeded := make(map[string]*MessageResponse)
	var failed int
	for iter.Next() {
		item := iter.Item()
		if item.Type == "succeeded" && item.Message != nil {
			succeeded[item.CustomID] = item.Message
			continue
		}
		failed++
		zap.L().Warn("anthropic: batch item failed",
			zap.String("custom_id", item.CustomID),
			zap.String("type", item.Type),
		)
	}
	if err := iter.Err(); err != nil {
		return nil, eris.Wrap(err, "anthropic: collect batch results")
	}

	if failed > 0 {
		zap.L().Warn("anthropic: batch completed with failures",
			zap.Int("succeeded", len(succeeded)),
			zap.Int("failed", failed),
		)
	}
	return succeeded, nil
}
