package embedding

import (
	"context"

	"golang.org/x/time/rate"

	mmerr "github.com/viant/mmvec/errors"
)

// DefaultBatchSize bounds the number of inputs sent in one remote request.
const DefaultBatchSize = 64

// BatchFunc embeds one batch of inputs.
type BatchFunc func(ctx context.Context, batch []Input) ([][]float32, error)

// Batched splits inputs into batches of at most size, waits on limiter before
// each batch when it is non-nil, and concatenates the results in order.
func Batched(ctx context.Context, inputs []Input, size int, limiter *rate.Limiter, fn BatchFunc) ([][]float32, error) {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += size {
		end := min(start+size, len(inputs))
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, mmerr.Wrap(err, mmerr.CodeEmbeddingUpstreamFailure, "embedding: waiting for rate limiter")
			}
		}
		vectors, err := fn(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, mmerr.New(mmerr.CodeEmbeddingUpstreamFailure, "embedding: provider returned wrong number of vectors",
				mmerr.Field("expected", end-start), mmerr.Field("actual", len(vectors)))
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// NewLimiter returns a limiter allowing perSecond requests, or nil when
// perSecond is not positive.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
