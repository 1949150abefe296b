package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

type retryEmbedder struct {
	inner      Embedder
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// WithRetry retries failed Embed calls up to maxRetries times with
// exponential backoff. Context cancellation is not retried.
func WithRetry(e Embedder, maxRetries int) Embedder {
	return &retryEmbedder{
		inner:      e,
		maxRetries: uint64(maxRetries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
}

func (r *retryEmbedder) Name() string   { return r.inner.Name() }
func (r *retryEmbedder) Dimension() int { return r.inner.Dimension() }

func (r *retryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.maxRetries), ctx)
	attempt := 0
	return backoff.RetryWithData(func() ([]float32, error) {
		attempt++
		vec, err := r.inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}
		log.Warn().Err(err).Str("embedder", r.inner.Name()).Int("attempt", attempt).Msg("Embedding failed")
		return nil, err
	}, b)
}
