package collector

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"SignalSentinel/internal/model"
)

// RetryFetcher wraps a Fetcher with a per-attempt timeout and exponential
// backoff. Client errors and unsupported timeframes are not retried.
type RetryFetcher struct {
	Inner           Fetcher
	MaxRetries      uint64
	Timeout         time.Duration
	InitialInterval time.Duration
}

// WithRetry wraps f using the feed defaults: 2 retries, 8s per attempt.
func WithRetry(f Fetcher, maxRetries int, timeout time.Duration) *RetryFetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &RetryFetcher{
		Inner:           f,
		MaxRetries:      uint64(maxRetries),
		Timeout:         timeout,
		InitialInterval: 500 * time.Millisecond,
	}
}

func (r *RetryFetcher) Name() string { return r.Inner.Name() }

func (r *RetryFetcher) retry(ctx context.Context, op, symbol string, fn func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.InitialInterval
	b := backoff.WithContext(backoff.WithMaxRetries(eb, r.MaxRetries), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		actx, cancel := context.WithTimeout(ctx, r.Timeout)
		defer cancel()
		err := fn(actx)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrUnsupportedTimeframe) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().
			Str("component", "collector").
			Str("feed", r.Inner.Name()).
			Str("op", op).
			Str("symbol", symbol).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Err(err).
			Msg("feed request failed, retrying")
	}
	return backoff.RetryNotify(operation, b, notify)
}

func (r *RetryFetcher) FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	var bars []model.Bar
	err := r.retry(ctx, "bars", symbol, func(ctx context.Context) error {
		var err error
		bars, err = r.Inner.FetchBars(ctx, symbol, timeframe, limit)
		return err
	})
	return bars, err
}

func (r *RetryFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var price float64
	err := r.retry(ctx, "price", symbol, func(ctx context.Context) error {
		var err error
		price, err = r.Inner.FetchCurrentPrice(ctx, symbol)
		return err
	})
	return price, err
}
