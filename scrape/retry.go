package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc[T any] func(ctx context.Context, url string) (T, error)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Retryable reports whether err is a transient transport or render failure.
// Captcha, status and configuration errors are final.
func Retryable(err error) bool {
	switch harvest.ErrorCode(err) {
	case harvest.EFETCH, harvest.ERENDER:
		return true
	}
	return false
}

// FetchWithRetryDelays calls fetch until it succeeds, returns an error that
// retryable rejects, or runs out of delays. It makes len(delays)+1 attempts
// at most. On failure the value of the last attempt is returned with its
// error, so partial results such as a non-200 response stay visible.
func FetchWithRetryDelays[T any](ctx context.Context, url string, fetch FetchFunc[T], retryable func(error) bool, logger *slog.Logger, delays []time.Duration) (T, error) {
	maxAttempts := len(delays) + 1

	var v T
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err = fetch(ctx, url)
		if err == nil {
			return v, nil
		}
		if attempt >= maxAttempts-1 || (retryable != nil && !retryable(err)) {
			break
		}
		if ctx.Err() != nil {
			var zero T
			return zero, ctx.Err()
		}

		if logger != nil {
			logger.Warn("retrying fetch", "url", url, "attempt", attempt+2, "err", err)
		}

		t := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			t.Stop()
			var zero T
			return zero, ctx.Err()
		case <-t.C:
		}
	}

	return v, err
}
