package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of harvest.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string, cfg harvest.FetchConfig) (*harvest.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string, cfg harvest.FetchConfig) (*harvest.FetchResult, error) {
	return f.FetchFn(ctx, url, cfg)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ harvest.ContentAcquirer = (*ContentAcquirer)(nil)

// ContentAcquirer is a mock implementation of harvest.ContentAcquirer.
type ContentAcquirer struct {
	AcquireFn func(ctx context.Context, url string) (*harvest.FetchResult, error)
}

func (a *ContentAcquirer) Acquire(ctx context.Context, url string) (*harvest.FetchResult, error) {
	return a.AcquireFn(ctx, url)
}
