package scrape

import (
	"context"

	"github.com/fwojciec/harvest"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of URLs scraped in parallel when the
// caller does not choose.
const DefaultConcurrency = 4

// ProgressEvent reports progress during a batch scrape.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting batch progress.
type ProgressFunc func(event ProgressEvent)

// ScrapeAll scrapes every URL with at most concurrency calls in flight and
// returns one Result per URL in input order. A failing URL records its
// error in Result.Error and does not stop the batch. Progress callbacks
// are invoked from the calling goroutine.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string, p harvest.Pipeline, concurrency int, progress ProgressFunc) []*Result {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	type indexed struct {
		position int
		result   *Result
		err      error
	}
	resultCh := make(chan indexed, len(urls))

	var completed int
	total := len(urls)

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, url := range urls {
			g.Go(func() error {
				res, err := s.Scrape(gctx, url, p)
				if res == nil {
					res = &Result{URL: url}
				}
				resultCh <- indexed{position: i, result: res, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	results := make([]*Result, len(urls))
	for r := range resultCh {
		completed++
		results[r.position] = r.result

		event := ProgressEvent{
			Type:      ProgressCompleted,
			Completed: completed,
			Total:     total,
			URL:       r.result.URL,
		}
		if r.err != nil {
			r.result.Error = r.err.Error()
			event.Type = ProgressFailed
			event.Error = r.err
			s.logger.Error("scrape failed", "url", r.result.URL, "code", harvest.ErrorCode(r.err), "err", r.err)
		}
		if progress != nil {
			progress(event)
		}
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}

	return results
}
