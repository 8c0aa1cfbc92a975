// Package scrape composes acquisition, charset normalization and
// extraction into a single call per URL.
package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/charset"
)

// Result is the outcome of scraping one URL.
type Result struct {
	URL        string        `json:"url"`
	Value      harvest.Value `json:"value"`
	Extracted  bool          `json:"extracted"`
	StatusCode int           `json:"status"`
	FromCache  bool          `json:"fromCache"`
	Error      string        `json:"error,omitempty"`
}

// Scraper acquires pages and runs pipelines over them.
type Scraper struct {
	acquirer   harvest.ContentAcquirer
	engine     harvest.ExtractionEngine
	normalizer *charset.Normalizer
	delays     []time.Duration
	logger     *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithNormalizer sets the charset normalizer applied to acquired bodies.
func WithNormalizer(n *charset.Normalizer) Option {
	return func(s *Scraper) {
		s.normalizer = n
	}
}

// WithRetryDelays sets the backoff between acquisition attempts. An empty
// slice disables retries.
func WithRetryDelays(delays []time.Duration) Option {
	return func(s *Scraper) {
		s.delays = delays
	}
}

// WithLogger sets the logger for retries and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		s.logger = logger
	}
}

// New creates a Scraper.
func New(acquirer harvest.ContentAcquirer, engine harvest.ExtractionEngine, opts ...Option) *Scraper {
	s := &Scraper{
		acquirer: acquirer,
		engine:   engine,
		delays:   DefaultRetryDelays(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = charset.NewNormalizer(charset.WithLogger(s.logger))
	}
	return s
}

// Scrape acquires url, converts its body to UTF-8 and runs p over it.
// Transport and render failures are retried; any other acquisition error
// ends the call. Result.Extracted is false when the page was empty.
func (s *Scraper) Scrape(ctx context.Context, url string, p harvest.Pipeline) (*Result, error) {
	res, err := FetchWithRetryDelays(ctx, url, s.acquirer.Acquire, Retryable, s.logger, s.delays)
	if err != nil {
		out := &Result{URL: url}
		if res != nil {
			out.StatusCode = res.StatusCode
		}
		return out, err
	}

	body := s.normalizer.NormalizeDocument(res.Body)

	out, err := s.ScrapeContent(ctx, string(body), p)
	if err != nil {
		return &Result{URL: url, StatusCode: res.StatusCode, FromCache: res.FromCache}, err
	}
	out.URL = url
	out.StatusCode = res.StatusCode
	out.FromCache = res.FromCache
	return out, nil
}

// ScrapeContent runs p over content supplied by the caller, skipping
// acquisition and charset handling.
func (s *Scraper) ScrapeContent(ctx context.Context, content string, p harvest.Pipeline) (*Result, error) {
	v, ok, err := s.engine.ApplyAll(ctx, harvest.TextValue(content), p)
	if err != nil {
		return nil, err
	}
	return &Result{Value: v, Extracted: ok}, nil
}
