// Package acquire obtains page content cache-first, falling back to a
// network fetcher and gating every result on captcha detection before it is
// cached.
package acquire

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/fs"
	"golang.org/x/sync/singleflight"
)

// Ensure Acquirer implements harvest.ContentAcquirer at compile time.
var _ harvest.ContentAcquirer = (*Acquirer)(nil)

// Acquirer retrieves content for URLs according to one FetchConfig.
//
// A cache hit skips the network, the proxy cooldown and the rate limiter.
// A network result is cached only when it is non-empty, has status 0 or
// 200 and carries no captcha marker. Concurrent calls for the same URL
// share one acquisition; calls for different URLs never block each other.
//
// Acquirer is safe for concurrent use.
type Acquirer struct {
	cfg     harvest.FetchConfig
	fetcher harvest.Fetcher
	cache   harvest.Cache
	limiter harvest.DomainLimiter
	marker  string
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error

	group singleflight.Group
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithCache sets the response cache. Without it, an Acquirer whose config
// enables caching opens a file cache in cfg.CacheDir.
func WithCache(cache harvest.Cache) Option {
	return func(a *Acquirer) {
		a.cache = cache
	}
}

// WithCaptchaMarker sets the substring identifying a captcha page. An empty
// marker disables detection.
func WithCaptchaMarker(marker string) Option {
	return func(a *Acquirer) {
		a.marker = marker
	}
}

// WithRateLimiter limits network fetches per host.
func WithRateLimiter(limiter harvest.DomainLimiter) Option {
	return func(a *Acquirer) {
		a.limiter = limiter
	}
}

// WithLogger sets the logger for degraded cache operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Acquirer) {
		a.logger = logger
	}
}

// WithSleep replaces the cooldown wait. Intended for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Acquirer) {
		a.sleep = sleep
	}
}

// New creates an Acquirer using fetcher for network retrieval. The config
// is copied. Returns EINVALID for an inconsistent config.
func New(cfg harvest.FetchConfig, fetcher harvest.Fetcher, opts ...Option) (*Acquirer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, harvest.Errorf(harvest.EINVALID, "fetcher required")
	}

	cfg.SendHeaders = cfg.SendHeaders.Clone()
	if cfg.Proxy != nil {
		p := *cfg.Proxy
		cfg.Proxy = &p
	}

	a := &Acquirer{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  slog.New(slog.DiscardHandler),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.cfg.UseCache && a.cache == nil {
		cache, err := fs.NewCache(a.cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		a.cache = cache
	}

	return a, nil
}

// NewForConfig creates an Acquirer that uses renderer when cfg enables the
// render backend and httpFetcher otherwise.
func NewForConfig(cfg harvest.FetchConfig, httpFetcher, renderer harvest.Fetcher, opts ...Option) (*Acquirer, error) {
	if cfg.UseRenderer {
		return New(cfg, renderer, opts...)
	}
	return New(cfg, httpFetcher, opts...)
}

// Config returns a copy of the acquisition config.
func (a *Acquirer) Config() harvest.FetchConfig {
	cfg := a.cfg
	cfg.SendHeaders = cfg.SendHeaders.Clone()
	return cfg
}

// Acquire returns the content of rawURL.
//
// A captcha page returns ECAPTCHA and is never cached; a cached captcha page
// is evicted. A status other than 0 or 200 returns the result together with
// an ESTATUS error. Fetcher errors are returned unchanged.
//
// A caller waiting on another caller's acquisition of the same URL stops
// waiting when its own ctx is done, and starts over when the shared
// acquisition was cut short by the other caller's context.
func (a *Acquirer) Acquire(ctx context.Context, rawURL string) (*harvest.FetchResult, error) {
	for {
		var led bool
		ch := a.group.DoChan(rawURL, func() (any, error) {
			led = true
			return a.acquire(ctx, rawURL)
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-ch:
			if !led && ctx.Err() == nil && isContextError(r.Err) {
				continue
			}
			res, _ := r.Val.(*harvest.FetchResult)
			return res, r.Err
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (a *Acquirer) acquire(ctx context.Context, rawURL string) (*harvest.FetchResult, error) {
	if res, err := a.fromCache(ctx, rawURL); res != nil || err != nil {
		return res, err
	}

	if a.cfg.UseProxy && a.cfg.ProxyCooldown > 0 {
		if err := a.sleep(ctx, a.cfg.ProxyCooldown); err != nil {
			return nil, err
		}
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, Host(rawURL)); err != nil {
			return nil, err
		}
	}

	res, err := a.fetcher.Fetch(ctx, rawURL, a.cfg)
	if err != nil {
		return nil, err
	}

	if harvest.HasCaptcha(string(res.Body), a.marker) {
		return nil, harvest.Errorf(harvest.ECAPTCHA, "captcha detected at %s", rawURL)
	}

	if a.cfg.UseCache && a.cache != nil && res.CacheEligible() {
		if err := a.cache.Put(ctx, rawURL, res.Body); err != nil {
			a.logger.Warn("cache write failed", "url", rawURL, "err", err)
		}
	}

	if !harvest.IsAcceptedStatus(res.StatusCode) {
		return res, harvest.Errorf(harvest.ESTATUS, "response code %d from %s", res.StatusCode, rawURL)
	}
	return res, nil
}

// fromCache returns a cache hit, or nil when the network must be used.
func (a *Acquirer) fromCache(ctx context.Context, rawURL string) (*harvest.FetchResult, error) {
	if !a.cfg.UseCache || a.cache == nil {
		return nil, nil
	}

	body, ok, err := a.cache.Get(ctx, rawURL)
	if err != nil {
		a.logger.Warn("cache read failed", "url", rawURL, "err", err)
		return nil, nil
	}
	if !ok || len(body) == 0 {
		return nil, nil
	}

	if harvest.HasCaptcha(string(body), a.marker) {
		if err := a.cache.Remove(ctx, rawURL); err != nil {
			a.logger.Warn("cache eviction failed", "url", rawURL, "err", err)
		}
		return nil, harvest.Errorf(harvest.ECAPTCHA, "captcha detected in cached copy of %s", rawURL)
	}

	return &harvest.FetchResult{
		URL:        rawURL,
		Body:       body,
		StatusCode: harvest.StatusNone,
		Metadata:   map[string]any{"url": rawURL},
		FromCache:  true,
	}, nil
}

// Evict removes the cached entry for rawURL.
func (a *Acquirer) Evict(ctx context.Context, rawURL string) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Remove(ctx, rawURL)
}

// EvictLast removes the entry most recently written to the cache.
func (a *Acquirer) EvictLast(ctx context.Context) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.RemoveLast(ctx)
}

// Close releases the fetcher.
func (a *Acquirer) Close() error {
	return a.fetcher.Close()
}

// Host returns the lower-cased host of rawURL, or rawURL itself when it
// cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
