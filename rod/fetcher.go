// Package rod renders pages in Chrome through go-rod for sites that need
// JavaScript to produce their final HTML.
package rod

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout is the default timeout for rendering a single page.
const DefaultFetchTimeout = 30 * time.Second

// Ensure Fetcher implements harvest.Fetcher at compile time.
var _ harvest.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
//
// Without a proxy, pages are rendered in a shared browser owned by a
// BrowserManager. With a proxy, each fetch launches a dedicated browser
// carrying a proxy extension; the browser and the extension are removed
// when the fetch returns. Rendered results have no HTTP status.
//
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager      *BrowserManager
	fetchTimeout time.Duration
	managerOpts  []ManagerOption
	closed       atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the timeout for rendering a single page.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.fetchTimeout = d
	}
}

// WithMaxPages sets how many pages the shared browser renders before it is
// recycled. Defaults to DefaultMaxPages.
func WithMaxPages(n int64) Option {
	return func(f *Fetcher) {
		f.managerOpts = append(f.managerOpts, WithManagerMaxPages(n))
	}
}

// WithEndpoint renders unproxied pages in the browser running at endpoint
// instead of launching a local one.
func WithEndpoint(endpoint string) Option {
	return func(f *Fetcher) {
		if endpoint != "" {
			f.managerOpts = append(f.managerOpts, WithManagerEndpoint(endpoint))
		}
	}
}

// NewFetcher creates a new Fetcher. The browser is started lazily on the
// first unproxied fetch. Close must be called when the Fetcher is no longer
// needed.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.manager = NewBrowserManager(f.managerOpts...)
	return f
}

// Fetch navigates to url and returns the rendered HTML. An empty page is
// returned as an empty body. Failures return ERENDER.
func (f *Fetcher) Fetch(ctx context.Context, url string, cfg harvest.FetchConfig) (*harvest.FetchResult, error) {
	if f.closed.Load() {
		return nil, harvest.Errorf(harvest.EINVALID, "fetcher closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, harvest.WrapError(harvest.ERENDER, err, "rendering %s", url)
	}

	ctx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
	defer cancel()

	var (
		html     string
		finalURL string
		err      error
	)
	if cfg.UseProxy {
		if cfg.Proxy == nil {
			return nil, harvest.Errorf(harvest.EINVALID, "proxy enabled but not configured")
		}
		html, finalURL, err = f.renderWithProxy(ctx, url, cfg.Proxy)
	} else {
		html, finalURL, err = f.renderShared(ctx, url)
	}
	if err != nil {
		return nil, err
	}

	return &harvest.FetchResult{
		URL:        url,
		Body:       []byte(html),
		StatusCode: harvest.StatusNone,
		Metadata: map[string]any{
			"url":      finalURL,
			"renderer": "rod",
		},
	}, nil
}

func (f *Fetcher) renderShared(ctx context.Context, url string) (string, string, error) {
	browser, err := f.manager.Browser()
	if err != nil {
		return "", "", err
	}
	defer f.manager.IncrementPageCount()

	return render(ctx, browser, url)
}

// renderWithProxy renders url in a dedicated browser routed through p.
// Extensions need the new headless mode.
func (f *Fetcher) renderWithProxy(ctx context.Context, url string, p *harvest.Proxy) (string, string, error) {
	dir, err := WriteProxyExtension(p)
	if err != nil {
		return "", "", err
	}
	defer os.RemoveAll(dir)

	l := newLauncher().
		Set("headless", "new").
		Set("load-extension", dir).
		Set("disable-extensions-except", dir)

	browser, err := connectLaunched(l)
	if err != nil {
		return "", "", err
	}
	defer l.Cleanup()
	defer l.Kill()
	defer browser.Close()

	return render(ctx, browser, url)
}

// render loads url in a new page of browser and returns its HTML and final
// location.
func render(ctx context.Context, browser *rod.Browser, url string) (string, string, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", "", harvest.WrapError(harvest.ERENDER, err, "opening page")
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", "", harvest.WrapError(harvest.ERENDER, err, "navigating to %s", url)
	}
	if err := page.WaitLoad(); err != nil {
		return "", "", harvest.WrapError(harvest.ERENDER, err, "waiting for %s", url)
	}

	html, err := page.HTML()
	if err != nil {
		return "", "", harvest.WrapError(harvest.ERENDER, err, "reading rendered HTML of %s", url)
	}

	finalURL := url
	if info, err := page.Info(); err == nil {
		finalURL = info.URL
	}
	return html, finalURL, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the shared browser, or 0 before the
// first unproxied fetch.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
