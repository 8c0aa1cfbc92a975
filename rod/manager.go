package rod

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/harvest"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// BrowserManager owns the shared browser used for rendering without a proxy.
// The browser is started on first use, either by launching a local headless
// Chrome or by connecting to a remote DevTools endpoint.
//
// Chrome accumulates memory over time and the baseline never returns to
// initial levels even with proper page cleanup, so a launched browser is
// recycled after maxPages pages. Remote browsers are never recycled.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	disconnect context.CancelFunc
	endpoint   string
	pageCount  int64
	maxPages   int64
	mu         sync.Mutex
	closed     atomic.Bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithManagerMaxPages sets the maximum number of pages before the browser is
// recycled. Defaults to 75 if not specified.
func WithManagerMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithManagerEndpoint connects to a running browser at endpoint instead of
// launching one. The endpoint may be an http DevTools address or a ws URL.
func WithManagerEndpoint(endpoint string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.endpoint = endpoint
	}
}

// NewBrowserManager creates a BrowserManager. No browser is started until
// Browser is first called. Close must be called when the BrowserManager is
// no longer needed.
func NewBrowserManager(opts ...ManagerOption) *BrowserManager {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(bm)
	}
	return bm
}

// Browser returns the current browser instance, starting it if needed and
// recycling a launched browser once the page count has reached maxPages.
// Callers should call IncrementPageCount after using the browser to process
// a page.
func (bm *BrowserManager) Browser() (*rod.Browser, error) {
	if bm.closed.Load() {
		return nil, harvest.Errorf(harvest.EINVALID, "browser manager closed")
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.browser == nil {
		if err := bm.start(); err != nil {
			return nil, err
		}
		return bm.browser, nil
	}

	if bm.launcher != nil && atomic.LoadInt64(&bm.pageCount) >= bm.maxPages {
		bm.recycleBrowser()
	}

	return bm.browser, nil
}

// IncrementPageCount increments the page counter. Call this after
// processing a page to track progress toward the recycling threshold.
func (bm *BrowserManager) IncrementPageCount() {
	atomic.AddInt64(&bm.pageCount, 1)
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	return bm.closeBrowser()
}

func (bm *BrowserManager) start() error {
	if bm.endpoint != "" {
		return bm.connectRemote()
	}
	return bm.launchBrowser()
}

// connectRemote attaches to an already running browser. Closing the manager
// drops the connection but leaves the remote browser running.
func (bm *BrowserManager) connectRemote() error {
	u, err := launcher.ResolveURL(bm.endpoint)
	if err != nil {
		return harvest.WrapError(harvest.ERENDER, err, "resolving renderer endpoint %s", bm.endpoint)
	}

	ctx, cancel := context.WithCancel(context.Background())
	browser := rod.New().Context(ctx).ControlURL(u)
	if err := browser.Connect(); err != nil {
		cancel()
		return harvest.WrapError(harvest.ERENDER, err, "connecting to renderer at %s", bm.endpoint)
	}

	bm.browser = browser
	bm.disconnect = cancel
	return nil
}

// launchBrowser starts a new local browser instance with stability flags.
func (bm *BrowserManager) launchBrowser() error {
	lnchr := newLauncher()

	browser, err := connectLaunched(lnchr)
	if err != nil {
		return err
	}

	bm.browser = browser
	bm.launcher = lnchr
	return nil
}

// closeBrowser shuts down the current browser and launcher.
// Must be called with mu held.
func (bm *BrowserManager) closeBrowser() error {
	var err error
	if bm.disconnect != nil {
		bm.disconnect()
		bm.disconnect = nil
		bm.browser = nil
	}
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	return err
}

// recycleBrowser starts a fresh browser and closes the old one.
// If launching the new browser fails, the old browser is kept.
// Must be called with mu held.
func (bm *BrowserManager) recycleBrowser() {
	oldBrowser := bm.browser
	oldLauncher := bm.launcher
	bm.browser = nil
	bm.launcher = nil

	if err := bm.launchBrowser(); err != nil {
		bm.browser = oldBrowser
		bm.launcher = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	atomic.StoreInt64(&bm.pageCount, 0)
}

// LauncherPID returns the process ID of the browser launcher, or 0 when no
// local browser is running.
// This method exists for testing purposes to verify proper cleanup.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}

// newLauncher returns a headless launcher with stability flags.
func newLauncher() *launcher.Launcher {
	return launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)
}

// connectLaunched launches l and connects to it, killing the process if the
// connection fails.
func connectLaunched(l *launcher.Launcher) (*rod.Browser, error) {
	u, err := l.Launch()
	if err != nil {
		return nil, harvest.WrapError(harvest.ERENDER, err, "launching browser")
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, harvest.WrapError(harvest.ERENDER, err, "connecting to browser")
	}
	return browser, nil
}
