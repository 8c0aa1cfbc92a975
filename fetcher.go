package harvest

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"time"
)

// StatusNone is the status reported when no HTTP status is available,
// e.g. for rendered pages and cache hits.
const StatusNone = 0

// DefaultProxyCooldown is the delay applied before every network fetch
// made through a proxy.
const DefaultProxyCooldown = 30 * time.Second

// DefaultRendererEndpoint is the conventional DevTools endpoint of a locally
// running Chrome started with --remote-debugging-port.
const DefaultRendererEndpoint = "http://localhost:9222"

// Proxy holds proxy routing and credentials.
type Proxy struct {
	Host string
	Port int
	User string
	Pass string
}

// Addr returns host:port.
func (p *Proxy) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// URL returns the proxy as an http URL, with userinfo when a user is set.
func (p *Proxy) URL() *url.URL {
	u := &url.URL{Scheme: "http", Host: p.Addr()}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Pass)
	}
	return u
}

// Validate returns an error if the proxy cannot be used for routing.
func (p *Proxy) Validate() error {
	if p.Host == "" {
		return Errorf(EINVALID, "proxy host required")
	}
	if p.Port <= 0 || p.Port > 65535 {
		return Errorf(EINVALID, "proxy port %d out of range", p.Port)
	}
	return nil
}

// Header is a single outbound request header.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered set of outbound request headers.
type Headers []Header

// DefaultHeaders returns the header set sent when none is configured.
func DefaultHeaders() Headers {
	return Headers{
		{Name: "User-Agent", Value: "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:82.0) Gecko/20100101 Firefox/82.0"},
		{Name: "Accept", Value: "*/*"},
		{Name: "Accept-Language", Value: "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3"},
		{Name: "Accept-Encoding", Value: "gzip, deflate"},
		{Name: "Content-Type", Value: "text/plain;charset=UTF-8"},
	}
}

// Set replaces the value of an existing header in place or appends a new one.
func (h Headers) Set(name, value string) Headers {
	for i := range h {
		if h[i].Name == name {
			h[i].Value = value
			return h
		}
	}
	return append(h, Header{Name: name, Value: value})
}

// Get returns the value of the named header.
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if hdr.Name == name {
			return hdr.Value, true
		}
	}
	return "", false
}

// Clone returns a copy that does not share storage with h.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	copy(out, h)
	return out
}

// FetchConfig describes how content is acquired for one session.
type FetchConfig struct {
	UseProxy bool
	Proxy    *Proxy

	UseRenderer      bool
	RendererEndpoint string

	UseCache bool
	CacheDir string

	SendHeaders Headers

	// ProxyCooldown is slept before every network fetch while a proxy is
	// active. Zero disables the delay.
	ProxyCooldown time.Duration
}

// DefaultFetchConfig returns a configuration with the default header set and
// proxy cooldown. Proxy, renderer and cache are disabled.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		SendHeaders:   DefaultHeaders(),
		ProxyCooldown: DefaultProxyCooldown,
	}
}

// Validate returns an error if the configuration is inconsistent.
func (c *FetchConfig) Validate() error {
	if c.UseProxy {
		if c.Proxy == nil {
			return Errorf(EINVALID, "proxy enabled but not configured")
		}
		if err := c.Proxy.Validate(); err != nil {
			return err
		}
	}
	if c.UseCache && c.CacheDir == "" {
		return Errorf(EINVALID, "cache enabled but cache directory not set")
	}
	if c.ProxyCooldown < 0 {
		return Errorf(EINVALID, "proxy cooldown must not be negative")
	}
	return nil
}

// FetchResult is the outcome of a single acquisition.
type FetchResult struct {
	URL        string
	Body       []byte
	StatusCode int

	// Metadata holds transfer details (final url, content type, timings...).
	Metadata map[string]any

	// ReceivedHeaders holds the parsed response headers.
	ReceivedHeaders map[string]string

	// FromCache is true when the body was served from the cache.
	FromCache bool
}

// IsAcceptedStatus reports whether a status belongs to the set that may be
// cached and extracted: 0 (no status available) and 200.
func IsAcceptedStatus(code int) bool {
	return code == StatusNone || code == 200
}

// CacheEligible reports whether the result may be written to the cache.
func (r *FetchResult) CacheEligible() bool {
	return len(r.Body) > 0 && IsAcceptedStatus(r.StatusCode)
}

// Fetcher retrieves page content for a URL.
// Implementations use plain HTTP or browser automation.
type Fetcher interface {
	// Fetch retrieves the URL according to cfg. Non-200 statuses are
	// reported in the result, not as errors.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string, cfg FetchConfig) (*FetchResult, error)

	// Close releases resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// Cache stores raw response bodies keyed by source URL.
type Cache interface {
	// Get returns the entry for key. The boolean is false when absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put writes value under key, replacing any existing entry.
	// Returns ECACHE when the entry cannot be written.
	Put(ctx context.Context, key string, value []byte) error

	// Remove deletes the entry for key. Missing entries are not an error.
	Remove(ctx context.Context, key string) error

	// RemoveLast deletes the entry most recently written by Put.
	RemoveLast(ctx context.Context) error

	// Clear deletes all entries.
	Clear(ctx context.Context) error
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

// ContentAcquirer obtains page content, cache first.
type ContentAcquirer interface {
	// Acquire returns the content of url. A status outside {0, 200}
	// returns the result together with an ESTATUS error.
	Acquire(ctx context.Context, url string) (*FetchResult, error)
}
