// Package http provides a direct HTTP implementation of harvest.Fetcher for
// pages that don't require JavaScript rendering.
package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/fwojciec/harvest"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultMaxRedirects is the number of redirects followed before giving up.
const DefaultMaxRedirects = 10

// Ensure Fetcher implements harvest.Fetcher at compile time.
var _ harvest.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves page content with plain HTTP GET requests.
//
// TLS peer verification is disabled: targets are often self-signed or
// misconfigured and the operator accepts that trade-off. HTTP/2 is disabled
// so every request speaks HTTP/1.1.
//
// Fetcher is safe for concurrent use; the proxy is chosen per request.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxRedirects int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxRedirects sets the maximum number of redirects to follow.
// Defaults to DefaultMaxRedirects (10) if not specified.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		f.maxRedirects = n
	}
}

type proxyKey struct{}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:      DefaultFetchTimeout,
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(f)
	}

	transport := &http.Transport{
		Proxy: proxyFromContext,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // scraping self-signed targets is an explicit operator choice
		},
		// A non-nil empty map disables HTTP/2 negotiation.
		TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
		ForceAttemptHTTP2:     false,
		DisableCompression:    true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	f.client = &http.Client{
		Transport:     transport,
		Timeout:       f.timeout,
		CheckRedirect: f.checkRedirect,
	}

	return f
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= f.maxRedirects {
		return fmt.Errorf("stopped after %d redirects", len(via))
	}
	return nil
}

// proxyFromContext routes a request through the proxy stored in its context.
// Redirected requests inherit the context and therefore the proxy.
func proxyFromContext(req *http.Request) (*url.URL, error) {
	if u, ok := req.Context().Value(proxyKey{}).(*url.URL); ok {
		return u, nil
	}
	return nil, nil
}

// Fetch issues a GET for rawURL with the configured headers and proxy.
// Non-200 responses are returned as results; only transport failures are
// errors (EFETCH).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, cfg harvest.FetchConfig) (*harvest.FetchResult, error) {
	if cfg.UseProxy {
		if cfg.Proxy == nil {
			return nil, harvest.Errorf(harvest.EINVALID, "proxy enabled but not configured")
		}
		ctx = context.WithValue(ctx, proxyKey{}, cfg.Proxy.URL())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, harvest.WrapError(harvest.EINVALID, err, "invalid URL %q", rawURL)
	}

	headers := cfg.SendHeaders
	if headers == nil {
		headers = harvest.DefaultHeaders()
	}
	for _, h := range headers {
		req.Header.Set(h.Name, h.Value)
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", SupportedEncodings)
	}

	begin := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, harvest.WrapError(harvest.EFETCH, err, "fetching %s", rawURL)
	}
	defer resp.Body.Close()

	headerBlock, err := httputil.DumpResponse(resp, false)
	if err != nil {
		return nil, harvest.WrapError(harvest.EFETCH, err, "reading response headers from %s", rawURL)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, harvest.WrapError(harvest.EFETCH, err, "reading response body from %s", rawURL)
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, harvest.WrapError(harvest.EFETCH, err, "decoding response body from %s", rawURL)
	}

	return &harvest.FetchResult{
		URL:        rawURL,
		Body:       body,
		StatusCode: resp.StatusCode,
		Metadata: map[string]any{
			"url":            resp.Request.URL.String(),
			"http_code":      resp.StatusCode,
			"content_type":   resp.Header.Get("Content-Type"),
			"header_size":    len(headerBlock),
			"redirect_count": redirectCount(resp),
			"size_download":  len(raw),
			"total_time":     time.Since(begin).Seconds(),
			"proto":          resp.Proto,
		},
		ReceivedHeaders: ParseHeaders(string(headerBlock)),
	}, nil
}

// redirectCount walks the redirect chain that produced resp.
func redirectCount(resp *http.Response) int {
	n := 0
	for r := resp.Request; r != nil && r.Response != nil; r = r.Response.Request {
		n++
	}
	return n
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
