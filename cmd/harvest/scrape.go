package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/acquire"
	"github.com/fwojciec/harvest/charset"
	"github.com/fwojciec/harvest/extract"
	"github.com/fwojciec/harvest/fs"
	"github.com/fwojciec/harvest/scrape"
	harvestslog "github.com/fwojciec/harvest/slog"
	"github.com/fwojciec/harvest/transform"
	"github.com/fwojciec/harvest/yaml"
)

// Run executes the scrape command. Results are written to stdout as one
// JSON object per line, in argument order.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	p, urls, err := c.plan()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	scraper, err := c.scraper(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetEscapeHTML(false)

	if c.File != "" {
		content, err := os.ReadFile(c.File)
		if err != nil {
			return fmt.Errorf("reading %s: %w", c.File, err)
		}
		res, err := scraper.ScrapeContent(deps.Ctx, string(content), p)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
			return err
		}
		res.URL = c.File
		return enc.Encode(res)
	}

	results := scraper.ScrapeAll(deps.Ctx, urls, p, c.Concurrency, nil)

	var failed int
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(results))
	}
	return nil
}

// plan resolves the pipeline and URL list from the job file and flags.
// Template flags replace the job's templates; URL arguments are appended to
// the job's URLs.
func (c *ScrapeCmd) plan() (harvest.Pipeline, []string, error) {
	var (
		p    harvest.Pipeline
		urls []string
	)

	if c.Job != "" {
		job, err := yaml.ReadJobFile(c.Job)
		if err != nil {
			return harvest.Pipeline{}, nil, err
		}
		p = job.Pipeline
		urls = append(urls, job.URLs...)
		c.Raw = c.Raw || job.Raw
		if c.CaptchaMarker == "" {
			c.CaptchaMarker = job.CaptchaMarker
		}
	}

	if len(c.Template) > 0 {
		tpls := make([]harvest.Template, 0, len(c.Template))
		for _, s := range c.Template {
			tpl, err := harvest.ParseTemplate(s)
			if err != nil {
				return harvest.Pipeline{}, nil, err
			}
			tpls = append(tpls, tpl)
		}
		var err error
		if p, err = harvest.NewPipeline(tpls...); err != nil {
			return harvest.Pipeline{}, nil, err
		}
	}

	if p.Len() == 0 {
		return harvest.Pipeline{}, nil, harvest.Errorf(harvest.EINVALID, "no templates specified; use --template or --job")
	}

	urls = append(urls, c.URLs...)
	if len(urls) == 0 && c.File == "" {
		return harvest.Pipeline{}, nil, harvest.Errorf(harvest.EINVALID, "no URLs specified")
	}

	return p, urls, nil
}

// config builds the acquisition config from the flags.
func (c *ScrapeCmd) config(cacheDir string) (harvest.FetchConfig, error) {
	cfg := harvest.DefaultFetchConfig()
	cfg.UseRenderer = c.Renderer
	cfg.RendererEndpoint = c.RendererEndpoint
	cfg.UseCache = c.Cache
	cfg.CacheDir = cacheDir
	cfg.ProxyCooldown = c.Cooldown

	for _, h := range c.Header {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return harvest.FetchConfig{}, harvest.Errorf(harvest.EINVALID, "header %q must have the form 'Name: Value'", h)
		}
		cfg.SendHeaders = cfg.SendHeaders.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if c.Proxy != "" {
		host, portStr, err := net.SplitHostPort(c.Proxy)
		if err != nil {
			return harvest.FetchConfig{}, harvest.WrapError(harvest.EINVALID, err, "proxy %q must have the form host:port", c.Proxy)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return harvest.FetchConfig{}, harvest.WrapError(harvest.EINVALID, err, "proxy port %q is not a number", portStr)
		}
		cfg.UseProxy = true
		cfg.Proxy = &harvest.Proxy{Host: host, Port: port, User: c.ProxyUser, Pass: c.ProxyPass}
	}

	return cfg, cfg.Validate()
}

// scraper wires acquisition, extraction and persistence for one run.
func (c *ScrapeCmd) scraper(deps *Dependencies) (*scrape.Scraper, error) {
	cfg, err := c.config(deps.CacheDir)
	if err != nil {
		return nil, err
	}

	opts := []acquire.Option{
		acquire.WithCaptchaMarker(c.CaptchaMarker),
		acquire.WithLogger(deps.Logger),
	}
	if cfg.UseCache {
		cache, err := fs.NewCache(cfg.CacheDir)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "Hint: Set HARVEST_CACHE_DIR to use a different cache directory\n")
			return nil, err
		}
		opts = append(opts, acquire.WithCache(harvestslog.NewLoggingCache(cache, deps.Logger)))
	}
	if c.RPS > 0 {
		opts = append(opts, acquire.WithRateLimiter(acquire.NewDomainLimiter(c.RPS)))
	}

	acq, err := acquire.NewForConfig(cfg,
		harvestslog.NewLoggingFetcher(deps.HTTPFetcher, deps.Logger),
		harvestslog.NewLoggingFetcher(deps.Renderer, deps.Logger),
		opts...,
	)
	if err != nil {
		return nil, err
	}

	var sink harvest.ModelSink
	if deps.Records != nil {
		sink = harvestslog.NewLoggingSink(deps.Records, deps.Logger)
	}
	engine := extract.NewDefaultEngine(sink, transform.NewDefaultRegistry(),
		extract.WithRaw(c.Raw),
		extract.WithLogger(deps.Logger),
	)

	scrapeOpts := []scrape.Option{
		scrape.WithLogger(deps.Logger),
		scrape.WithNormalizer(charset.NewNormalizer(
			charset.WithLogger(deps.Logger),
			charset.WithSniffing(c.Sniff),
		)),
	}
	if deps.RetryDelays != nil {
		scrapeOpts = append(scrapeOpts, scrape.WithRetryDelays(deps.RetryDelays))
	}

	return scrape.New(acq, engine, scrapeOpts...), nil
}
