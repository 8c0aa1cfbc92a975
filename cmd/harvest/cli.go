package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	DB      *sqlite.DB
	Records harvest.RecordService

	HTTPFetcher harvest.Fetcher
	Renderer    harvest.Fetcher

	CacheDir    string
	RetryDelays []time.Duration
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging on stderr"`

	Scrape  ScrapeCmd  `cmd:"" help:"Fetch pages and run an extraction pipeline over them"`
	Cache   CacheCmd   `cmd:"" help:"Manage the response cache"`
	Records RecordsCmd `cmd:"" help:"List records written by save steps"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	URLs     []string `arg:"" optional:"" help:"Page URLs"`
	Template []string `short:"t" name:"template" help:"Extraction step as type=pattern (repeatable, in order)"`
	Job      string   `short:"j" help:"YAML job file with urls, templates, raw and captchaMarker"`
	File     string   `short:"f" help:"Extract from a local HTML file instead of fetching"`
	Raw      bool     `help:"Return matched markup instead of text"`

	Proxy     string        `help:"Route requests through host:port"`
	ProxyUser string        `env:"HARVEST_PROXY_USER" help:"Proxy user"`
	ProxyPass string        `env:"HARVEST_PROXY_PASS" help:"Proxy password"`
	Cooldown  time.Duration `default:"30s" help:"Delay before every network fetch through the proxy"`

	Renderer         bool   `short:"r" help:"Render pages in Chrome"`
	RendererEndpoint string `env:"HARVEST_RENDERER_ENDPOINT" help:"DevTools endpoint of a running Chrome (default: launch locally)"`

	Cache         bool          `default:"true" negatable:"" help:"Use the response cache"`
	CaptchaMarker string        `help:"Substring identifying a captcha page"`
	Header        []string      `short:"H" help:"Request header as 'Name: Value' (repeatable)"`
	Sniff         bool          `help:"Guess the encoding of pages without a charset declaration"`
	RPS           float64       `name:"rps" help:"Maximum requests per second per host (0: unlimited)"`
	Concurrency   int           `short:"c" default:"4" help:"Concurrent page limit"`
	Timeout       time.Duration `default:"30s" help:"Timeout per page"`
}

// CacheCmd is the "cache" command group.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Delete every cache entry"`
	Rm    CacheRmCmd    `cmd:"" help:"Delete the cache entries of the given URLs"`
}

// CacheClearCmd is the "cache clear" subcommand.
type CacheClearCmd struct{}

// CacheRmCmd is the "cache rm" subcommand.
type CacheRmCmd struct {
	URLs []string `arg:"" help:"Page URLs"`
}

// RecordsCmd is the "records" subcommand.
type RecordsCmd struct {
	Model  string `short:"m" help:"Only records of this model"`
	Field  string `short:"F" help:"Only records of this field"`
	Limit  int    `short:"n" default:"50" help:"Maximum number of records"`
	Offset int    `help:"Number of records to skip"`
}
