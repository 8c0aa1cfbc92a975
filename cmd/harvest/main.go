// Command harvest fetches pages and extracts structured values from them.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/harvest"
	harvesthttp "github.com/fwojciec/harvest/http"
	"github.com/fwojciec/harvest/rod"
	"github.com/fwojciec/harvest/sqlite"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Response cache directory. Set before calling Run().
	CacheDir string

	// Backoff between acquisition retries. Nil uses the scraper default.
	RetryDelays []time.Duration

	// SQLite database used by the record service.
	DB *sqlite.DB

	// Fetchers for end-to-end testing. Nil fields are created on demand.
	HTTPFetcher harvest.Fetcher
	Renderer    harvest.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:   defaultDBPath(),
		CacheDir: defaultCacheDir(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:         ctx,
		Stdout:      stdout,
		Stderr:      stderr,
		CacheDir:    m.CacheDir,
		RetryDelays: m.RetryDelays,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("harvest"),
		kong.Description("Fetch pages and extract structured values through template pipelines"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'harvest --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	// Global flags may precede the command name.
	cmd = strings.Fields(kongCtx.Command())[0]

	if cmd == "scrape" || cmd == "records" {
		m.DB = sqlite.NewDB(m.DBPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set HARVEST_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
		}
		defer m.Close()

		deps.DB = m.DB
		deps.Records = sqlite.NewRecordService(m.DB)
	}

	if cmd == "scrape" {
		timeout := cli.Scrape.Timeout
		if timeout <= 0 {
			timeout = harvesthttp.DefaultFetchTimeout
		}

		deps.HTTPFetcher = m.HTTPFetcher
		if deps.HTTPFetcher == nil {
			deps.HTTPFetcher = harvesthttp.NewFetcher(harvesthttp.WithTimeout(timeout))
		}

		deps.Renderer = m.Renderer
		if deps.Renderer == nil {
			renderer := rod.NewFetcher(
				rod.WithFetchTimeout(timeout),
				rod.WithEndpoint(cli.Scrape.RendererEndpoint),
			)
			defer renderer.Close()
			deps.Renderer = renderer
		}
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("HARVEST_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "harvest.db"
	}
	dir := filepath.Join(home, ".harvest")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "harvest.db")
}

func defaultCacheDir() string {
	if dir := os.Getenv("HARVEST_CACHE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "harvest-cache")
	}
	return filepath.Join(home, ".harvest", "cache")
}
