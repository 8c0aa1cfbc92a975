package scrape_test

import (
	"context"
	"sync"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/extract"
	"github.com/fwojciec/harvest/mock"
	"github.com/fwojciec/harvest/scrape"
	"github.com/fwojciec/harvest/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const productPage = `<html><head><title>Lamp</title></head><body>
<h1>Yellow lamp</h1>
<table id="specs">
<tr><td>Color</td><td>Yellow</td></tr>
<tr><td>Power</td><td>40 W</td></tr>
</table>
</body></html>`

func pipeline(t *testing.T, tpls ...harvest.Template) harvest.Pipeline {
	t.Helper()
	p, err := harvest.NewPipeline(tpls...)
	require.NoError(t, err)
	return p
}

// acquirerFor serves bodies by URL.
func acquirerFor(pages map[string]string) *mock.ContentAcquirer {
	return &mock.ContentAcquirer{
		AcquireFn: func(_ context.Context, url string) (*harvest.FetchResult, error) {
			body, ok := pages[url]
			if !ok {
				return &harvest.FetchResult{URL: url, StatusCode: 404}, harvest.Errorf(harvest.ESTATUS, "response code 404 from %s", url)
			}
			return &harvest.FetchResult{URL: url, Body: []byte(body), StatusCode: 200}, nil
		},
	}
}

func newEngine() *extract.Engine {
	return extract.NewDefaultEngine(nil, transform.NewDefaultRegistry())
}

func TestScraper_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("acquires and extracts", func(t *testing.T) {
		t.Parallel()

		s := scrape.New(acquirerFor(map[string]string{"https://shop.example/1": productPage}), newEngine(), scrape.WithRetryDelays(nil))

		res, err := s.Scrape(context.Background(), "https://shop.example/1", pipeline(t,
			harvest.Template{Kind: harvest.KindTableScan, Pattern: "tr"},
		))
		require.NoError(t, err)

		assert.True(t, res.Extracted)
		assert.Equal(t, "https://shop.example/1", res.URL)
		assert.Equal(t, 200, res.StatusCode)
		require.Equal(t, harvest.TypeTable, res.Value.Type())
		assert.Equal(t, map[string]string{"Color": "Yellow", "Power": "40 W"}, res.Value.Table().Map())
	})

	t.Run("converts declared charset to UTF-8", func(t *testing.T) {
		t.Parallel()

		page := `<html><head><meta http-equiv="Content-Type" content="text/html; charset=windows-1251"></head><body><h1>Привет</h1></body></html>`
		encoded, err := charmap.Windows1251.NewEncoder().String(page)
		require.NoError(t, err)

		s := scrape.New(acquirerFor(map[string]string{"https://ru.example/": encoded}), newEngine(), scrape.WithRetryDelays(nil))

		res, err := s.Scrape(context.Background(), "https://ru.example/", pipeline(t,
			harvest.Template{Kind: harvest.KindSelect, Pattern: "h1"},
		))
		require.NoError(t, err)

		assert.Equal(t, "Привет", res.Value.Text())
	})

	t.Run("empty page is not extracted", func(t *testing.T) {
		t.Parallel()

		s := scrape.New(acquirerFor(map[string]string{"https://shop.example/empty": ""}), newEngine(), scrape.WithRetryDelays(nil))

		res, err := s.Scrape(context.Background(), "https://shop.example/empty", pipeline(t,
			harvest.Template{Kind: harvest.KindSelect, Pattern: "h1"},
		))
		require.NoError(t, err)

		assert.False(t, res.Extracted)
	})

	t.Run("status error keeps the status code", func(t *testing.T) {
		t.Parallel()

		s := scrape.New(acquirerFor(nil), newEngine(), scrape.WithRetryDelays(nil))

		res, err := s.Scrape(context.Background(), "https://shop.example/missing", pipeline(t,
			harvest.Template{Kind: harvest.KindSelect, Pattern: "h1"},
		))

		assert.Equal(t, harvest.ESTATUS, harvest.ErrorCode(err))
		require.NotNil(t, res)
		assert.Equal(t, 404, res.StatusCode)
	})

	t.Run("retries transport failures", func(t *testing.T) {
		t.Parallel()

		var attempts int
		acq := &mock.ContentAcquirer{
			AcquireFn: func(_ context.Context, url string) (*harvest.FetchResult, error) {
				attempts++
				if attempts == 1 {
					return nil, harvest.Errorf(harvest.EFETCH, "connection reset")
				}
				return &harvest.FetchResult{URL: url, Body: []byte(productPage), StatusCode: 200}, nil
			},
		}
		s := scrape.New(acq, newEngine(), scrape.WithRetryDelays(noDelays))

		res, err := s.Scrape(context.Background(), "https://shop.example/1", pipeline(t,
			harvest.Template{Kind: harvest.KindSelect, Pattern: "h1"},
		))
		require.NoError(t, err)

		assert.Equal(t, 2, attempts)
		assert.Equal(t, "Yellow lamp", res.Value.Text())
	})

	t.Run("does not retry captcha", func(t *testing.T) {
		t.Parallel()

		var attempts int
		acq := &mock.ContentAcquirer{
			AcquireFn: func(context.Context, string) (*harvest.FetchResult, error) {
				attempts++
				return nil, harvest.Errorf(harvest.ECAPTCHA, "captcha detected")
			},
		}
		s := scrape.New(acq, newEngine(), scrape.WithRetryDelays(noDelays))

		_, err := s.Scrape(context.Background(), "https://shop.example/1", pipeline(t,
			harvest.Template{Kind: harvest.KindSelect, Pattern: "h1"},
		))

		assert.Equal(t, harvest.ECAPTCHA, harvest.ErrorCode(err))
		assert.Equal(t, 1, attempts)
	})

	t.Run("pipeline error is returned", func(t *testing.T) {
		t.Parallel()

		s := scrape.New(acquirerFor(map[string]string{"https://shop.example/1": productPage}), newEngine(), scrape.WithRetryDelays(nil))

		_, err := s.Scrape(context.Background(), "https://shop.example/1", pipeline(t,
			harvest.Template{Kind: harvest.KindPersist, Pattern: "product;title"},
		))

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err), "persist without a sink")
	})
}

func TestScraper_ScrapeContent(t *testing.T) {
	t.Parallel()

	s := scrape.New(&mock.ContentAcquirer{}, newEngine())

	res, err := s.ScrapeContent(context.Background(), "<ul><li>1 kg</li><li>25 kg</li></ul>", pipeline(t,
		harvest.Template{Kind: harvest.KindPathQuery, Pattern: "arr://li"},
		harvest.Template{Kind: harvest.KindPatternMatch, Pattern: `/(\d+)/`},
	))
	require.NoError(t, err)

	assert.True(t, res.Extracted)
	assert.Equal(t, []string{"1", "25"}, res.Value.List())
}

func TestScraper_ScrapeAll(t *testing.T) {
	t.Parallel()

	t.Run("returns results in input order", func(t *testing.T) {
		t.Parallel()

		pages := map[string]string{
			"https://shop.example/1": "<html><body><h1>One</h1></body></html>",
			"https://shop.example/2": "<html><body><h1>Two</h1></body></html>",
			"https://shop.example/3": "<html><body><h1>Three</h1></body></html>",
		}
		s := scrape.New(acquirerFor(pages), newEngine(), scrape.WithRetryDelays(nil))
		urls := []string{"https://shop.example/3", "https://shop.example/1", "https://shop.example/missing", "https://shop.example/2"}

		var mu sync.Mutex
		var events []scrape.ProgressType
		results := s.ScrapeAll(context.Background(), urls, pipeline(t,
			harvest.Template{Kind: harvest.KindSelect, Pattern: "h1"},
		), 2, func(e scrape.ProgressEvent) {
			mu.Lock()
			events = append(events, e.Type)
			mu.Unlock()
		})

		require.Len(t, results, 4)
		assert.Equal(t, "Three", results[0].Value.Text())
		assert.Equal(t, "One", results[1].Value.Text())
		assert.Equal(t, "https://shop.example/missing", results[2].URL)
		assert.Contains(t, results[2].Error, "response code 404")
		assert.Equal(t, "Two", results[3].Value.Text())

		require.Len(t, events, 6)
		assert.Equal(t, scrape.ProgressStarted, events[0])
		assert.Equal(t, scrape.ProgressFinished, events[5])
		assert.Contains(t, events, scrape.ProgressFailed)
	})

	t.Run("empty url list", func(t *testing.T) {
		t.Parallel()

		s := scrape.New(acquirerFor(nil), newEngine())

		results := s.ScrapeAll(context.Background(), nil, pipeline(t,
			harvest.Template{Kind: harvest.KindSelect, Pattern: "h1"},
		), 0, nil)

		assert.Empty(t, results)
	})
}
