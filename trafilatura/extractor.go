// Package trafilatura extracts the main content of a page with
// go-trafilatura, for use as a transform function.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/harvest"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor.MainContent is a harvest.TransformFunc at compile time.
var _ harvest.TransformFunc = (*Extractor)(nil).MainContent

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct {
	opts trafilatura.Options
}

// NewExtractor creates a new Extractor with fallback extractors enabled.
func NewExtractor() *Extractor {
	return &Extractor{
		opts: trafilatura.Options{
			EnableFallback: true,
		},
	}
}

// MainContent returns the main content of rawHTML as HTML, with navigation,
// sidebars and footers removed.
func (e *Extractor) MainContent(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", harvest.Errorf(harvest.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return "", err
	}
	if result.ContentNode == nil {
		return "", nil
	}
	return renderNode(result.ContentNode)
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
