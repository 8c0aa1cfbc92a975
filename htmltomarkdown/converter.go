// Package htmltomarkdown renders extracted HTML fragments as Markdown for the
// markdown transform.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/harvest"
)

var _ harvest.TransformFunc = (*Converter)(nil).Convert

// Converter turns HTML fragments into Markdown. Tables are kept as pipe
// tables.
type Converter struct {
	conv   *converter.Converter
	domain string
}

// Option configures a Converter.
type Option func(*Converter)

// WithDomain resolves relative links and image sources against domain,
// e.g. "https://shop.example".
func WithDomain(domain string) Option {
	return func(c *Converter) {
		c.domain = domain
	}
}

// NewConverter creates a Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert renders fragment as Markdown. A blank fragment yields "".
func (c *Converter) Convert(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}

	var convOpts []converter.ConvertOptionFunc
	if c.domain != "" {
		convOpts = append(convOpts, converter.WithDomain(c.domain))
	}
	md, err := c.conv.ConvertString(fragment, convOpts...)
	if err != nil {
		return "", harvest.WrapError(harvest.EINVALID, err, "converting to markdown")
	}
	return strings.TrimSpace(md), nil
}
