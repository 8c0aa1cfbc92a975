package goquery

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

// RawPrefix requests markup output for a single select step.
const RawPrefix = "raw:"

// Ensure Select implements harvest.Strategy at compile time.
var _ harvest.Strategy = (*Select)(nil)

// Select finds elements by CSS selector inside the document body and
// returns their concatenated text, or their concatenated outer HTML in raw
// mode. No match yields an empty Text.
type Select struct {
	logger *slog.Logger
}

// NewSelect creates a Select strategy.
func NewSelect(opts ...Option) *Select {
	o := newOptions(opts)
	return &Select{logger: o.logger}
}

// Apply runs the selector in pattern against in. A raw: prefix forces markup
// output for this step. An invalid selector returns EINVALID.
func (s *Select) Apply(_ context.Context, in harvest.Value, pattern string, opts harvest.ApplyOptions) (harvest.Value, error) {
	selector, raw := strings.CutPrefix(pattern, RawPrefix)
	raw = raw || opts.Raw

	if !in.IsStringLike() {
		s.logger.Error("select: content is not a string", "type", in.Type())
		return harvest.TextValue(""), nil
	}

	m, err := compile(selector)
	if err != nil {
		return harvest.Value{}, err
	}

	doc, err := parse(in.String(), true)
	if err != nil {
		s.logger.Error("select: parsing document", "err", err)
		return harvest.TextValue(""), nil
	}

	sel := doc.FindMatcher(m)
	if sel.Length() == 0 {
		return harvest.TextValue(""), nil
	}

	if !raw {
		return harvest.TextValue(sel.Text()), nil
	}

	var b strings.Builder
	sel.Each(func(_ int, item *goquery.Selection) {
		html, err := goquery.OuterHtml(item)
		if err != nil {
			s.logger.Error("select: rendering match", "err", err)
			return
		}
		b.WriteString(html)
	})
	return harvest.TextValue(b.String()), nil
}
