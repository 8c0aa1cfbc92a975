// Package htmlquery implements the XPath extraction strategy using
// antchfx/htmlquery.
package htmlquery

import (
	"context"
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/fwojciec/harvest"
)

// ArrayPrefix forces a List result regardless of the match count.
const ArrayPrefix = "arr:"

// Ensure PathQuery implements harvest.Strategy at compile time.
var _ harvest.Strategy = (*PathQuery)(nil)

// PathQuery evaluates an XPath expression against an HTML document.
//
// Without the arr: prefix, no match yields an empty Text, one match yields
// Text and several yield a List. In raw mode each match is the serialized
// markup of the node instead of its text content.
type PathQuery struct {
	logger *slog.Logger
}

// Option configures a PathQuery.
type Option func(*PathQuery)

// WithLogger sets the logger for document parse problems.
func WithLogger(logger *slog.Logger) Option {
	return func(q *PathQuery) {
		q.logger = logger
	}
}

// NewPathQuery creates a PathQuery strategy.
func NewPathQuery(opts ...Option) *PathQuery {
	q := &PathQuery{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Apply runs the expression in pattern against in. A malformed expression
// returns EINVALID.
func (q *PathQuery) Apply(_ context.Context, in harvest.Value, pattern string, opts harvest.ApplyOptions) (harvest.Value, error) {
	expr, forceList := strings.CutPrefix(pattern, ArrayPrefix)

	content := in.String()
	if content == "" {
		return harvest.TextValue(""), nil
	}

	doc, err := htmlquery.Parse(strings.NewReader(content))
	if err != nil {
		q.logger.Error("xpath: parsing document", "err", err)
		return harvest.TextValue(""), nil
	}

	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return harvest.Value{}, harvest.WrapError(harvest.EINVALID, err, "invalid xpath expression %q", expr)
	}

	items := make([]string, len(nodes))
	for i, node := range nodes {
		if opts.Raw {
			items[i] = htmlquery.OutputHTML(node, true)
		} else {
			items[i] = htmlquery.InnerText(node)
		}
	}

	switch {
	case forceList || len(items) > 1:
		return harvest.ListValue(items...), nil
	case len(items) == 1:
		return harvest.TextValue(items[0]), nil
	default:
		return harvest.TextValue(""), nil
	}
}
