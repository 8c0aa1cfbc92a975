package goquery

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

// Ensure TableScan implements harvest.Strategy at compile time.
var _ harvest.Strategy = (*TableScan)(nil)

// TableScan turns tabular markup into a key/value Table.
//
// The pattern is either a layout name ("tr", "dl", "auto", or any
// registered layout; empty means "tr") or four "|"-separated parts
// "name|row|attr|value" giving the selectors directly. Within each row the
// i-th attribute cell is paired with the i-th value cell; pairs with a
// missing or empty side, or whose sides are the same element, are skipped
// and later keys overwrite earlier ones.
type TableScan struct {
	logger  *slog.Logger
	layouts *Layouts
}

// NewTableScan creates a TableScan strategy.
func NewTableScan(opts ...Option) *TableScan {
	o := newOptions(opts)
	return &TableScan{logger: o.logger, layouts: o.layouts}
}

// Apply scans in for key/value pairs. Malformed patterns and unknown layout
// names return EINVALID.
func (s *TableScan) Apply(_ context.Context, in harvest.Value, pattern string, opts harvest.ApplyOptions) (harvest.Value, error) {
	if !in.IsStringLike() {
		s.logger.Error("table: content is not a string", "type", in.Type())
		return harvest.TableValue(harvest.NewTable()), nil
	}

	doc, err := parse(in.String(), false)
	if err != nil {
		s.logger.Error("table: parsing document", "err", err)
		return harvest.TableValue(harvest.NewTable()), nil
	}

	layout, err := s.resolve(pattern, doc)
	if err != nil {
		return harvest.Value{}, err
	}

	rowM, err := compile(layout.Row)
	if err != nil {
		return harvest.Value{}, err
	}
	attrM, err := compile(layout.Attr)
	if err != nil {
		return harvest.Value{}, err
	}
	valM, err := compile(layout.Value)
	if err != nil {
		return harvest.Value{}, err
	}

	cell := func(sel *goquery.Selection) string {
		if opts.Raw {
			html, _ := sel.Html()
			return strings.TrimSpace(html)
		}
		return strings.TrimSpace(sel.Text())
	}

	table := harvest.NewTable()
	doc.FindMatcher(rowM).Each(func(_ int, row *goquery.Selection) {
		attrs := row.FindMatcher(attrM)
		vals := row.FindMatcher(valM)
		for i := 0; i < attrs.Length() && i < vals.Length(); i++ {
			if attrs.Get(i) == vals.Get(i) {
				continue
			}
			name := cell(attrs.Eq(i))
			value := cell(vals.Eq(i))
			if name == "" || value == "" {
				continue
			}
			table.Set(name, value)
		}
	})

	return harvest.TableValue(table), nil
}

func (s *TableScan) resolve(pattern string, doc *goquery.Document) (Layout, error) {
	parts := strings.Split(pattern, "|")
	switch len(parts) {
	case 4:
		return Layout{Row: parts[1], Attr: parts[2], Value: parts[3]}, nil
	case 1:
		name := strings.TrimSpace(parts[0])
		switch name {
		case "":
			name = LayoutTable
		case LayoutAuto:
			name = DetectLayout(doc)
		}
		layout, ok := s.layouts.Get(name)
		if !ok {
			return Layout{}, harvest.Errorf(harvest.EINVALID, "unknown table layout %q", name)
		}
		return layout, nil
	}
	return Layout{}, harvest.Errorf(harvest.EINVALID, "table pattern %q must be a layout name or name|row|attr|value", pattern)
}
