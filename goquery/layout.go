package goquery

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Layout describes how key/value pairs are laid out in a document: each
// element matching Row holds attribute cells matching Attr and value cells
// matching Value.
type Layout struct {
	Row   string
	Attr  string
	Value string
}

// Built-in layout names.
const (
	LayoutTable      = "tr"
	LayoutDefinition = "dl"
	LayoutAuto       = "auto"
)

// Layouts manages named table layouts. It is not safe for concurrent
// registration; register layouts before use.
type Layouts struct {
	layouts map[string]Layout
}

// NewLayouts creates an empty layout registry.
func NewLayouts() *Layouts {
	return &Layouts{layouts: make(map[string]Layout)}
}

// DefaultLayouts returns a registry holding the table row and definition
// list layouts.
func DefaultLayouts() *Layouts {
	l := NewLayouts()
	l.Register(LayoutTable, Layout{Row: "tr", Attr: "td", Value: "td:nth-child(2)"})
	l.Register(LayoutDefinition, Layout{Row: "dl", Attr: "dt", Value: "dd"})
	return l
}

// Get returns the layout registered under name.
func (l *Layouts) Get(name string) (Layout, bool) {
	layout, ok := l.layouts[strings.ToLower(name)]
	return layout, ok
}

// Register adds a layout under name.
// If a layout is already registered under name, it is replaced.
func (l *Layouts) Register(name string, layout Layout) {
	l.layouts[strings.ToLower(name)] = layout
}

// List returns all registered layout names in sorted order.
func (l *Layouts) List() []string {
	names := make([]string, 0, len(l.layouts))
	for name := range l.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectLayout picks the built-in layout that fits doc: definition lists
// when the document has dt/dd pairs but no table cells, table rows
// otherwise.
func DetectLayout(doc *goquery.Document) string {
	if doc.Find("td").Length() == 0 && doc.Find("dl dt").Length() > 0 {
		return LayoutDefinition
	}
	return LayoutTable
}
