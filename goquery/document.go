// Package goquery implements the CSS-selector extraction strategies using
// PuerkitoBio/goquery.
package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/harvest"
)

// bodyRe matches the first body element, shortest match.
var bodyRe = regexp.MustCompile(`(?is)<body.*?</body>`)

// compile parses a CSS selector. cascadia panics on invalid selectors when
// used through Selection.Find, so selectors are compiled up front.
func compile(selector string) (goquery.Matcher, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, harvest.WrapError(harvest.EINVALID, err, "invalid selector %q", selector)
	}
	return m, nil
}

// parse loads content into a document, restricted to the body fragment when
// requested and present.
func parse(content string, bodyOnly bool) (*goquery.Document, error) {
	if bodyOnly {
		if frag := bodyRe.FindString(content); frag != "" {
			content = frag
		}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}

// StripTags returns the text content of an HTML fragment.
func StripTags(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", harvest.WrapError(harvest.EINVALID, err, "parsing HTML")
	}
	return doc.Text(), nil
}
