package transform

import (
	"regexp"
	"strings"

	"github.com/fwojciec/harvest/bluemonday"
	"github.com/fwojciec/harvest/goquery"
	"github.com/fwojciec/harvest/htmltomarkdown"
	"github.com/fwojciec/harvest/readability"
	"github.com/fwojciec/harvest/trafilatura"
)

// Built-in function names.
const (
	FuncTrim        = "trim"
	FuncLower       = "lower"
	FuncUpper       = "upper"
	FuncSquash      = "squash"
	FuncDigits      = "digits"
	FuncNumber      = "number"
	FuncStripTags   = "strip-tags"
	FuncSanitize    = "sanitize"
	FuncMarkdown    = "markdown"
	FuncMainContent = "main-content"
	FuncReadability = "readability"
)

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	nonDigit = regexp.MustCompile(`\D+`)
	numberRe = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

	thousandsRe = regexp.MustCompile(`(\d)[\s\x{00A0}\x{202F}]+(\d{3})\b`)
)

// NewDefaultRegistry returns a Registry holding every built-in function.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FuncTrim, Trim)
	r.Register(FuncLower, Lower)
	r.Register(FuncUpper, Upper)
	r.Register(FuncSquash, Squash)
	r.Register(FuncDigits, Digits)
	r.Register(FuncNumber, Number)
	r.Register(FuncStripTags, goquery.StripTags)
	r.Register(FuncSanitize, bluemonday.NewSanitizer().Sanitize)
	r.Register(FuncMarkdown, htmltomarkdown.NewConverter().Convert)
	r.Register(FuncMainContent, trafilatura.NewExtractor().MainContent)
	r.Register(FuncReadability, readability.Extract)
	return r
}

// Trim removes leading and trailing whitespace.
func Trim(s string) (string, error) { return strings.TrimSpace(s), nil }

// Lower maps s to lower case.
func Lower(s string) (string, error) { return strings.ToLower(s), nil }

// Upper maps s to upper case.
func Upper(s string) (string, error) { return strings.ToUpper(s), nil }

// Squash collapses every run of whitespace into one space and trims the
// result.
func Squash(s string) (string, error) {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " ")), nil
}

// Digits keeps only the decimal digits of s.
func Digits(s string) (string, error) {
	return nonDigit.ReplaceAllString(s, ""), nil
}

// Number returns the first decimal number in s with a comma decimal
// separator normalized to a dot. Digit groups separated by spaces are joined
// first. Returns an empty string when s holds no number.
func Number(s string) (string, error) {
	for thousandsRe.MatchString(s) {
		s = thousandsRe.ReplaceAllString(s, "$1$2")
	}
	m := numberRe.FindString(s)
	return strings.Replace(m, ",", ".", 1), nil
}
