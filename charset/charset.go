// Package charset detects the declared encoding of HTML documents and
// re-encodes them to UTF-8.
package charset

import (
	"bytes"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

// MinSniffConfidence is the lowest chardet confidence accepted when sniffing.
const MinSniffConfidence = 50

var (
	httpEquivRe = regexp.MustCompile(`(?i)http-equiv\s*=\s*["']?content-type["']?`)
	charsetRe   = regexp.MustCompile(`(?i)charset\s*=\s*([^\s;>]+)`)
	metaRe      = regexp.MustCompile(`(?i)<meta\s+charset\s*=\s*["']?([^"'\s/>;]+)`)
)

// Normalizer converts documents to UTF-8 according to their declared
// charset. Problems are logged and never fail the caller; the input is
// returned unchanged instead.
type Normalizer struct {
	logger *slog.Logger
	sniff  bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger for detection warnings and decode errors.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithSniffing enables statistical charset detection for documents that
// don't declare an encoding.
func WithSniffing(enabled bool) Option {
	return func(n *Normalizer) {
		n.sniff = enabled
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Detect returns the charset declared by a meta http-equiv Content-Type tag,
// or by an HTML5 meta charset tag. A missing declaration is logged as a
// warning and reported as absent.
func (n *Normalizer) Detect(content string) (string, bool) {
	if loc := httpEquivRe.FindStringIndex(content); loc != nil {
		start := strings.LastIndexByte(content[:loc[0]], '<')
		if start < 0 {
			start = loc[0]
		}
		tag := content[start:]
		if end := strings.IndexByte(tag, '>'); end >= 0 {
			tag = tag[:end]
		}
		if m := charsetRe.FindStringSubmatch(tag); m != nil {
			if cs := cleanLabel(m[1]); cs != "" {
				return cs, true
			}
		}
	}

	if m := metaRe.FindStringSubmatch(content); m != nil {
		if cs := cleanLabel(m[1]); cs != "" {
			return cs, true
		}
	}

	n.logger.Warn("charset declaration not found")
	return "", false
}

// cleanLabel strips quotes, slashes and whitespace from a charset token.
func cleanLabel(s string) string {
	s = strings.NewReplacer(`"`, "", `'`, "", "/", "").Replace(s)
	return strings.TrimSpace(s)
}

// Normalize re-encodes content from the named charset to UTF-8. UTF-8
// labels are a no-op. An unknown label or undecodable input is logged and
// the original bytes are returned.
func (n *Normalizer) Normalize(content []byte, label string) []byte {
	enc, err := htmlindex.Get(label)
	if err != nil {
		n.logger.Error("unknown charset", "charset", label, "err", err)
		return content
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return content
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(content))
	if err != nil {
		n.logger.Error("charset reader", "charset", label, "err", err)
		return content
	}
	out, err := io.ReadAll(r)
	if err != nil {
		n.logger.Error("charset decode", "charset", label, "err", err)
		return content
	}
	return out
}

// NormalizeDocument detects the declared charset of content and re-encodes
// it to UTF-8. Documents without a declaration are returned unchanged unless
// sniffing is enabled.
func (n *Normalizer) NormalizeDocument(content []byte) []byte {
	if label, ok := n.Detect(string(content)); ok {
		return n.Normalize(content, label)
	}
	if !n.sniff {
		return content
	}

	label, ok := n.Sniff(content)
	if !ok {
		return content
	}
	return n.Normalize(content, label)
}

// Sniff guesses the encoding of content statistically. It reports absent
// for UTF-8 and for guesses below MinSniffConfidence.
func (n *Normalizer) Sniff(content []byte) (string, bool) {
	result, err := chardet.NewHtmlDetector().DetectBest(content)
	if err != nil || result == nil {
		n.logger.Debug("charset sniffing failed", "err", err)
		return "", false
	}
	if result.Confidence < MinSniffConfidence || strings.EqualFold(result.Charset, "UTF-8") {
		return "", false
	}
	n.logger.Debug("charset sniffed", "charset", result.Charset, "confidence", result.Confidence)
	return result.Charset, true
}
