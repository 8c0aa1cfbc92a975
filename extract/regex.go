package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/fwojciec/harvest"
)

// Delimiters accepted around a pattern in the /expr/flags form.
const patternDelimiters = "/#~"

// Letters that may follow the closing delimiter. Only i, m, s, U and u are
// supported; the rest are rejected with EINVALID.
const patternModifiers = "imsuxADSUXJe"

// Ensure PatternMatch implements harvest.Strategy at compile time.
var _ harvest.Strategy = (*PatternMatch)(nil)

// PatternMatch applies a regular expression to string-like content.
//
// The result is a List of capture groups 1..n of every match in match
// order, or of the whole matches when the expression has no groups. No match
// yields an empty Text. Lists are matched against their newline-joined
// items; tables and records are rejected with a logged error and an empty
// List.
type PatternMatch struct {
	logger *slog.Logger
	cache  sync.Map
}

// NewPatternMatch creates a PatternMatch strategy. A nil logger discards.
func NewPatternMatch(logger *slog.Logger) *PatternMatch {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PatternMatch{logger: logger}
}

// Apply matches pattern against in. Invalid expressions are logged and
// yield an empty Text.
func (p *PatternMatch) Apply(_ context.Context, in harvest.Value, pattern string, _ harvest.ApplyOptions) (harvest.Value, error) {
	if !in.IsStringLike() {
		p.logger.Error("regex: content is not a string", "type", in.Type())
		return harvest.ListValue(), nil
	}

	re, err := p.compile(pattern)
	if err != nil {
		p.logger.Error("regex: invalid expression", "pattern", pattern, "err", err)
		return harvest.TextValue(""), nil
	}

	matches := re.FindAllStringSubmatch(in.String(), -1)
	if len(matches) == 0 {
		return harvest.TextValue(""), nil
	}

	var items []string
	for _, m := range matches {
		if len(m) == 1 {
			items = append(items, m[0])
			continue
		}
		items = append(items, m[1:]...)
	}
	return harvest.ListValue(items...), nil
}

func (p *PatternMatch) compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := p.cache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	expr, err := TranslatePattern(pattern)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	p.cache.Store(pattern, re)
	return re, nil
}

// TranslatePattern converts a delimited /expr/flags pattern into RE2
// syntax with inline flags. Flags i, m, s and U map to their RE2
// equivalents and u is accepted as a no-op. A pattern counts as delimited
// only when everything after its closing delimiter is modifier letters;
// anything else, such as /item/(\d+), is returned unchanged.
func TranslatePattern(pattern string) (string, error) {
	if len(pattern) < 2 || !strings.ContainsRune(patternDelimiters, rune(pattern[0])) {
		return pattern, nil
	}
	delim := pattern[0]
	end := strings.LastIndexByte(pattern, delim)
	if end == 0 {
		return pattern, nil
	}

	expr, mods := pattern[1:end], pattern[end+1:]
	if strings.Trim(mods, patternModifiers) != "" {
		return pattern, nil
	}
	var flags strings.Builder
	for _, r := range mods {
		switch r {
		case 'i', 'm', 's', 'U':
			if !strings.ContainsRune(flags.String(), r) {
				flags.WriteRune(r)
			}
		case 'u':
		default:
			return "", harvest.Errorf(harvest.EINVALID, "unsupported regex flag %q", r)
		}
	}
	if flags.Len() == 0 {
		return expr, nil
	}
	return "(?" + flags.String() + ")" + expr, nil
}
