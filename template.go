package harvest

import (
	"context"
	"strings"
)

// Kind identifies an extraction strategy.
type Kind string

// Supported extraction strategies.
const (
	KindPathQuery    Kind = "xpath"
	KindPatternMatch Kind = "regex"
	KindTableScan    Kind = "tabl"
	KindTransform    Kind = "func"
	KindSelect       Kind = "jq"
	KindPersist      Kind = "save"
)

var kindAliases = map[string]Kind{
	"xpath":              KindPathQuery,
	"path-query":         KindPathQuery,
	"regex":              KindPatternMatch,
	"pattern-match":      KindPatternMatch,
	"tabl":               KindTableScan,
	"table":              KindTableScan,
	"table-scan":         KindTableScan,
	"func":               KindTransform,
	"transform":          KindTransform,
	"jq":                 KindSelect,
	"select":             KindSelect,
	"render-mode-select": KindSelect,
	"save":               KindPersist,
	"persist":            KindPersist,
}

// Kinds returns all supported strategy kinds.
func Kinds() []Kind {
	return []Kind{KindPathQuery, KindPatternMatch, KindTableScan, KindTransform, KindSelect, KindPersist}
}

// ParseKind resolves a strategy name or alias, case-insensitively.
// Returns EINVALID for unknown names.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", Errorf(EINVALID, "unknown template type %q", s)
}

// Template is one extraction step: a strategy and its pattern.
type Template struct {
	Kind    Kind
	Pattern string
}

// ParseTemplate parses the "kind=pattern" form used on the command line.
func ParseTemplate(s string) (Template, error) {
	name, pattern, ok := strings.Cut(s, "=")
	if !ok {
		return Template{}, Errorf(EINVALID, "template %q must have the form type=pattern", s)
	}
	kind, err := ParseKind(name)
	if err != nil {
		return Template{}, err
	}
	return Template{Kind: kind, Pattern: pattern}, nil
}

// Pipeline is an immutable ordered sequence of templates. The output of
// step i is the input of step i+1.
type Pipeline struct {
	templates []Template
}

// NewPipeline returns a pipeline of the given templates.
// Returns EINVALID when no templates are given or a kind is unknown.
func NewPipeline(templates ...Template) (Pipeline, error) {
	if len(templates) == 0 {
		return Pipeline{}, Errorf(EINVALID, "no templates specified")
	}
	tpls := make([]Template, len(templates))
	for i, tpl := range templates {
		kind, err := ParseKind(string(tpl.Kind))
		if err != nil {
			return Pipeline{}, err
		}
		tpls[i] = Template{Kind: kind, Pattern: tpl.Pattern}
	}
	return Pipeline{templates: tpls}, nil
}

// Templates returns a copy of the pipeline steps.
func (p Pipeline) Templates() []Template {
	out := make([]Template, len(p.templates))
	copy(out, p.templates)
	return out
}

// Len returns the number of steps.
func (p Pipeline) Len() int { return len(p.templates) }

// ApplyOptions carries engine-wide settings into a strategy.
type ApplyOptions struct {
	// Raw requests serialized markup instead of text content.
	Raw bool
}

// Strategy is one extraction dialect.
type Strategy interface {
	// Apply runs pattern against in and returns the step output.
	// Configuration problems (bad pattern shape) return EINVALID.
	Apply(ctx context.Context, in Value, pattern string, opts ApplyOptions) (Value, error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(ctx context.Context, in Value, pattern string, opts ApplyOptions) (Value, error)

// Apply calls f.
func (f StrategyFunc) Apply(ctx context.Context, in Value, pattern string, opts ApplyOptions) (Value, error) {
	return f(ctx, in, pattern, opts)
}

// TransformFunc is a named pure transformation applied by the transform
// strategy.
type TransformFunc func(content string) (string, error)

// TransformRegistry resolves transformation functions by name.
type TransformRegistry interface {
	// Lookup returns the function registered under name.
	Lookup(name string) (TransformFunc, bool)

	// Register adds fn under name, replacing any existing entry.
	Register(name string, fn TransformFunc)

	// Names returns all registered names in sorted order.
	Names() []string
}

// ExtractionEngine runs template pipelines over content.
type ExtractionEngine interface {
	// ApplyAll feeds content through every step of p. The boolean is false
	// when content is empty or p has no steps.
	ApplyAll(ctx context.Context, content Value, p Pipeline) (Value, bool, error)
}
