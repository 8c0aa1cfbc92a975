package extract

import (
	"context"
	"strings"

	"github.com/fwojciec/harvest"
)

// ChainSeparator separates function names applied in sequence.
const ChainSeparator = "|"

// Ensure Transform implements harvest.Strategy at compile time.
var _ harvest.Strategy = (*Transform)(nil)

// Transform applies named functions from a registry. A pattern such as
// "strip-tags|squash" applies the functions left to right. List items are
// transformed one by one; other values are transformed as their string
// form.
type Transform struct {
	registry harvest.TransformRegistry
}

// NewTransform creates a Transform strategy over registry.
func NewTransform(registry harvest.TransformRegistry) *Transform {
	return &Transform{registry: registry}
}

// Apply runs the functions named by pattern. Empty content or an empty
// pattern yields an empty Text. An unknown name returns EINVALID.
func (t *Transform) Apply(_ context.Context, in harvest.Value, pattern string, _ harvest.ApplyOptions) (harvest.Value, error) {
	if strings.TrimSpace(pattern) == "" || in.IsEmpty() {
		return harvest.TextValue(""), nil
	}

	fns, err := t.resolve(pattern)
	if err != nil {
		return harvest.Value{}, err
	}

	if in.Type() == harvest.TypeList {
		items := in.List()
		out := make([]string, len(items))
		for i, item := range items {
			if out[i], err = run(fns, item); err != nil {
				return harvest.Value{}, err
			}
		}
		return harvest.ListValue(out...), nil
	}

	s, err := run(fns, in.String())
	if err != nil {
		return harvest.Value{}, err
	}
	return harvest.TextValue(s), nil
}

type namedFunc struct {
	name string
	fn   harvest.TransformFunc
}

func (t *Transform) resolve(pattern string) ([]namedFunc, error) {
	if t.registry == nil {
		return nil, harvest.Errorf(harvest.EINVALID, "no transform functions configured")
	}

	var fns []namedFunc
	for _, name := range strings.Split(pattern, ChainSeparator) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fn, ok := t.registry.Lookup(name)
		if !ok {
			return nil, harvest.Errorf(harvest.EINVALID, "unknown transform function %q", name)
		}
		fns = append(fns, namedFunc{name: name, fn: fn})
	}
	return fns, nil
}

func run(fns []namedFunc, s string) (string, error) {
	for _, f := range fns {
		if s == "" {
			return "", nil
		}
		out, err := f.fn(s)
		if err != nil {
			if harvest.ErrorCode(err) != harvest.EINTERNAL {
				return "", err
			}
			return "", harvest.WrapError(harvest.EINTERNAL, err, "transform %q", f.name)
		}
		s = out
	}
	return s, nil
}
