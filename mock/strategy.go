package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.Strategy = (*Strategy)(nil)

// Strategy is a mock implementation of harvest.Strategy.
type Strategy struct {
	ApplyFn func(ctx context.Context, in harvest.Value, pattern string, opts harvest.ApplyOptions) (harvest.Value, error)
}

func (s *Strategy) Apply(ctx context.Context, in harvest.Value, pattern string, opts harvest.ApplyOptions) (harvest.Value, error) {
	return s.ApplyFn(ctx, in, pattern, opts)
}

var _ harvest.TransformRegistry = (*TransformRegistry)(nil)

// TransformRegistry is a mock implementation of harvest.TransformRegistry.
type TransformRegistry struct {
	LookupFn   func(name string) (harvest.TransformFunc, bool)
	RegisterFn func(name string, fn harvest.TransformFunc)
	NamesFn    func() []string
}

func (r *TransformRegistry) Lookup(name string) (harvest.TransformFunc, bool) {
	return r.LookupFn(name)
}

func (r *TransformRegistry) Register(name string, fn harvest.TransformFunc) {
	r.RegisterFn(name, fn)
}

func (r *TransformRegistry) Names() []string {
	return r.NamesFn()
}

var _ harvest.ExtractionEngine = (*ExtractionEngine)(nil)

// ExtractionEngine is a mock implementation of harvest.ExtractionEngine.
type ExtractionEngine struct {
	ApplyAllFn func(ctx context.Context, content harvest.Value, p harvest.Pipeline) (harvest.Value, bool, error)
}

func (e *ExtractionEngine) ApplyAll(ctx context.Context, content harvest.Value, p harvest.Pipeline) (harvest.Value, bool, error) {
	return e.ApplyAllFn(ctx, content, p)
}
