// Package extract dispatches extraction templates to strategies and runs
// template pipelines.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/goquery"
	"github.com/fwojciec/harvest/htmlquery"
)

// Ensure Engine implements harvest.ExtractionEngine at compile time.
var _ harvest.ExtractionEngine = (*Engine)(nil)

// Engine applies templates by dispatching on their kind. Register
// strategies before use; Engine is safe for concurrent Apply and ApplyAll
// calls once configured.
type Engine struct {
	strategies map[harvest.Kind]harvest.Strategy
	raw        bool
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRaw makes markup-producing strategies return serialized markup
// instead of text content.
func WithRaw(raw bool) Option {
	return func(e *Engine) {
		e.raw = raw
	}
}

// WithLogger sets the logger for step tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine with no strategies registered.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		strategies: make(map[harvest.Kind]harvest.Strategy),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDefaultEngine creates an Engine with every built-in strategy. sink may
// be nil, in which case persist steps fail with EINVALID.
func NewDefaultEngine(sink harvest.ModelSink, registry harvest.TransformRegistry, opts ...Option) *Engine {
	e := NewEngine(opts...)
	e.Register(harvest.KindPathQuery, htmlquery.NewPathQuery(htmlquery.WithLogger(e.logger)))
	e.Register(harvest.KindPatternMatch, NewPatternMatch(e.logger))
	e.Register(harvest.KindTableScan, goquery.NewTableScan(goquery.WithLogger(e.logger)))
	e.Register(harvest.KindTransform, NewTransform(registry))
	e.Register(harvest.KindSelect, goquery.NewSelect(goquery.WithLogger(e.logger)))
	e.Register(harvest.KindPersist, NewPersist(sink))
	return e
}

// Register adds s as the strategy for kind.
// If a strategy is already registered for kind, it is replaced.
func (e *Engine) Register(kind harvest.Kind, s harvest.Strategy) {
	e.strategies[kind] = s
}

// Apply runs a single template against in. An unregistered kind returns
// EINVALID.
func (e *Engine) Apply(ctx context.Context, in harvest.Value, tpl harvest.Template) (out harvest.Value, err error) {
	if err := ctx.Err(); err != nil {
		return harvest.Value{}, err
	}

	s, ok := e.strategies[tpl.Kind]
	if !ok {
		return harvest.Value{}, harvest.Errorf(harvest.EINVALID, "no strategy registered for template type %q", tpl.Kind)
	}

	defer func(begin time.Time) {
		e.logger.Debug("apply",
			"kind", tpl.Kind,
			"in", in.Type(),
			"out", out.Type(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())

	return s.Apply(ctx, in, tpl.Pattern, harvest.ApplyOptions{Raw: e.raw})
}

// ApplyAll runs the pipeline over content, feeding each step's output into
// the next. It reports false without running any step when content is
// empty or the pipeline has no steps. The first failing step aborts the
// pipeline.
func (e *Engine) ApplyAll(ctx context.Context, content harvest.Value, p harvest.Pipeline) (harvest.Value, bool, error) {
	if content.IsEmpty() || p.Len() == 0 {
		return content, false, nil
	}

	v := content
	for i, tpl := range p.Templates() {
		out, err := e.Apply(ctx, v, tpl)
		if err != nil {
			e.logger.Error("pipeline step failed", "step", i, "kind", tpl.Kind, "err", err)
			return harvest.Value{}, false, err
		}
		v = out
	}
	return v, true, nil
}
