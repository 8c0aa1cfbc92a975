package goquery

import "log/slog"

type options struct {
	logger  *slog.Logger
	layouts *Layouts
}

// Option configures the strategies in this package.
type Option func(*options)

// WithLogger sets the logger for content and parse problems.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLayouts sets the named table layouts used by TableScan.
func WithLayouts(layouts *Layouts) Option {
	return func(o *options) {
		o.layouts = layouts
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.layouts == nil {
		o.layouts = DefaultLayouts()
	}
	return o
}
