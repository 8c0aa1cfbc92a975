package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/fwojciec/harvest"
)

var persistSplitRe = regexp.MustCompile(`[\n;]`)

// Ensure Persist implements harvest.Strategy at compile time.
var _ harvest.Strategy = (*Persist)(nil)

// Persist writes the current value into a model field through a ModelSink.
// The pattern names the model and the field separated by ";" or a newline.
type Persist struct {
	sink harvest.ModelSink
}

// NewPersist creates a Persist strategy over sink.
func NewPersist(sink harvest.ModelSink) *Persist {
	return &Persist{sink: sink}
}

// ParsePersistPattern splits pattern into model and field names. Anything
// other than exactly two non-empty parts returns EINVALID.
func ParsePersistPattern(pattern string) (model, field string, err error) {
	parts := persistSplitRe.Split(strings.ReplaceAll(pattern, "\r", ""), -1)
	if len(parts) != 2 {
		return "", "", harvest.Errorf(harvest.EINVALID, "persist pattern %q must be model;field", pattern)
	}
	model, field = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if model == "" || field == "" {
		return "", "", harvest.Errorf(harvest.EINVALID, "persist pattern %q must name a model and a field", pattern)
	}
	return model, field, nil
}

// Apply stores the string form of in and returns the stored Record.
func (p *Persist) Apply(ctx context.Context, in harvest.Value, pattern string, _ harvest.ApplyOptions) (harvest.Value, error) {
	model, field, err := ParsePersistPattern(pattern)
	if err != nil {
		return harvest.Value{}, err
	}
	if p.sink == nil {
		return harvest.Value{}, harvest.Errorf(harvest.EINVALID, "no model sink configured")
	}

	rec, err := p.sink.Store(ctx, model, field, in.String())
	if err != nil {
		return harvest.Value{}, err
	}
	return harvest.RecordValue(rec), nil
}
