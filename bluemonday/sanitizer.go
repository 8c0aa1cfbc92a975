// Package bluemonday sanitizes untrusted HTML with microcosm-cc/bluemonday,
// for use as a transform function.
package bluemonday

import (
	"github.com/fwojciec/harvest"
	"github.com/microcosm-cc/bluemonday"
)

// Ensure Sanitizer.Sanitize is a harvest.TransformFunc at compile time.
var _ harvest.TransformFunc = (*Sanitizer)(nil).Sanitize

// Sanitizer removes scripts, styles and unsafe attributes from HTML.
// Sanitizer is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer using the user-generated-content policy.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// NewStrictSanitizer creates a Sanitizer that removes every element and
// keeps only text.
func NewStrictSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize returns content with disallowed markup removed.
func (s *Sanitizer) Sanitize(content string) (string, error) {
	return s.policy.Sanitize(content), nil
}
