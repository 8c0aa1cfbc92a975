// Package transform provides the registry of named pure functions applied by
// the transform strategy.
package transform

import (
	"sort"
	"strings"
	"sync"

	"github.com/fwojciec/harvest"
)

// Ensure Registry implements harvest.TransformRegistry at compile time.
var _ harvest.TransformRegistry = (*Registry)(nil)

// Registry maps function names to transformations. Names are matched
// case-insensitively. Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]harvest.TransformFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]harvest.TransformFunc)}
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (harvest.TransformFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[normalize(name)]
	return fn, ok
}

// Register adds fn under name.
// If a function is already registered under name, it is replaced.
func (r *Registry) Register(name string, fn harvest.TransformFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[normalize(name)] = fn
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
