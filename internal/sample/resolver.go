package sample

import (
	"path/filepath"

	"github.com/bactopia/bactopia-parser/internal/category"
	"github.com/bactopia/bactopia-parser/internal/parser"
)

// Resolver asks each structured category where its files live.
type Resolver struct {
	registry *parser.Registry
}

// NewResolver creates a resolver backed by the registry's discoverers.
func NewResolver(registry *parser.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// ResolveFiles returns the file expectations for every structured
// category, keyed by the category's storage name (for example
// "quality-control" rather than "qc"). Categories whose parser has no
// discovery rule are left out.
func (r *Resolver) ResolveFiles(root, sample string) map[string][]parser.FileExpectation {
	dir := filepath.Join(root, sample)
	out := make(map[string][]parser.FileExpectation)
	for _, c := range category.Structured() {
		d, ok := r.registry.Discoverer(c)
		if !ok {
			continue
		}
		out[category.StorageKey(c)] = d.ParsableList(dir, sample)
	}
	return out
}
