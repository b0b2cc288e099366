package parser

import (
	"fmt"
	"os"

	"github.com/bactopia/bactopia-parser/internal/category"
)

// Registry maps each category to its parser.
type Registry struct {
	parsers map[category.Category]Parser
}

// Option configures the default registry.
type Option func(*registryConfig)

type registryConfig struct {
	minmersLimit int
}

// WithMinmersLimit caps the number of sourmash matches kept per report.
// Zero keeps all matches.
func WithMinmersLimit(n int) Option {
	return func(c *registryConfig) {
		c.minmersLimit = n
	}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[category.Category]Parser)}
}

// NewDefaultRegistry returns a registry holding every built-in parser.
func NewDefaultRegistry(opts ...Option) *Registry {
	cfg := registryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := NewRegistry()
	r.Register(amrParser{})
	r.Register(annotationParser{})
	r.Register(aribaParser{})
	r.Register(assemblyParser{})
	r.Register(blastParser{})
	r.Register(errorParser{})
	r.Register(mappingParser{})
	r.Register(minmersParser{limit: cfg.minmersLimit})
	r.Register(mlstParser{})
	r.Register(qcParser{})
	r.Register(variantsParser{})
	return r
}

// Register adds or replaces the parser for p's category.
func (r *Registry) Register(p Parser) {
	r.parsers[p.Category()] = p
}

// Get returns the parser for a category.
func (r *Registry) Get(c category.Category) (Parser, bool) {
	p, ok := r.parsers[c]
	return p, ok
}

// Discoverer returns the file-discovery rule for a category, if its parser
// has one.
func (r *Registry) Discoverer(c category.Category) (Discoverer, bool) {
	p, ok := r.parsers[c]
	if !ok {
		return nil, false
	}
	d, ok := p.(Discoverer)
	return d, ok
}

// Parse validates resultType and every input path, then hands the files to
// the category's parser. An unknown type is rejected before any file is
// touched.
func (r *Registry) Parse(resultType string, files ...string) (any, error) {
	c, err := category.Parse(resultType)
	if err != nil {
		return nil, err
	}
	p, ok := r.parsers[c]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' has no parser", category.ErrUnsupported, resultType)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, err
		}
	}
	rec, err := p.Parse(files...)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c, err)
	}
	return rec, nil
}
