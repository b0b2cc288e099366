package run

import (
	"sort"
	"sync"

	"github.com/bactopia/bactopia-parser/internal/parser"
)

// Failures collects the samples that reported each error kind. It lives
// as long as the caller keeps it; Aggregate only appends.
type Failures struct {
	mu      sync.Mutex
	samples map[parser.ErrorKind][]string
}

// NewFailures creates an empty accumulator.
func NewFailures() *Failures {
	return &Failures{samples: make(map[parser.ErrorKind][]string)}
}

// Add records that sample reported kind.
func (f *Failures) Add(kind parser.ErrorKind, sample string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[kind] = append(f.samples[kind], sample)
}

// Samples returns the samples recorded for kind.
func (f *Failures) Samples(kind parser.ErrorKind) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.samples[kind]))
	copy(out, f.samples[kind])
	return out
}

// Snapshot returns a copy of every recorded kind.
func (f *Failures) Snapshot() map[parser.ErrorKind][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[parser.ErrorKind][]string, len(f.samples))
	for kind, names := range f.samples {
		cp := make([]string, len(names))
		copy(cp, names)
		out[kind] = cp
	}
	return out
}

// Kinds returns the recorded kinds in name order.
func (f *Failures) Kinds() []parser.ErrorKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]parser.ErrorKind, 0, len(f.samples))
	for k := range f.samples {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Reset forgets everything recorded so far.
func (f *Failures) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = make(map[parser.ErrorKind][]string)
}
