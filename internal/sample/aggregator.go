// Package sample turns one sample directory of a Bactopia run into a
// normalized Result.
//
// A sample is first classified. Samples with reported errors stop there,
// names on the ignore list are flagged, and anything else that is not
// recognized pipeline output is rejected with ErrInvalidDirectory. For a
// recognized sample every structured category is resolved to its files
// and each present file set is handed to the category's parser.
package sample

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
	"github.com/bactopia/bactopia-parser/internal/parser"
)

// ErrInvalidDirectory is returned for a directory that is neither
// pipeline output nor on the ignore list.
var ErrInvalidDirectory = errors.New("not a valid Bactopia output directory")

var defaultIgnoreList = []string{
	".nextflow",
	"bactopia-info",
	"bactopia-tools",
	"bactopia-runs",
	"pipeline_info",
	"work",
}

// DefaultIgnoreList returns the directory names found next to samples in
// a run directory that are not samples themselves.
func DefaultIgnoreList() []string {
	out := make([]string, len(defaultIgnoreList))
	copy(out, defaultIgnoreList)
	return out
}

// Aggregator builds sample Results.
type Aggregator struct {
	classifier Classifier
	resolver   *Resolver
	registry   *parser.Registry
	ignore     map[string]bool
	logger     *slog.Logger
}

// NewAggregator creates an aggregator. A nil ignoreList uses
// DefaultIgnoreList.
func NewAggregator(registry *parser.Registry, ignoreList []string, logger *slog.Logger) *Aggregator {
	if ignoreList == nil {
		ignoreList = defaultIgnoreList
	}
	ignore := make(map[string]bool, len(ignoreList))
	for _, name := range ignoreList {
		ignore[name] = true
	}
	return &Aggregator{
		resolver: NewResolver(registry),
		registry: registry,
		ignore:   ignore,
		logger:   logger.With("component", "sample"),
	}
}

// IsIgnored reports whether name is on the ignore list.
func (a *Aggregator) IsIgnored(name string) bool {
	return a.ignore[name]
}

// Aggregate builds the Result for <root>/<name>. A parser failure for a
// present file is returned as an error; required files that are absent
// are reported in Result.Missing instead.
func (a *Aggregator) Aggregate(root, name string) (*Result, error) {
	res := newResult(name)

	recognized, errs, err := a.classifier.Classify(root, name)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		res.HasErrors = true
		res.Errors = errs
		a.logger.Debug("sample has reported errors", "sample", name, "count", len(errs))
		return res, nil
	}
	if !recognized {
		if !a.IsIgnored(name) {
			return nil, fmt.Errorf("%w: %s is not a valid output directory for %s",
				ErrInvalidDirectory, filepath.Join(root, name), name)
		}
		res.Ignored = true
		res.Message = fmt.Sprintf("%s is on the ignore list, skipping", name)
		return res, nil
	}

	dir := filepath.Join(root, name)
	res.IsPaired = parser.IsPaired(dir, name)
	res.GenomeSize = a.genomeSize(dir, name)

	resolved := a.resolver.ResolveFiles(root, name)
	for _, c := range category.Structured() {
		storageKey := category.StorageKey(c)
		expectations, ok := resolved[storageKey]
		if !ok {
			continue
		}
		if err := a.collect(res, storageKey, expectations); err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
	}
	return res, nil
}

// collect parses one category's expectations into res. Results are keyed
// by the parser-facing category name.
func (a *Aggregator) collect(res *Result, storageKey string, expectations []parser.FileExpectation) error {
	c, ok := category.FromStorageKey(storageKey)
	if !ok {
		return fmt.Errorf("%w: unknown storage key %q", category.ErrUnsupported, storageKey)
	}
	p, ok := a.registry.Get(c)
	if !ok {
		return fmt.Errorf("%w: '%s' has no parser", category.ErrUnsupported, c)
	}

	key := string(c)
	for _, exp := range expectations {
		switch {
		case exp.Missing && !exp.Optional:
			res.HasMissing = true
			res.Missing = append(res.Missing, Missing{
				Category: storageKey,
				Files:    exp.MissingFiles(),
			})
		case exp.Missing:
			a.store(res, key, exp.ResultName, map[string]any{})
		default:
			rec, err := p.Parse(exp.Files...)
			if err != nil {
				return fmt.Errorf("parsing %s %s: %w", c, exp.ResultName, err)
			}
			a.store(res, key, exp.ResultName, rec)
		}
	}
	return nil
}

func (a *Aggregator) store(res *Result, key, resultName string, rec any) {
	if res.Results[key] == nil {
		res.Results[key] = map[string]any{}
	}
	res.Results[key][resultName] = rec
}

// genomeSize reads the integer genome size from the marker file. An
// unreadable value is logged and left unset.
func (a *Aggregator) genomeSize(dir, name string) *int64 {
	path := filepath.Join(dir, GenomeSizeFile(name))
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from the run directory
	if err != nil {
		a.logger.Warn("reading genome size", "sample", name, "error", err)
		return nil
	}
	size, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		a.logger.Warn("genome size is not an integer", "sample", name, "path", path)
		return nil
	}
	return &size
}
