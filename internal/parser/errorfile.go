package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
)

// ErrorKind names a failure the pipeline reports through a marker file.
type ErrorKind string

// Known error kinds. A sample reports one with <sample>-<kind>-error.txt.
const (
	ErrorAssembly           ErrorKind = "assembly"
	ErrorDifferentReadCount ErrorKind = "different-read-count"
	ErrorGenomeSize         ErrorKind = "genome-size"
	ErrorLowReadCount       ErrorKind = "low-read-count"
	ErrorLowSequenceDepth   ErrorKind = "low-sequence-depth"
	ErrorPairedEnd          ErrorKind = "paired-end"
	ErrorQC                 ErrorKind = "qc"
)

var errorKinds = []ErrorKind{
	ErrorAssembly,
	ErrorDifferentReadCount,
	ErrorGenomeSize,
	ErrorLowReadCount,
	ErrorLowSequenceDepth,
	ErrorPairedEnd,
	ErrorQC,
}

// ErrorKinds returns the closed set of error kinds.
func ErrorKinds() []ErrorKind {
	out := make([]ErrorKind, len(errorKinds))
	copy(out, errorKinds)
	return out
}

// ErrorRecord describes why a sample could not be fully processed.
type ErrorRecord struct {
	Kind        ErrorKind `json:"error_type"`
	Description string    `json:"description"`
}

// ErrorFileName returns the marker file name for a sample and kind.
func ErrorFileName(sample string, kind ErrorKind) string {
	return fmt.Sprintf("%s-%s-error.txt", sample, kind)
}

type errorParser struct{}

func (errorParser) Category() category.Category { return category.Error }

// Parse reads one error marker. The kind is taken from the file name and
// the trimmed file content becomes the description.
func (p errorParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 1); err != nil {
		return nil, err
	}
	return ParseErrorFile(files[0])
}

// ParseErrorFile reads a <sample>-<kind>-error.txt marker.
func ParseErrorFile(path string) (ErrorRecord, error) {
	kind, err := errorKindFromName(filepath.Base(path))
	if err != nil {
		return ErrorRecord{}, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the results tree being aggregated
	if err != nil {
		return ErrorRecord{}, fmt.Errorf("reading error file: %w", err)
	}
	return ErrorRecord{
		Kind:        kind,
		Description: strings.TrimSpace(string(data)),
	}, nil
}

// errorKindFromName tries longer kinds first so overlapping suffixes
// resolve to the most specific kind.
func errorKindFromName(name string) (ErrorKind, error) {
	candidates := ErrorKinds()
	sort.Slice(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	for _, k := range candidates {
		if strings.HasSuffix(name, "-"+string(k)+"-error.txt") {
			return k, nil
		}
	}
	accepted := make([]string, len(errorKinds))
	for i, k := range errorKinds {
		accepted[i] = "-" + string(k) + "-error.txt"
	}
	return "", &UnsupportedFormatError{Name: name, Accepted: accepted}
}
