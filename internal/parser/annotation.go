package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var annotationAccepted = []string{".txt"}

// annotationParser reads the Prokka summary ("key: value" per line).
type annotationParser struct{}

func (annotationParser) Category() category.Category { return category.Annotation }

func (p annotationParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 1); err != nil {
		return nil, err
	}
	if _, err := FileType(annotationAccepted, files[0]); err != nil {
		return nil, err
	}
	return parseKeyValues(files[0], ":", func(key, val string) (string, string, bool) {
		return key, strings.TrimLeft(val, " \t"), true
	})
}

func (annotationParser) ParsableList(sampleDir, sample string) []FileExpectation {
	return []FileExpectation{
		expect("prokka", false, filepath.Join(sampleDir, string(category.Annotation), sample+".txt")),
	}
}

// parseKeyValues splits each non-blank line on sep. keep may rewrite or
// drop a pair.
func parseKeyValues(path, sep string, keep func(key, val string) (string, string, bool)) (map[string]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the results tree being aggregated
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	results := make(map[string]string)
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), " \t\r\n")
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, sep)
		if !ok {
			return nil, malformed(path, "line %d has no %q separator", lineNo, sep)
		}
		if k, v, ok := keep(key, val); ok {
			results[k] = v
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return results, nil
}
