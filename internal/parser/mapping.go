package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var mappingAccepted = []string{".txt"}

// Coverage is the per-base depth for one reference sequence.
type Coverage struct {
	Name            string `json:"name"`
	PerBaseCoverage []int  `json:"per_base_coverage"`
}

// mappingParser reads per-base coverage summaries:
//
//	##total=1
//	##contig=<ID=lcl|NC_000907.1_cds_NP_438599.1_404,length=507>
//	98
//	104
type mappingParser struct{}

func (mappingParser) Category() category.Category { return category.Mapping }

func (p mappingParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 1); err != nil {
		return nil, err
	}
	if _, err := FileType(mappingAccepted, files[0]); err != nil {
		return nil, err
	}
	return parseCoverage(files[0])
}

func parseCoverage(path string) ([]Coverage, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the results tree being aggregated
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	results := []Coverage{}
	var current *Coverage
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "", strings.HasPrefix(line, "##total"):
			continue
		case strings.HasPrefix(line, "##contig"):
			if current != nil {
				results = append(results, *current)
			}
			current = &Coverage{Name: strings.TrimPrefix(line, "##"), PerBaseCoverage: []int{}}
		default:
			depth, err := strconv.Atoi(line)
			if err != nil {
				return nil, malformed(path, "line %d: coverage %q is not an integer", lineNo, line)
			}
			if current == nil {
				current = &Coverage{PerBaseCoverage: []int{}}
			}
			current.PerBaseCoverage = append(current.PerBaseCoverage, depth)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if current != nil {
		results = append(results, *current)
	}
	return results, nil
}

func (mappingParser) ParsableList(sampleDir, sample string) []FileExpectation {
	root := filepath.Join(sampleDir, string(category.Mapping))
	var out []FileExpectation
	for _, ref := range subdirs(root) {
		out = append(out, expect(ref, true, filepath.Join(root, ref, sample+"-per-base-coverage.txt")))
	}
	if len(out) == 0 {
		out = append(out, placeholder("mapping", root))
	}
	return out
}
