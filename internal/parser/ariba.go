package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var aribaAccepted = []string{"report.tsv", "summary.csv"}

// aribaDatabases are the Ariba reference sets Bactopia runs by default.
var aribaDatabases = []string{"card", "vfdb_core"}

// AribaResult pairs the Ariba cluster report with its per-cluster summary.
type AribaResult struct {
	Report  []map[string]string `json:"report"`
	Summary []map[string]string `json:"summary"`
}

// aribaParser reads an Ariba report.tsv together with its summary.csv.
type aribaParser struct{}

func (aribaParser) Category() category.Category { return category.Ariba }

func (p aribaParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 2, 2); err != nil {
		return nil, err
	}
	reportType, err := FileType(aribaAccepted, files[0])
	if err != nil {
		return nil, err
	}
	summaryType, err := FileType(aribaAccepted, files[1])
	if err != nil {
		return nil, err
	}
	if reportType != "report.tsv" || summaryType != "summary.csv" {
		return nil, fmt.Errorf("%w: ariba expects report.tsv then summary.csv, got %s and %s",
			ErrUnsupportedFormat, filepath.Base(files[0]), filepath.Base(files[1]))
	}

	report, err := ParseTable(files[0], '\t')
	if err != nil {
		return nil, err
	}
	summary, err := aribaSummary(files[1])
	if err != nil {
		return nil, err
	}
	return &AribaResult{Report: report, Summary: summary}, nil
}

// aribaSummary pivots "cluster.field" columns into one row per cluster,
// sorted by cluster name.
func aribaSummary(path string) ([]map[string]string, error) {
	rows, err := ParseTable(path, ',')
	if err != nil {
		return nil, err
	}
	hits := make(map[string]map[string]string)
	for _, row := range rows {
		for key, val := range row {
			if key == "name" {
				continue
			}
			cluster, field, ok := strings.Cut(key, ".")
			if !ok {
				return nil, malformed(path, "summary column %q is not cluster.field", key)
			}
			hit, ok := hits[cluster]
			if !ok {
				hit = map[string]string{"cluster": cluster}
				hits[cluster] = hit
			}
			hit[field] = val
		}
	}

	clusters := make([]string, 0, len(hits))
	for c := range hits {
		clusters = append(clusters, c)
	}
	sort.Strings(clusters)

	summary := make([]map[string]string, 0, len(clusters))
	for _, c := range clusters {
		summary = append(summary, hits[c])
	}
	return summary, nil
}

func (aribaParser) ParsableList(sampleDir, sample string) []FileExpectation {
	root := filepath.Join(sampleDir, string(category.Ariba))
	out := make([]FileExpectation, 0, len(aribaDatabases))
	for _, db := range aribaDatabases {
		out = append(out, expect(db, true,
			filepath.Join(root, db, "report.tsv"),
			filepath.Join(root, db, "summary.csv"),
		))
	}
	return out
}
