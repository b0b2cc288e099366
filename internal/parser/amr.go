package parser

import (
	"path/filepath"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var amrAccepted = []string{"-gene-report.txt", "-protein-report.txt"}

// amrParser reads AMRFinder+ gene and protein reports.
type amrParser struct{}

func (amrParser) Category() category.Category { return category.AMR }

func (p amrParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 1); err != nil {
		return nil, err
	}
	if _, err := FileType(amrAccepted, files[0]); err != nil {
		return nil, err
	}
	return ParseTable(files[0], '\t')
}

func (amrParser) ParsableList(sampleDir, sample string) []FileExpectation {
	dir := filepath.Join(sampleDir, category.StorageKey(category.AMR))
	return []FileExpectation{
		expect("gene-report", false, filepath.Join(dir, sample+"-gene-report.txt")),
		expect("protein-report", false, filepath.Join(dir, sample+"-protein-report.txt")),
	}
}
