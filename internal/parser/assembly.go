package parser

import (
	"path/filepath"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var assemblyAccepted = []string{".fna.json", "checkm-results.txt", "transposed_report.tsv"}

// assemblyParser reads assembly-scan JSON, CheckM and QUAST reports.
type assemblyParser struct{}

func (assemblyParser) Category() category.Category { return category.Assembly }

func (p assemblyParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 1); err != nil {
		return nil, err
	}
	ft, err := FileType(assemblyAccepted, files[0])
	if err != nil {
		return nil, err
	}
	if ft == ".fna.json" {
		return ParseJSON(files[0])
	}
	return firstRow(files[0])
}

func (assemblyParser) ParsableList(sampleDir, sample string) []FileExpectation {
	dir := filepath.Join(sampleDir, string(category.Assembly))
	return []FileExpectation{
		expect("assembly", false, filepath.Join(dir, sample+".fna.json")),
		expect("checkm", true, filepath.Join(dir, "checkm", "checkm-results.txt")),
		expect("quast", true, filepath.Join(dir, "quast", "transposed_report.tsv")),
	}
}
