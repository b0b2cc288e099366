package parser

import (
	"path/filepath"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var mlstAccepted = []string{"blast.json", "mlst_report.tsv"}

// mlstParser reads BLAST based and Ariba based MLST calls.
type mlstParser struct{}

func (mlstParser) Category() category.Category { return category.MLST }

func (p mlstParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 1); err != nil {
		return nil, err
	}
	ft, err := FileType(mlstAccepted, files[0])
	if err != nil {
		return nil, err
	}
	if ft == "blast.json" {
		return ParseJSON(files[0])
	}
	return firstRow(files[0])
}

func (mlstParser) ParsableList(sampleDir, sample string) []FileExpectation {
	root := filepath.Join(sampleDir, string(category.MLST))
	var out []FileExpectation
	for _, schema := range subdirs(root) {
		dir := filepath.Join(root, schema)
		out = append(out,
			expect(schema+"/blast", true, filepath.Join(dir, "blast", sample+"-blast.json")),
			expect(schema+"/ariba", true, filepath.Join(dir, "ariba", "mlst_report.tsv")),
		)
	}
	if len(out) == 0 {
		out = append(out, placeholder("mlst", root))
	}
	return out
}
