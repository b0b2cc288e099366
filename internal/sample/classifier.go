package sample

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bactopia/bactopia-parser/internal/parser"
)

// GenomeSizeFile returns the marker file name that identifies a sample
// directory as pipeline output.
func GenomeSizeFile(sample string) string {
	return sample + "-genome-size.txt"
}

// Classifier decides whether a directory holds pipeline output for a
// sample and collects the failures the pipeline reported for it.
type Classifier struct{}

// Classify reports whether <root>/<sample> is recognized pipeline output
// and returns one record per error marker found. Any error marker makes
// the directory recognized. The error return is only set when a marker
// exists but cannot be read.
func (Classifier) Classify(root, sample string) (bool, []parser.ErrorRecord, error) {
	dir := filepath.Join(root, sample)
	recognized := fileExists(filepath.Join(dir, GenomeSizeFile(sample)))

	var records []parser.ErrorRecord
	for _, kind := range parser.ErrorKinds() {
		path := filepath.Join(dir, parser.ErrorFileName(sample, kind))
		if !fileExists(path) {
			continue
		}
		recognized = true
		rec, err := parser.ParseErrorFile(path)
		if err != nil {
			return false, nil, fmt.Errorf("classifying %s: %w", sample, err)
		}
		records = append(records, rec)
	}
	return recognized, records, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
