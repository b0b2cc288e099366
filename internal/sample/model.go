package sample

import "github.com/bactopia/bactopia-parser/internal/parser"

// Result is the normalized record for one sample directory.
type Result struct {
	Sample     string                    `json:"sample"`
	IsPaired   *bool                     `json:"is_paired"`
	HasErrors  bool                      `json:"has_errors"`
	Errors     []parser.ErrorRecord      `json:"errors"`
	HasMissing bool                      `json:"has_missing"`
	Missing    []Missing                 `json:"missing"`
	Ignored    bool                      `json:"ignored"`
	Message    string                    `json:"message,omitempty"`
	GenomeSize *int64                    `json:"genome_size"`
	Results    map[string]map[string]any `json:"results"`
}

// Missing lists the absent files of a required result.
type Missing struct {
	Category string   `json:"category"`
	Files    []string `json:"files"`
}

func newResult(name string) *Result {
	return &Result{
		Sample:  name,
		Errors:  []parser.ErrorRecord{},
		Missing: []Missing{},
		Results: map[string]map[string]any{},
	}
}
