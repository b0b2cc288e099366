package run

import (
	"time"

	"github.com/bactopia/bactopia-parser/internal/parser"
	"github.com/bactopia/bactopia-parser/internal/sample"
)

// Result is the aggregate of one run directory.
type Result struct {
	ID          string                        `json:"id"`
	Root        string                        `json:"root"`
	StartedAt   time.Time                     `json:"started_at"`
	CompletedAt *time.Time                    `json:"completed_at,omitempty"`
	Counts      Counts                        `json:"counts"`
	ErrorCounts map[parser.ErrorKind]int      `json:"error_counts"`
	Categories  Categories                    `json:"categories"`
	Failures    map[parser.ErrorKind][]string `json:"failures"`
	Samples     map[string]*sample.Result     `json:"samples"`
}

// Counts tallies samples by outcome.
type Counts struct {
	Total         int `json:"total"`
	Processed     int `json:"processed"`
	QCFailure     int `json:"qc-failure"`
	TotalExcluded int `json:"total-excluded"`
	Missing       int `json:"missing"`
	IgnoreList    int `json:"ignore-list"`
	PairedEnd     int `json:"paired-end"`
	SingleEnd     int `json:"single-end"`
}

// Categories lists sample names by outcome.
type Categories struct {
	Processed  []string      `json:"processed"`
	Failed     []SampleEntry `json:"failed"`
	Missing    []SampleEntry `json:"missing"`
	IgnoreList []IgnoreEntry `json:"ignore-list"`
}

// SampleEntry explains why a sample was not processed.
type SampleEntry struct {
	Sample string `json:"sample"`
	Reason string `json:"reason"`
}

// IgnoreEntry is a directory that was skipped by name.
type IgnoreEntry struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Outcome is the bucket a sample lands in.
type Outcome string

// Sample outcomes.
const (
	OutcomeProcessed Outcome = "processed"
	OutcomeFailed    Outcome = "failed"
	OutcomeMissing   Outcome = "missing"
	OutcomeIgnored   Outcome = "ignored"
)

// Outcome returns the bucket the named sample landed in, and false when
// the name was not part of the run.
func (r *Result) Outcome(name string) (Outcome, bool) {
	for _, e := range r.Categories.IgnoreList {
		if e.Name == name {
			return OutcomeIgnored, true
		}
	}
	s, ok := r.Samples[name]
	if !ok {
		return "", false
	}
	switch {
	case s.HasErrors:
		return OutcomeFailed, true
	case s.HasMissing:
		return OutcomeMissing, true
	case s.Ignored:
		return OutcomeIgnored, true
	default:
		return OutcomeProcessed, true
	}
}

func newResult(id, root string, started time.Time) *Result {
	return &Result{
		ID:          id,
		Root:        root,
		StartedAt:   started,
		ErrorCounts: map[parser.ErrorKind]int{},
		Categories: Categories{
			Processed:  []string{},
			Failed:     []SampleEntry{},
			Missing:    []SampleEntry{},
			IgnoreList: []IgnoreEntry{},
		},
		Failures: map[parser.ErrorKind][]string{},
		Samples:  map[string]*sample.Result{},
	}
}
