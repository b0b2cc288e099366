package parser

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var qcAccepted = []string{"final.json", "original.json"}

// qcStages are the FASTQ summaries Bactopia writes, before and after cleanup.
var qcStages = []string{"original", "final"}

// summedQCStats are added together when merging R1 and R2; every other
// qc_stats field is averaged.
var summedQCStats = map[string]bool{
	"total_bp":   true,
	"coverage":   true,
	"read_total": true,
}

// qcParser reads fastq-scan summaries for single-end or paired-end reads.
type qcParser struct{}

func (qcParser) Category() category.Category { return category.QC }

// Parse accepts an R1 (or single-end) summary and an optional R2 summary.
// Both must come from the same stage.
func (p qcParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 2); err != nil {
		return nil, err
	}
	r1Type, err := FileType(qcAccepted, files[0])
	if err != nil {
		return nil, err
	}
	r1, err := ParseJSON(files[0])
	if err != nil {
		return nil, err
	}
	if len(files) == 1 {
		return r1, nil
	}

	r2Type, err := FileType(qcAccepted, files[1])
	if err != nil {
		return nil, err
	}
	if r1Type != r2Type {
		return nil, fmt.Errorf("%w: original and final QC files were mixed. R1: %s, R2: %s",
			ErrUnsupportedFormat, r1Type, r2Type)
	}
	r2, err := ParseJSON(files[1])
	if err != nil {
		return nil, err
	}
	return mergeQCStats(files[0], r1, files[1], r2)
}

func mergeQCStats(r1Path string, r1 any, r2Path string, r2 any) (map[string]any, error) {
	m1, ok := r1.(map[string]any)
	if !ok {
		return nil, malformed(r1Path, "expected a JSON object")
	}
	m2, ok := r2.(map[string]any)
	if !ok {
		return nil, malformed(r2Path, "expected a JSON object")
	}
	s1, ok := m1["qc_stats"].(map[string]any)
	if !ok {
		return nil, malformed(r1Path, "missing qc_stats")
	}
	s2, ok := m2["qc_stats"].(map[string]any)
	if !ok {
		return nil, malformed(r2Path, "missing qc_stats")
	}

	stats := make(map[string]any, len(s1))
	for key, v1 := range s1 {
		v2, ok := s2[key]
		if !ok {
			return nil, malformed(r2Path, "qc_stats has no %q", key)
		}
		if summedQCStats[key] {
			stats[key] = sumNumbers(v1, v2)
		} else {
			stats[key] = meanNumbers(v1, v2)
		}
	}

	return map[string]any{
		"qc_stats":            stats,
		"r1_per_base_quality": m1["per_base_quality"],
		"r2_per_base_quality": m2["per_base_quality"],
		"r1_read_lengths":     m1["read_lengths"],
		"r2_read_lengths":     m2["read_lengths"],
	}, nil
}

// number classifies a decoded JSON value. isNum is false for anything but
// a json.Number.
func number(v any) (i int64, f float64, isInt, isNum bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, 0, false, false
	}
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, err := n.Int64(); err == nil {
			return i, float64(i), true, true
		}
	}
	f, err := n.Float64()
	if err != nil {
		return 0, 0, false, false
	}
	return 0, f, false, true
}

func sumNumbers(a, b any) any {
	ai, af, aInt, aNum := number(a)
	bi, bf, bInt, bNum := number(b)
	if !aNum || !bNum {
		return a
	}
	if aInt && bInt {
		return json.Number(strconv.FormatInt(ai+bi, 10))
	}
	return af + bf
}

// meanNumbers averages two values. An integral mean of two integers stays
// an integer; any other mean is rendered with four decimals.
func meanNumbers(a, b any) any {
	ai, af, aInt, aNum := number(a)
	bi, bf, bInt, bNum := number(b)
	if !aNum || !bNum {
		return a
	}
	if aInt && bInt && (ai+bi)%2 == 0 {
		return json.Number(strconv.FormatInt((ai+bi)/2, 10))
	}
	return fmt.Sprintf("%.4f", (af+bf)/2)
}

// ParsableList returns the original and final summaries. Single-end
// layouts are preferred when present; otherwise the R1/R2 pair is expected.
func (qcParser) ParsableList(sampleDir, sample string) []FileExpectation {
	dir := filepath.Join(sampleDir, category.StorageKey(category.QC))
	out := make([]FileExpectation, 0, len(qcStages))
	for _, stage := range qcStages {
		summary := filepath.Join(dir, "summary-"+stage)
		se := filepath.Join(summary, fmt.Sprintf("%s-%s.json", sample, stage))
		r1 := filepath.Join(summary, fmt.Sprintf("%s_R1-%s.json", sample, stage))
		r2 := filepath.Join(summary, fmt.Sprintf("%s_R2-%s.json", sample, stage))
		if exists(se) {
			out = append(out, expect(stage, false, se))
		} else {
			out = append(out, expect(stage, false, r1, r2))
		}
	}
	return out
}

// IsPaired reports whether a sample's reads are paired-end. It returns nil
// when neither FASTQs nor QC summaries reveal the layout.
func IsPaired(sampleDir, sample string) *bool {
	dir := filepath.Join(sampleDir, category.StorageKey(category.QC))
	paired, single := true, false

	if exists(filepath.Join(dir, sample+"_R1.fastq.gz")) && exists(filepath.Join(dir, sample+"_R2.fastq.gz")) {
		return &paired
	}
	if exists(filepath.Join(dir, sample+".fastq.gz")) {
		return &single
	}
	for _, stage := range []string{"final", "original"} {
		summary := filepath.Join(dir, "summary-"+stage)
		if exists(filepath.Join(summary, fmt.Sprintf("%s_R1-%s.json", sample, stage))) {
			return &paired
		}
		if exists(filepath.Join(summary, fmt.Sprintf("%s-%s.json", sample, stage))) {
			return &single
		}
	}
	return nil
}
