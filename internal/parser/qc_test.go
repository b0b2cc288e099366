package parser

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const qcR1 = `{
  "qc_stats": {"total_bp": 1000, "coverage": 10.5, "read_total": 100, "read_mean": 101, "qual_mean": 30.1, "read_min": 35},
  "per_base_quality": {"1": 32.5},
  "read_lengths": {"101": 100}
}`

const qcR2 = `{
  "qc_stats": {"total_bp": 900, "coverage": 9.5, "read_total": 100, "read_mean": 100, "qual_mean": 29.9, "read_min": 35},
  "per_base_quality": {"1": 31.0},
  "read_lengths": {"100": 100}
}`

func TestQCParse_SingleEnd(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "s1-final.json"), qcR1)

	rec, err := qcParser{}.Parse(path)
	require.NoError(t, err)
	m, ok := rec.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "qc_stats")
	assert.Contains(t, m, "per_base_quality")
}

func TestQCParse_PairedMerge(t *testing.T) {
	dir := t.TempDir()
	r1 := writeFile(t, filepath.Join(dir, "s1_R1-final.json"), qcR1)
	r2 := writeFile(t, filepath.Join(dir, "s1_R2-final.json"), qcR2)

	rec, err := qcParser{}.Parse(r1, r2)
	require.NoError(t, err)

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var got struct {
		QCStats map[string]any `json:"qc_stats"`
		R1PBQ   map[string]any `json:"r1_per_base_quality"`
		R2PBQ   map[string]any `json:"r2_per_base_quality"`
		R1Len   map[string]any `json:"r1_read_lengths"`
		R2Len   map[string]any `json:"r2_read_lengths"`
	}
	require.NoError(t, json.Unmarshal(out, &got))

	assert.Equal(t, float64(1900), got.QCStats["total_bp"])
	assert.Equal(t, float64(20), got.QCStats["coverage"])
	assert.Equal(t, float64(200), got.QCStats["read_total"])
	assert.Equal(t, "100.5000", got.QCStats["read_mean"])
	assert.Equal(t, "30.0000", got.QCStats["qual_mean"])
	assert.Equal(t, float64(35), got.QCStats["read_min"])
	assert.Equal(t, 32.5, got.R1PBQ["1"])
	assert.Equal(t, float64(31), got.R2PBQ["1"])
	assert.Contains(t, got.R1Len, "101")
	assert.Contains(t, got.R2Len, "100")
}

func TestQCParse_MixedStages(t *testing.T) {
	dir := t.TempDir()
	r1 := writeFile(t, filepath.Join(dir, "s1_R1-original.json"), qcR1)
	r2 := writeFile(t, filepath.Join(dir, "s1_R2-final.json"), qcR2)

	_, err := qcParser{}.Parse(r1, r2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixed")
}

func TestQCParse_MissingStatKey(t *testing.T) {
	dir := t.TempDir()
	r1 := writeFile(t, filepath.Join(dir, "s1_R1-final.json"), qcR1)
	r2 := writeFile(t, filepath.Join(dir, "s1_R2-final.json"), `{"qc_stats": {"total_bp": 1}}`)

	_, err := qcParser{}.Parse(r1, r2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestMeanNumbers(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want any
	}{
		{"integral int mean", json.Number("4"), json.Number("6"), json.Number("5")},
		{"fractional int mean", json.Number("1"), json.Number("2"), "1.5000"},
		{"float mean", json.Number("2.0"), json.Number("4.0"), "3.0000"},
		{"non numeric keeps r1", "abc", json.Number("1"), "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, meanNumbers(tt.a, tt.b))
		})
	}
}

func TestSumNumbers(t *testing.T) {
	assert.Equal(t, json.Number("7"), sumNumbers(json.Number("3"), json.Number("4")))
	assert.Equal(t, 7.5, sumNumbers(json.Number("3.5"), json.Number("4")))
}

func TestIsPaired(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  *bool
	}{
		{"paired fastqs", []string{"quality-control/s1_R1.fastq.gz", "quality-control/s1_R2.fastq.gz"}, boolPtr(true)},
		{"single fastq", []string{"quality-control/s1.fastq.gz"}, boolPtr(false)},
		{"paired summaries", []string{"quality-control/summary-final/s1_R1-final.json"}, boolPtr(true)},
		{"single summary", []string{"quality-control/summary-original/s1-original.json"}, boolPtr(false)},
		{"unknown", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, filepath.Join(dir, f), "x")
			}
			assert.Equal(t, tt.want, IsPaired(dir, "s1"))
		})
	}
}

func TestQCParsableList(t *testing.T) {
	dir := t.TempDir()
	se := writeFile(t, filepath.Join(dir, "quality-control/summary-final/s1-final.json"), qcR1)

	list := qcParser{}.ParsableList(dir, "s1")
	require.Len(t, list, 2)

	assert.Equal(t, "original", list[0].ResultName)
	assert.True(t, list[0].Missing)
	assert.False(t, list[0].Optional)
	assert.Len(t, list[0].Files, 2, "absent stage falls back to the R1/R2 layout")

	assert.Equal(t, "final", list[1].ResultName)
	assert.False(t, list[1].Missing)
	assert.Equal(t, []string{se}, list[1].Files)
}

func boolPtr(b bool) *bool { return &b }
