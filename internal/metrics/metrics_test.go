package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bactopia/bactopia-parser/internal/parser"
	"github.com/bactopia/bactopia-parser/internal/run"
)

func testResult() *run.Result {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(1500 * time.Millisecond)
	return &run.Result{
		StartedAt:   started,
		CompletedAt: &completed,
		Counts:      run.Counts{Total: 2, Processed: 1, QCFailure: 1, TotalExcluded: 1, IgnoreList: 1},
		ErrorCounts: map[parser.ErrorKind]int{parser.ErrorQC: 1},
	}
}

func TestObserve(t *testing.T) {
	c := NewCollector()
	res := testResult()
	c.Observe(res)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.samples.WithLabelValues("total")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.samples.WithLabelValues("qc-failure")))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.samples.WithLabelValues("missing")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.sampleErrors.WithLabelValues("qc")))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.sampleErrors.WithLabelValues("assembly")))
	assert.InDelta(t, 1.5, testutil.ToFloat64(c.duration), 1e-9)
	assert.Equal(t, float64(res.CompletedAt.Unix()), testutil.ToFloat64(c.lastCompleted))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.runs))

	assert.Equal(t, 8, testutil.CollectAndCount(c.samples))
	assert.Equal(t, len(parser.ErrorKinds()), testutil.CollectAndCount(c.sampleErrors))
}

func TestObserve_ReplacesPreviousRun(t *testing.T) {
	c := NewCollector()
	c.Observe(testResult())

	next := testResult()
	next.Counts = run.Counts{Total: 5, Processed: 5}
	next.ErrorCounts = map[parser.ErrorKind]int{}
	c.Observe(next)

	assert.Equal(t, float64(5), testutil.ToFloat64(c.samples.WithLabelValues("processed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.sampleErrors.WithLabelValues("qc")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.runs))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.Observe(testResult())

	path := filepath.Join(t.TempDir(), "textfile", "bactopia.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bactopia_run_samples{outcome="processed"} 1`)
	assert.Contains(t, string(data), `bactopia_run_sample_errors{kind="qc"} 1`)
	assert.Contains(t, string(data), "# TYPE bactopia_run_duration_seconds gauge")
}
