package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bactopia/bactopia-parser/internal/database"
	"github.com/bactopia/bactopia-parser/internal/parser"
	"github.com/bactopia/bactopia-parser/internal/run"
	"github.com/bactopia/bactopia-parser/internal/sample"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), database.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func testRun(id, root string, started time.Time) *run.Result {
	single := false
	size := int64(2800000)
	completed := started.Add(time.Second)
	return &run.Result{
		ID:          id,
		Root:        root,
		StartedAt:   started,
		CompletedAt: &completed,
		Counts:      run.Counts{Total: 2, Processed: 1, QCFailure: 1, TotalExcluded: 1, IgnoreList: 1, SingleEnd: 1},
		ErrorCounts: map[parser.ErrorKind]int{parser.ErrorQC: 1},
		Categories: run.Categories{
			Processed:  []string{"sampleA"},
			Failed:     []run.SampleEntry{{Sample: "sampleB", Reason: "qc: failed"}},
			Missing:    []run.SampleEntry{},
			IgnoreList: []run.IgnoreEntry{{Name: "work", Reason: "on the ignore list"}},
		},
		Failures: map[parser.ErrorKind][]string{parser.ErrorQC: {"sampleB"}},
		Samples: map[string]*sample.Result{
			"sampleA": {Sample: "sampleA", IsPaired: &single, GenomeSize: &size},
			"sampleB": {Sample: "sampleB", HasErrors: true, Errors: []parser.ErrorRecord{{Kind: parser.ErrorQC, Description: "failed"}}},
		},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, testRun("run-1", "/data/run", started)))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "/data/run", got.Root)
	assert.Equal(t, 1, got.Counts.Processed)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Equal(t, []string{"sampleA"}, got.Categories.Processed)
	assert.Equal(t, 1, got.ErrorCounts[parser.ErrorQC])
	require.Contains(t, got.Samples, "sampleB")
	assert.True(t, got.Samples["sampleB"].HasErrors)
}

func TestStore_Samples(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, testRun("run-1", "/data/run", time.Now().UTC())))

	samples, err := s.Samples(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, "sampleA", samples[0].Name)
	assert.Equal(t, "processed", samples[0].Status)
	require.NotNil(t, samples[0].IsPaired)
	assert.False(t, *samples[0].IsPaired)
	require.NotNil(t, samples[0].GenomeSize)
	assert.Equal(t, int64(2800000), *samples[0].GenomeSize)

	assert.Equal(t, SampleStatus{Name: "sampleB", Status: "failed", Reason: "qc: failed"}, samples[1])
	assert.Equal(t, SampleStatus{Name: "work", Status: "ignored", Reason: "on the ignore list"}, samples[2])
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, testRun("old", "/data/a", base)))
	require.NoError(t, s.Save(ctx, testRun("new", "/data/a", base.Add(time.Hour))))
	require.NoError(t, s.Save(ctx, testRun("other", "/data/b", base.Add(2*time.Hour))))

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "other", all[0].ID)

	byRoot, err := s.List(ctx, "/data/a", 0)
	require.NoError(t, err)
	require.Len(t, byRoot, 2)
	assert.Equal(t, "new", byRoot[0].ID)
	assert.Equal(t, "old", byRoot[1].ID)
	require.NotNil(t, byRoot[0].CompletedAt)

	limited, err := s.List(ctx, "/data/a", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "new", limited[0].ID)
	assert.Equal(t, 2, limited[0].Counts.Total)
}

func TestStore_GetMissing(t *testing.T) {
	_, err := newTestStore(t).Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, testRun("run-1", "/data/run", time.Now().UTC())))

	require.NoError(t, s.Delete(ctx, "run-1"))

	samples, err := s.Samples(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, samples, "sample rows cascade with the run")
	assert.True(t, errors.Is(s.Delete(ctx, "run-1"), ErrNotFound))
}

func TestStore_SaveDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	started := time.Now().UTC()

	require.NoError(t, s.Save(ctx, testRun("run-1", "/data/run", started)))
	assert.Error(t, s.Save(ctx, testRun("run-1", "/data/run", started)))

	runs, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
