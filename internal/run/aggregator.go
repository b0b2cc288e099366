// Package run aggregates every sample directory of a Bactopia run.
//
// Pipeline-reported failures and missing files are recovered into the
// Result. A directory that is neither a sample nor on the ignore list,
// or a sample file that cannot be parsed, aborts the whole scan.
package run

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bactopia/bactopia-parser/internal/event"
	"github.com/bactopia/bactopia-parser/internal/sample"
)

const ignoredReason = "on the ignore list"

// Aggregator scans run directories.
type Aggregator struct {
	samples  *sample.Aggregator
	logger   *slog.Logger
	eventBus *event.Bus
}

// NewAggregator creates a directory aggregator on top of a sample
// aggregator.
func NewAggregator(samples *sample.Aggregator, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		samples: samples,
		logger:  logger.With("component", "run"),
	}
}

// SetEventBus sets the event bus for publishing run events.
func (a *Aggregator) SetEventBus(bus *event.Bus) {
	a.eventBus = bus
}

// Aggregate scans the immediate subdirectories of root. Samples that
// reported errors are appended to acc by error kind; a nil acc uses a
// fresh accumulator scoped to this call. The context is checked between
// samples.
func (a *Aggregator) Aggregate(ctx context.Context, root string, acc *Failures) (*Result, error) {
	if acc == nil {
		acc = NewFailures()
	}
	start := time.Now().UTC()
	res := newResult(uuid.New().String(), root, start)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading run directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if !isDir(root, entry) {
			a.logger.Debug("skipping non-directory entry", "name", name)
			continue
		}

		if a.samples.IsIgnored(name) {
			res.Counts.IgnoreList++
			res.Categories.IgnoreList = append(res.Categories.IgnoreList, IgnoreEntry{
				Name:   name,
				Reason: ignoredReason,
			})
			a.logger.Debug("skipping ignored directory", "name", name)
			continue
		}

		s, err := a.samples.Aggregate(root, name)
		if err != nil {
			return nil, err
		}
		res.Samples[name] = s
		a.fold(res, s, acc)
	}

	res.Failures = acc.Snapshot()
	now := time.Now().UTC()
	res.CompletedAt = &now

	a.logger.Info("run aggregated",
		"root", root,
		"total", res.Counts.Total,
		"processed", res.Counts.Processed,
		"failed", res.Counts.QCFailure,
		"missing", res.Counts.Missing,
		"duration", now.Sub(start),
	)
	if a.eventBus != nil {
		a.eventBus.Publish(event.Event{
			Type:      event.RunCompleted,
			Root:      root,
			RunID:     res.ID,
			Total:     res.Counts.Total,
			Processed: res.Counts.Processed,
			Excluded:  res.Counts.TotalExcluded,
		})
	}
	return res, nil
}

func (a *Aggregator) fold(res *Result, s *sample.Result, acc *Failures) {
	res.Counts.Total++
	if s.IsPaired != nil {
		if *s.IsPaired {
			res.Counts.PairedEnd++
		} else {
			res.Counts.SingleEnd++
		}
	}

	switch {
	case s.HasErrors:
		reasons := make([]string, 0, len(s.Errors))
		for _, e := range s.Errors {
			res.ErrorCounts[e.Kind]++
			acc.Add(e.Kind, s.Sample)
			reasons = append(reasons, fmt.Sprintf("%s: %s", e.Kind, e.Description))
		}
		res.Counts.TotalExcluded++
		res.Counts.QCFailure++
		res.Categories.Failed = append(res.Categories.Failed, SampleEntry{
			Sample: s.Sample,
			Reason: strings.Join(reasons, "; "),
		})
	case s.HasMissing:
		res.Counts.Missing++
		for _, m := range groupMissing(s.Missing) {
			res.Categories.Missing = append(res.Categories.Missing, SampleEntry{
				Sample: s.Sample,
				Reason: fmt.Sprintf("Missing %s result file(s): %s", m.Category, strings.Join(m.Files, ", ")),
			})
		}
	default:
		res.Counts.Processed++
		res.Categories.Processed = append(res.Categories.Processed, s.Sample)
	}
}

// groupMissing merges expectations of the same category into one entry,
// keeping first-seen category order.
func groupMissing(missing []sample.Missing) []sample.Missing {
	out := make([]sample.Missing, 0, len(missing))
	index := make(map[string]int, len(missing))
	for _, m := range missing {
		i, ok := index[m.Category]
		if !ok {
			index[m.Category] = len(out)
			out = append(out, sample.Missing{Category: m.Category})
			i = len(out) - 1
		}
		out[i].Files = append(out[i].Files, m.Files...)
	}
	return out
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(root string, entry os.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	fi, err := os.Stat(filepath.Join(root, entry.Name()))
	return err == nil && fi.IsDir()
}
