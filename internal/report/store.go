// Package report keeps the history of aggregated runs in SQLite.
package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bactopia/bactopia-parser/internal/run"
)

// ErrNotFound is returned when a run id is not in the store.
var ErrNotFound = errors.New("run not found")

// Summary is one stored run without its full report.
type Summary struct {
	ID          string     `json:"id"`
	Root        string     `json:"root"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Counts      run.Counts `json:"counts"`
}

// SampleStatus is the stored outcome of one directory in a run.
type SampleStatus struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	IsPaired   *bool  `json:"is_paired,omitempty"`
	GenomeSize *int64 `json:"genome_size,omitempty"`
}

// Store persists run results.
type Store struct {
	db *sql.DB
}

// NewStore creates a store on a migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save stores a run result, its per-sample outcomes and error counts.
func (s *Store) Save(ctx context.Context, res *run.Result) error {
	report, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	c := res.Counts
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, root, started_at, completed_at, total, processed, qc_failure,
			total_excluded, missing, ignore_list, paired_end, single_end, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Root, formatTime(res.StartedAt), formatTimePtr(res.CompletedAt),
		c.Total, c.Processed, c.QCFailure, c.TotalExcluded, c.Missing, c.IgnoreList,
		c.PairedEnd, c.SingleEnd, string(report),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, st := range statuses(res) {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_samples (run_id, name, status, reason, is_paired, genome_size)
			VALUES (?, ?, ?, ?, ?, ?)`,
			res.ID, st.Name, st.Status, st.Reason, nullBool(st.IsPaired), nullInt(st.GenomeSize),
		)
		if err != nil {
			return fmt.Errorf("inserting sample %s: %w", st.Name, err)
		}
	}

	for kind, n := range res.ErrorCounts {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_errors (run_id, kind, count) VALUES (?, ?, ?)`,
			res.ID, string(kind), n,
		)
		if err != nil {
			return fmt.Errorf("inserting error count %s: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// List returns stored runs, newest first. An empty root lists every run;
// a limit of zero or less returns all of them.
func (s *Store) List(ctx context.Context, root string, limit int) ([]Summary, error) {
	query := `SELECT id, root, started_at, completed_at, total, processed, qc_failure,
		total_excluded, missing, ignore_list, paired_end, single_end FROM runs`
	var args []any
	if root != "" {
		query += ` WHERE root = ?`
		args = append(args, root)
	}
	query += ` ORDER BY started_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			started   string
			completed sql.NullString
		)
		c := &sum.Counts
		if err := rows.Scan(&sum.ID, &sum.Root, &started, &completed, &c.Total, &c.Processed,
			&c.QCFailure, &c.TotalExcluded, &c.Missing, &c.IgnoreList, &c.PairedEnd, &c.SingleEnd); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if sum.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if completed.Valid {
			t, err := parseTime(completed.String)
			if err != nil {
				return nil, err
			}
			sum.CompletedAt = &t
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return out, nil
}

// Get returns the full stored report of a run.
func (s *Store) Get(ctx context.Context, id string) (*run.Result, error) {
	var report string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, id).Scan(&report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	var res run.Result
	if err := json.Unmarshal([]byte(report), &res); err != nil {
		return nil, fmt.Errorf("decoding run report: %w", err)
	}
	return &res, nil
}

// Samples returns the stored outcome of every directory in a run, sorted
// by name.
func (s *Store) Samples(ctx context.Context, id string) ([]SampleStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status, reason, is_paired, genome_size
		FROM run_samples WHERE run_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("listing samples: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []SampleStatus
	for rows.Next() {
		var (
			st     SampleStatus
			paired sql.NullBool
			size   sql.NullInt64
		)
		if err := rows.Scan(&st.Name, &st.Status, &st.Reason, &paired, &size); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		if paired.Valid {
			st.IsPaired = &paired.Bool
		}
		if size.Valid {
			st.GenomeSize = &size.Int64
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples: %w", err)
	}
	return out, nil
}

// Delete removes a run and its per-sample rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// statuses flattens a run into one row per directory.
func statuses(res *run.Result) []SampleStatus {
	reasons := make(map[string]string)
	for _, e := range res.Categories.Failed {
		reasons[e.Sample] = e.Reason
	}
	for _, e := range res.Categories.Missing {
		if prev, ok := reasons[e.Sample]; ok {
			reasons[e.Sample] = prev + "; " + e.Reason
		} else {
			reasons[e.Sample] = e.Reason
		}
	}

	out := make([]SampleStatus, 0, len(res.Samples)+len(res.Categories.IgnoreList))
	for name, smp := range res.Samples {
		outcome, _ := res.Outcome(name)
		out = append(out, SampleStatus{
			Name:       name,
			Status:     string(outcome),
			Reason:     reasons[name],
			IsPaired:   smp.IsPaired,
			GenomeSize: smp.GenomeSize,
		})
	}
	for _, e := range res.Categories.IgnoreList {
		out = append(out, SampleStatus{
			Name:   e.Name,
			Status: string(run.OutcomeIgnored),
			Reason: e.Reason,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func nullInt(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}
