package backup

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bactopia/bactopia-parser/internal/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenAndMigrate(ctx, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck

	_, err = db.ExecContext(ctx, `INSERT INTO runs (id, root, started_at, report) VALUES ('r1', '/runs/a', '2026-01-01T00:00:00Z', '{}')`)
	require.NoError(t, err)
	return db
}

func TestBackup(t *testing.T) {
	db := setupTestDB(t)
	dir := filepath.Join(t.TempDir(), "backups")
	svc := NewService(db, dir, 3, testLogger())

	info, err := svc.Backup(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, backupPattern, info.Filename)
	assert.Positive(t, info.Size)

	snap, err := sql.Open("sqlite", filepath.Join(dir, info.Filename))
	require.NoError(t, err)
	defer snap.Close() //nolint:errcheck

	var root string
	require.NoError(t, snap.QueryRow(`SELECT root FROM runs WHERE id = 'r1'`).Scan(&root))
	assert.Equal(t, "/runs/a", root)
}

func TestList_NewestFirstAndSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"history-20260101-000000.000.db",
		"history-20260103-000000.000.db",
		"history-20260102-000000.000.db",
		"notes.txt",
		"history-latest.db",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	svc := NewService(nil, dir, 0, testLogger())

	got, err := svc.List()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "history-20260103-000000.000.db", got[0].Filename)
	assert.Equal(t, "history-20260101-000000.000.db", got[2].Filename)
}

func TestList_MissingDirectory(t *testing.T) {
	svc := NewService(nil, filepath.Join(t.TempDir(), "absent"), 0, testLogger())
	got, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"history-20260101-000000.000.db",
		"history-20260102-000000.000.db",
		"history-20260103-000000.000.db",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	removed, err := NewService(nil, dir, 2, testLogger()).Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, filepath.Join(dir, "history-20260101-000000.000.db"))
	assert.FileExists(t, filepath.Join(dir, "history-20260103-000000.000.db"))

	removed, err = NewService(nil, dir, 0, testLogger()).Prune()
	require.NoError(t, err)
	assert.Zero(t, removed)
}
