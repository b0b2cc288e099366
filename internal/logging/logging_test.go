package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_DefaultConfig(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManager(DefaultConfig(), &buf)
	defer mgr.Close() //nolint:errcheck

	require.NotNil(t, logger)
	assert.Equal(t, "info", mgr.Config().Level)
	assert.Equal(t, FormatAuto, mgr.Config().Format)

	logger.Info("hello", "sample", "s1")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec), "auto on a non-terminal writer is JSON")
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "s1", rec["sample"])
}

func TestManager_LevelSwap(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManager(Config{Level: "info", Format: FormatJSON}, &buf)
	defer mgr.Close() //nolint:errcheck
	ctx := context.Background()

	assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.False(t, logger.Enabled(ctx, slog.LevelDebug))

	mgr.Reconfigure(Config{Level: "debug", Format: FormatJSON})
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	mgr.Reconfigure(Config{Level: "error", Format: FormatJSON})
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))
}

func TestManager_FormatSwapReachesDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManager(Config{Level: "info", Format: FormatJSON}, &buf)
	defer mgr.Close() //nolint:errcheck

	component := logger.With("component", "run")
	mgr.Reconfigure(Config{Level: "info", Format: FormatText})
	component.Info("aggregated")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "time="), "text format after reconfigure: %q", out)
	assert.Contains(t, out, "component=run")
	assert.Equal(t, FormatText, mgr.Config().Format)
}

func TestManager_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	var buf bytes.Buffer

	mgr, logger := NewManager(Config{
		Level:          "info",
		Format:         FormatJSON,
		FilePath:       logFile,
		FileMaxSizeMB:  1,
		FileMaxFiles:   1,
		FileMaxAgeDays: 1,
	}, &buf)

	logger.Info("written to both")
	require.NoError(t, mgr.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to both")
	assert.Contains(t, buf.String(), "written to both")
}

func TestValidators(t *testing.T) {
	for _, l := range []string{"debug", "info", "warn", "error"} {
		assert.True(t, ValidLevel(l), l)
	}
	assert.False(t, ValidLevel("trace"))
	assert.True(t, ValidFormat(FormatAuto))
	assert.True(t, ValidFormat(FormatText))
	assert.False(t, ValidFormat("xml"))
}

func TestConfigString(t *testing.T) {
	assert.Equal(t, "level=info format=json", Config{Level: "info", Format: "json"}.String())
	assert.Contains(t, Config{Level: "info", Format: "json", FilePath: "/tmp/x.log"}.String(), "file=/tmp/x.log")
}
