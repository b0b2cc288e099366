package parser

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "t.tsv"), "a\tb\tc\n1\t2\t3\n4\t5\n")

	rows, err := ParseTable(path, '\t')
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, rows[0])
	assert.Equal(t, map[string]string{"a": "4", "b": "5", "c": ""}, rows[1])
}

func TestParseTable_Empty(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "t.tsv"), "")
	rows, err := ParseTable(path, '\t')
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = firstRow(path)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParseJSON_KeepsNumberTypes(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "a.json"), `{"contigs": 28, "n50": 1.5}`)
	v, err := ParseJSON(path)
	require.NoError(t, err)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"contigs": 28, "n50": 1.5}`, string(out))
}

func TestParseJSON_Malformed(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "a.json"), `{"contigs": `)
	_, err := ParseJSON(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}
