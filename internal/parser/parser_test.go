package parser

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bactopia/bactopia-parser/internal/category"
)

func TestFileType(t *testing.T) {
	tests := []struct {
		name     string
		accepted []string
		file     string
		want     string
		wantErr  bool
	}{
		{"first match wins", []string{".json", "plsdb.txt"}, "x/genes/mecA.json", ".json", false},
		{"compound suffix", assemblyAccepted, "s1.fna.json", ".fna.json", false},
		{"second suffix", mlstAccepted, "mlst_report.tsv", "mlst_report.tsv", false},
		{"no match", annotationAccepted, "s1.gff", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FileType(tt.accepted, tt.file)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				var ufe *UnsupportedFormatError
				require.True(t, errors.As(err, &ufe))
				assert.Equal(t, tt.file, ufe.Name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistryParse_UnsupportedTypeBeforeIO(t *testing.T) {
	r := NewDefaultRegistry()
	missing := filepath.Join(t.TempDir(), "nope.txt")

	_, err := r.Parse("plasmid", missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, category.ErrUnsupported))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestRegistryParse_CategoryWithoutParser(t *testing.T) {
	r := NewDefaultRegistry()
	for _, name := range []string{"generic", "kmers"} {
		_, err := r.Parse(name)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, category.ErrUnsupported), name)
	}
}

func TestRegistryParse_NotFound(t *testing.T) {
	r := NewDefaultRegistry()
	missing := filepath.Join(t.TempDir(), "s1.txt")
	for _, c := range []string{"annotation", "variants", "mapping", "qc"} {
		_, err := r.Parse(c, missing)
		require.Error(t, err, c)
		assert.True(t, errors.Is(err, ErrNotFound), c)
	}
}

func TestRegistryParse_Dispatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "s1.txt"), "organism: Staphylococcus aureus\ncontigs: 28\n")

	rec, err := NewDefaultRegistry().Parse("annotation", path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"organism": "Staphylococcus aureus",
		"contigs":  "28",
	}, rec)
}

func TestRegistryParse_FormatErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "s1.tsv"), "a\tb\n")

	_, err := NewDefaultRegistry().Parse("annotation", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestRegistry_Discoverer(t *testing.T) {
	r := NewDefaultRegistry()
	for _, c := range category.Structured() {
		_, ok := r.Discoverer(c)
		assert.True(t, ok, "missing discoverer for %s", c)
	}
	_, ok := r.Discoverer(category.Error)
	assert.False(t, ok)
	_, ok = r.Discoverer(category.Kmers)
	assert.False(t, ok)
}

func TestExpectation_Missing(t *testing.T) {
	dir := t.TempDir()
	present := writeFile(t, filepath.Join(dir, "a.txt"), "x")
	absent := filepath.Join(dir, "b.txt")

	e := expect("pair", false, present, absent)
	assert.True(t, e.Missing)
	assert.Equal(t, []string{absent}, e.MissingFiles())

	e = expect("single", true, present)
	assert.False(t, e.Missing)
	assert.Empty(t, e.MissingFiles())
}
