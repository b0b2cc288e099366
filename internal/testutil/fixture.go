// Package testutil builds Bactopia run directories for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// QCSummary is a minimal fastq-scan summary.
const QCSummary = `{"qc_stats": {"total_bp": 1000, "coverage": 10, "read_total": 100, "read_mean": 100}, "per_base_quality": {}, "read_lengths": {}}`

// WriteFile creates path (and its parents) holding content.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// CompleteSample writes a single-end sample holding every required
// result and no optional ones. It returns the sample directory.
func CompleteSample(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	WriteFile(t, filepath.Join(dir, name+"-genome-size.txt"), "2800000\n")
	WriteFile(t, filepath.Join(dir, "annotation", name+".txt"), "organism: Staphylococcus aureus\ncontigs: 28\n")
	WriteFile(t, filepath.Join(dir, "antimicrobial-resistance", name+"-gene-report.txt"), "Gene symbol\tClass\nmecA\tBETA-LACTAM\n")
	WriteFile(t, filepath.Join(dir, "antimicrobial-resistance", name+"-protein-report.txt"), "Gene symbol\tClass\nblaZ\tBETA-LACTAM\n")
	WriteFile(t, filepath.Join(dir, "assembly", name+".fna.json"), `{"total_contig": 28}`)
	WriteFile(t, filepath.Join(dir, "quality-control", name+".fastq.gz"), "")
	for _, stage := range []string{"original", "final"} {
		WriteFile(t, filepath.Join(dir, "quality-control", "summary-"+stage, name+"-"+stage+".json"), QCSummary)
	}
	return dir
}

// ErrorSample writes a sample that only carries an error marker.
func ErrorSample(t *testing.T, root, name, kind, description string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	WriteFile(t, filepath.Join(dir, name+"-"+kind+"-error.txt"), description+"\n")
	return dir
}
