package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Writer sends serialized reports to a file or to its stdout.
type Writer struct {
	format Format
	stdout io.Writer
}

// NewWriter creates a writer. A nil stdout uses os.Stdout. An unknown
// format falls back to JSON.
func NewWriter(format Format, stdout io.Writer) *Writer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if format.IsUnknown() {
		format = FormatJSON
	}
	return &Writer{format: format, stdout: stdout}
}

// Format returns the writer's format.
func (w *Writer) Format() Format {
	return w.format
}

// Write serializes v. An empty path or "-" writes to stdout; any other
// path is replaced atomically.
func (w *Writer) Write(path string, v any) error {
	data, err := Encode(w.format, v)
	if err != nil {
		return err
	}
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		if _, err := w.stdout.Write(data); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return nil
	}
	return WriteFileAtomic(path, data, 0o644)
}

// Encode serializes v in the given format.
func Encode(format Format, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("serializing to JSON: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		return encodeYAML(v)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// encodeYAML goes through JSON first so json tags, json.RawMessage and
// json.Number values render the same way in both formats.
func encodeYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing to YAML: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("serializing to YAML: %w", err)
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("serializing to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("serializing to YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// blockStyle drops the flow and quoting styles the JSON input carried.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
