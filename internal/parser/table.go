package parser

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ParseTable reads a delimited file whose first row is a header and
// returns one map per data row. Short rows are padded with empty values
// and columns beyond the header are dropped.
func ParseTable(path string, delimiter rune) ([]map[string]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the results tree being aggregated
	if err != nil {
		return nil, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, malformed(path, "reading header: %v", err)
	}

	rows := []map[string]string{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(path, "reading row: %v", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// firstRow returns the first data row of a tab-delimited table.
func firstRow(path string) (map[string]string, error) {
	rows, err := ParseTable(path, '\t')
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, malformed(path, "table has no data rows")
	}
	return rows[0], nil
}

// ParseJSON decodes a JSON document, keeping numbers as json.Number so
// integers and floats survive re-encoding unchanged.
func ParseJSON(path string) (any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the results tree being aggregated
	if err != nil {
		return nil, fmt.Errorf("reading json: %w", err)
	}
	return decodeJSON(path, data)
}

func decodeJSON(path string, data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed(path, "decoding json: %v", err)
	}
	return v, nil
}
