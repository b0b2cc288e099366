package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var blastAccepted = []string{".json", "plsdb.txt"}

// BlastResult is a BLAST JSON report reduced to one entry per query.
type BlastResult struct {
	Program string                 `json:"program"`
	Version string                 `json:"version,omitempty"`
	DB      string                 `json:"db,omitempty"`
	Params  json.RawMessage        `json:"params,omitempty"`
	Queries map[string]*BlastQuery `json:"queries"`
}

// BlastQuery collects the hits for one query sequence.
type BlastQuery struct {
	QueryLen int        `json:"query_len"`
	Hits     []BlastHit `json:"hits"`
	Message  string     `json:"message"`
}

// BlastHit is one subject hit with its HSPs kept verbatim.
type BlastHit struct {
	SubjectTitle string          `json:"subject_title"`
	SubjectLen   int             `json:"subject_len"`
	HSPs         json.RawMessage `json:"hsps"`
}

type blastDocument struct {
	BlastOutput2 []struct {
		Report struct {
			Program      string `json:"program"`
			Version      string `json:"version"`
			SearchTarget struct {
				DB string `json:"db"`
			} `json:"search_target"`
			Params  json.RawMessage `json:"params"`
			Results struct {
				Search struct {
					QueryTitle string `json:"query_title"`
					QueryLen   int    `json:"query_len"`
					Hits       []struct {
						Description []struct {
							Title string `json:"title"`
						} `json:"description"`
						Len  int             `json:"len"`
						HSPs json.RawMessage `json:"hsps"`
					} `json:"hits"`
					Message *string `json:"message"`
				} `json:"search"`
			} `json:"results"`
		} `json:"report"`
	} `json:"BlastOutput2"`
}

// blastParser reads BLAST JSON (-outfmt 15) reports and PLSDB hit files.
type blastParser struct{}

func (blastParser) Category() category.Category { return category.Blast }

func (p blastParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 1); err != nil {
		return nil, err
	}
	ft, err := FileType(blastAccepted, files[0])
	if err != nil {
		return nil, err
	}
	var doc *blastDocument
	if ft == ".json" {
		doc, err = readBlastJSON(files[0])
	} else {
		doc, err = readPLSDB(files[0])
	}
	if err != nil {
		return nil, err
	}
	return reduceBlast(doc), nil
}

func readBlastJSON(path string) (*blastDocument, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the results tree being aggregated
	if err != nil {
		return nil, fmt.Errorf("reading blast report: %w", err)
	}
	var doc blastDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed(path, "decoding blast json: %v", err)
	}
	return &doc, nil
}

// readPLSDB merges a stream of concatenated BLAST JSON documents. Each
// document ends on a line that starts with "}".
func readPLSDB(path string) (*blastDocument, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the results tree being aggregated
	if err != nil {
		return nil, fmt.Errorf("opening plsdb report: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var merged *blastDocument
	var entry bytes.Buffer
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		entry.WriteString(line)
		entry.WriteByte('\n')
		if !strings.HasPrefix(line, "}") {
			continue
		}
		var doc blastDocument
		if err := json.Unmarshal(entry.Bytes(), &doc); err != nil {
			return nil, malformed(path, "decoding plsdb entry: %v", err)
		}
		if merged == nil {
			merged = &doc
		} else {
			merged.BlastOutput2 = append(merged.BlastOutput2, doc.BlastOutput2...)
		}
		entry.Reset()
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading plsdb report: %w", err)
	}
	if merged == nil {
		return nil, malformed(path, "no BLAST documents found")
	}
	return merged, nil
}

func reduceBlast(doc *blastDocument) *BlastResult {
	res := &BlastResult{Queries: make(map[string]*BlastQuery)}
	for _, row := range doc.BlastOutput2 {
		report := row.Report
		if res.Program == "" {
			res.Program = report.Program
			res.Version = report.Version
			res.DB = report.SearchTarget.DB
			res.Params = report.Params
		}

		search := report.Results.Search
		q, ok := res.Queries[search.QueryTitle]
		if !ok {
			q = &BlastQuery{QueryLen: search.QueryLen, Hits: []BlastHit{}}
			res.Queries[search.QueryTitle] = q
		}
		for _, hit := range search.Hits {
			title := ""
			if len(hit.Description) > 0 {
				if fields := strings.Fields(hit.Description[0].Title); len(fields) > 0 {
					title = fields[0]
				}
			}
			q.Hits = append(q.Hits, BlastHit{
				SubjectTitle: title,
				SubjectLen:   hit.Len,
				HSPs:         hit.HSPs,
			})
		}
		if search.Message != nil {
			q.Message = *search.Message
		}
	}
	return res
}

// ParsableList returns one expectation per JSON report under
// blast/<type>/ plus the optional PLSDB hits file.
func (blastParser) ParsableList(sampleDir, sample string) []FileExpectation {
	root := filepath.Join(sampleDir, string(category.Blast))
	var out []FileExpectation
	for _, kind := range subdirs(root) {
		matches, _ := filepath.Glob(filepath.Join(root, kind, "*.json"))
		sort.Strings(matches)
		for _, m := range matches {
			name := kind + "/" + strings.TrimSuffix(filepath.Base(m), ".json")
			out = append(out, expect(name, true, m))
		}
	}
	plsdb := filepath.Join(root, sample+"-plsdb.txt")
	if exists(plsdb) {
		out = append(out, expect("plsdb", true, plsdb))
	}
	if len(out) == 0 {
		out = append(out, placeholder("blast", root))
	}
	return out
}
