package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var minmersAccepted = []string{
	"refseq-k21.txt",
	"plsdb-k21.txt",
	"genbank-k21.txt",
	"genbank-k31.txt",
	"genbank-k51.txt",
}

// sourmashRow matches one line of `sourmash lca gather` output, e.g.
//
//	2.7 Mbp       7.3%   99.3%      Staphylococcus aureus (** 2 equal matches)
var sourmashRow = regexp.MustCompile(
	`^(?P<overlap>[0-9]+\.[0-9]+ [A-Za-z]+)\s+(?P<p_query>[0-9]+\.[0-9]+%)\s+(?P<p_match>[0-9]+\.[0-9]+%)\s+(?P<match>.*)`,
)

// SourmashResult holds the matches reported by sourmash gather.
type SourmashResult struct {
	Matches      []SourmashMatch `json:"matches"`
	NoAssignment string          `json:"no_assignment"`
	Limit        string          `json:"limit"`
}

// SourmashMatch is one gather match.
type SourmashMatch struct {
	Overlap string `json:"overlap"`
	PQuery  string `json:"p_query"`
	PMatch  string `json:"p_match"`
	Match   string `json:"match"`
}

// minmersParser reads mash screen tables and sourmash gather reports.
// A positive limit keeps only the first limit sourmash matches.
type minmersParser struct {
	limit int
}

func (minmersParser) Category() category.Category { return category.Minmers }

func (p minmersParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 1); err != nil {
		return nil, err
	}
	ft, err := FileType(minmersAccepted, files[0])
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(ft, "genbank") {
		return parseSourmash(files[0], p.limit)
	}
	return ParseTable(files[0], '\t')
}

func parseSourmash(path string, limit int) (*SourmashResult, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the results tree being aggregated
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	res := &SourmashResult{Matches: []SourmashMatch{}}
	if limit > 0 {
		res.Limit = fmt.Sprintf("results are limited to the top %d matches", limit)
	} else {
		res.Limit = "displaying full list of matches"
	}

	inRows, inSummary := false, false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r\n")
		switch {
		case inSummary:
			if line != "" {
				res.NoAssignment = line
			}
		case inRows:
			if line == "" {
				inSummary = true
				continue
			}
			if limit > 0 && len(res.Matches) >= limit {
				continue
			}
			m := sourmashRow.FindStringSubmatch(line)
			if m == nil {
				return nil, malformed(path, "unrecognized sourmash row %q", line)
			}
			res.Matches = append(res.Matches, SourmashMatch{
				Overlap: m[sourmashRow.SubexpIndex("overlap")],
				PQuery:  m[sourmashRow.SubexpIndex("p_query")],
				PMatch:  m[sourmashRow.SubexpIndex("p_match")],
				Match:   m[sourmashRow.SubexpIndex("match")],
			})
		case strings.HasPrefix(line, "----"):
			inRows = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return res, nil
}

func (minmersParser) ParsableList(sampleDir, sample string) []FileExpectation {
	dir := filepath.Join(sampleDir, string(category.Minmers))
	out := make([]FileExpectation, 0, len(minmersAccepted))
	for _, suffix := range minmersAccepted {
		out = append(out, expect(strings.TrimSuffix(suffix, ".txt"), true,
			filepath.Join(dir, sample+"-"+suffix)))
	}
	return out
}
