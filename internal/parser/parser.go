// Package parser holds the per-category parsers for Bactopia result files
// and the registry that dispatches a result type to its parser.
//
// Each parser checks that the files it receives carry one of its accepted
// suffixes before reading them. Parsers that also implement Discoverer know
// where their files live inside a sample directory.
package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var (
	// ErrNotFound matches errors for input paths that do not exist.
	ErrNotFound = fs.ErrNotExist

	// ErrUnsupportedFormat matches errors for files whose suffix is not
	// accepted by the parser they were handed to.
	ErrUnsupportedFormat = errors.New("unsupported result file")

	// ErrMalformed matches errors for files with an accepted suffix whose
	// content cannot be parsed.
	ErrMalformed = errors.New("malformed result file")
)

// Parser turns one or more result files into a structured record.
type Parser interface {
	Category() category.Category
	Parse(files ...string) (any, error)
}

// Discoverer lists the files a category expects inside a sample directory.
type Discoverer interface {
	ParsableList(sampleDir, sample string) []FileExpectation
}

// FileExpectation describes the file set behind one result of a category.
type FileExpectation struct {
	ResultName string   `json:"result_name"`
	Files      []string `json:"files"`
	Optional   bool     `json:"optional"`
	Missing    bool     `json:"missing"`
}

// MissingFiles returns the listed files that do not exist.
func (e FileExpectation) MissingFiles() []string {
	var out []string
	for _, f := range e.Files {
		if !exists(f) {
			out = append(out, f)
		}
	}
	return out
}

// UnsupportedFormatError reports a file name without an accepted suffix.
type UnsupportedFormatError struct {
	Name     string
	Accepted []string
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("'%s' is not an accepted result file. Accepted extensions: %s",
		e.Name, strings.Join(e.Accepted, ", "))
}

// Unwrap allows errors.Is(err, ErrUnsupportedFormat).
func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// FileType returns the first accepted suffix that name ends with.
func FileType(accepted []string, name string) (string, error) {
	for _, ext := range accepted {
		if strings.HasSuffix(name, ext) {
			return ext, nil
		}
	}
	return "", &UnsupportedFormatError{Name: name, Accepted: accepted}
}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("%w %s: %s", ErrMalformed, path, fmt.Sprintf(format, args...))
}

func expect(name string, optional bool, files ...string) FileExpectation {
	missing := false
	for _, f := range files {
		if !exists(f) {
			missing = true
			break
		}
	}
	return FileExpectation{
		ResultName: name,
		Files:      files,
		Optional:   optional,
		Missing:    missing,
	}
}

// placeholder stands in for a globbed category that produced no files.
// It is always optional and missing.
func placeholder(name, path string) FileExpectation {
	return FileExpectation{
		ResultName: name,
		Files:      []string{path},
		Optional:   true,
		Missing:    true,
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// subdirs lists the names of the immediate subdirectories of dir.
// A missing directory yields no names.
func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func checkCount(c category.Category, files []string, min, max int) error {
	if len(files) < min || len(files) > max {
		if min == max {
			return fmt.Errorf("%s parser expects %d file(s), got %d", c, min, len(files))
		}
		return fmt.Errorf("%s parser expects %d to %d files, got %d", c, min, max, len(files))
	}
	return nil
}
