// Package category defines the closed set of Bactopia result categories and
// the mapping between their parser-facing and storage-facing names.
package category

import (
	"errors"
	"fmt"
	"strings"
)

// Category identifies a class of pipeline output.
type Category string

// Known result categories.
const (
	AMR        Category = "amr"
	Annotation Category = "annotation"
	Ariba      Category = "ariba"
	Assembly   Category = "assembly"
	Blast      Category = "blast"
	Error      Category = "error"
	Generic    Category = "generic"
	Kmers      Category = "kmers"
	Mapping    Category = "mapping"
	Minmers    Category = "minmers"
	MLST       Category = "mlst"
	QC         Category = "qc"
	Variants   Category = "variants"
)

// ErrUnsupported is returned for a name outside the closed category set.
var ErrUnsupported = errors.New("unsupported result type")

var all = []Category{
	AMR, Annotation, Ariba, Assembly, Blast, Error, Generic,
	Kmers, Mapping, Minmers, MLST, QC, Variants,
}

// excluded categories have no per-sample files for the resolver to find:
// error markers are handled by the classifier, generic is freeform and
// kmers has no structured parser.
var excluded = map[Category]bool{
	Error:   true,
	Generic: true,
	Kmers:   true,
}

// storageKeys maps categories whose on-disk directory differs from the
// category name. storageIndex is its inverse.
var storageKeys = map[Category]string{
	AMR: "antimicrobial-resistance",
	QC:  "quality-control",
}

var storageIndex = func() map[string]Category {
	m := make(map[string]Category, len(all))
	for _, c := range all {
		m[StorageKey(c)] = c
	}
	return m
}()

// All returns every category in its fixed order.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Structured returns the categories with file-discovery rules, in order.
func Structured() []Category {
	out := make([]Category, 0, len(all))
	for _, c := range all {
		if !excluded[c] {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the category names as strings.
func Names() []string {
	out := make([]string, len(all))
	for i, c := range all {
		out[i] = string(c)
	}
	return out
}

// Parse validates s against the closed set.
func Parse(s string) (Category, error) {
	c := Category(s)
	if c.IsValid() {
		return c, nil
	}
	return "", fmt.Errorf("%w: '%s' is not an accepted result type. Accepted types: %s",
		ErrUnsupported, s, strings.Join(Names(), ", "))
}

// IsValid reports whether c belongs to the closed set.
func (c Category) IsValid() bool {
	for _, k := range all {
		if k == c {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// StorageKey returns the storage-facing name for c.
func StorageKey(c Category) string {
	if k, ok := storageKeys[c]; ok {
		return k
	}
	return string(c)
}

// FromStorageKey translates a storage-facing name back to its category.
func FromStorageKey(key string) (Category, bool) {
	c, ok := storageIndex[key]
	return c, ok
}
