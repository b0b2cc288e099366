package parser

import (
	"path/filepath"
	"strings"

	"github.com/bactopia/bactopia-parser/internal/category"
)

var variantsAccepted = []string{".txt"}

var variantModes = []string{"auto", "user"}

// variantsParser reads Snippy summary files (tab separated key/value).
type variantsParser struct{}

func (variantsParser) Category() category.Category { return category.Variants }

func (p variantsParser) Parse(files ...string) (any, error) {
	if err := checkCount(p.Category(), files, 1, 1); err != nil {
		return nil, err
	}
	if _, err := FileType(variantsAccepted, files[0]); err != nil {
		return nil, err
	}
	return parseKeyValues(files[0], "\t", func(key, val string) (string, string, bool) {
		if strings.HasPrefix(key, "ReadFiles") {
			return "", "", false
		}
		if key == "Reference" {
			return key, referenceName(val), true
		}
		return key, strings.TrimLeft(val, " \t"), true
	})
}

// referenceName reduces a reference path such as
// /refs/GCF_000017085.1-NC_010079.gbk to its accession tail (NC_010079).
func referenceName(path string) string {
	base := filepath.Base(path)
	parts := strings.Split(base, "-")
	tail := parts[len(parts)-1]
	name, _, _ := strings.Cut(tail, ".")
	return name
}

func (variantsParser) ParsableList(sampleDir, sample string) []FileExpectation {
	root := filepath.Join(sampleDir, string(category.Variants))
	var out []FileExpectation
	for _, mode := range variantModes {
		for _, ref := range subdirs(filepath.Join(root, mode)) {
			out = append(out, expect(mode+"/"+ref, true, filepath.Join(root, mode, ref, sample+".txt")))
		}
	}
	if len(out) == 0 {
		out = append(out, placeholder("variants", root))
	}
	return out
}
