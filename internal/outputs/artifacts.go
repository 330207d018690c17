// artifacts.go scans the tool's output directories for produced files.
package outputs

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// artifactRoots are the top-level directories the tool writes any kind
// of output into. Kept disjoint: nesting one root inside another would
// double-count files.
var artifactRoots = []string{
	"runs",
	"weights",
	"results",
	"exports",
}

// Scanner lists every file produced under the well-known output roots.
// Dir is the working directory the roots are relative to.
type Scanner struct {
	Dir string
}

// NewScanner creates a Scanner rooted at dir.
func NewScanner(dir string) *Scanner {
	return &Scanner{Dir: dir}
}

// Scan returns the path of every regular file under the existing
// artifact roots, relative to the working directory, in lexicographic
// order. Missing roots are skipped; no roots means an empty list.
func (s *Scanner) Scan() []string {
	artifacts := []string{}
	for _, root := range artifactRoots {
		dir := filepath.Join(s.Dir, root)
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(s.Dir, path)
			if relErr != nil {
				return nil
			}
			artifacts = append(artifacts, rel)
			return nil
		})
	}
	sort.Strings(artifacts)
	return artifacts
}
