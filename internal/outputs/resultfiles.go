// Package outputs inspects the filesystem state the tool leaves behind.
//
// Two concerns live here: collecting structured result files (JSON/YAML
// run statistics) into the metrics map, and scanning the output
// directories for every produced artifact. Both operate on a fixed set
// of well-known directories relative to the tool's working directory.
// Walks use filepath.WalkDir, which does not follow symlinks, so
// traversal stays inside the listed roots.
package outputs

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/visionops/yolobridge/internal/metrics"
)

// resultRoots are the per-task directories the tool writes run
// statistics into.
var resultRoots = []string{
	"runs/train",
	"runs/val",
	"runs/predict",
	"runs/export",
	"runs/track",
	"runs/benchmark",
}

// Collector gathers structured result files from the tool's output
// directories. Dir is the working directory the roots are relative to;
// empty means the current directory.
type Collector struct {
	Dir string
}

// NewCollector creates a Collector rooted at dir.
func NewCollector(dir string) *Collector {
	return &Collector{Dir: dir}
}

// Collect walks the result roots and decodes every .json, .yaml, and
// .yml file found. Decoded content is stored under "file_<basename>";
// a file that fails to decode stores its error message under
// "file_<basename>_error" instead, so one malformed file never aborts
// collection of the rest.
//
// When the same base name appears under multiple roots, the later root
// wins. There is no path-based disambiguation; the tool's own directory
// conventions keep names unique in practice.
func (c *Collector) Collect() metrics.Map {
	m := metrics.Map{}
	for _, root := range resultRoots {
		dir := filepath.Join(c.Dir, root)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".json" && ext != ".yaml" && ext != ".yml" {
				return nil
			}
			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			content, err := parseResultFile(path, ext)
			if err != nil {
				m["file_"+stem+"_error"] = err.Error()
				return nil
			}
			m["file_"+stem] = content
			return nil
		})
	}
	return m
}

// parseResultFile decodes a single result file by extension.
func parseResultFile(path, ext string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var content any
	if ext == ".json" {
		if err := json.Unmarshal(data, &content); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(data, &content); err != nil {
			return nil, err
		}
	}
	return content, nil
}
