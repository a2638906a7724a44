// Package fs inspects the experiment's on-disk layout.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathCheck is one required or optional file in the experiment layout.
type PathCheck struct {
	Description string
	Path        string
	Required    bool
	Exists      bool
}

// CheckPaths stats every path and reports whether all required ones exist.
func CheckPaths(checks []PathCheck) ([]PathCheck, bool) {
	ok := true
	out := make([]PathCheck, len(checks))
	for i, c := range checks {
		_, err := os.Stat(c.Path)
		c.Exists = err == nil
		if c.Required && !c.Exists {
			ok = false
		}
		out[i] = c
	}
	return out, ok
}

// ResultFile is a JSON artefact found in the results directory.
type ResultFile struct {
	Name string
	Path string
	Kind string // "results", "metadata" or "metrics"
}

// ResultFiles lists files under dir matching the patterns (default "*.json"),
// sorted by name.
func ResultFiles(dir string, patterns ...string) ([]ResultFile, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.json"}
	}

	seen := make(map[string]struct{})
	var files []ResultFile
	fsys := os.DirFS(dir)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, ResultFile{
				Name: m,
				Path: filepath.Join(dir, filepath.FromSlash(m)),
				Kind: classify(filepath.Base(m)),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func classify(name string) string {
	switch {
	case strings.HasPrefix(name, "metadata_"):
		return "metadata"
	case strings.HasPrefix(name, "metrics_"):
		return "metrics"
	default:
		return "results"
	}
}
