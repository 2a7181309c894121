package preflight

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"avsser/internal/config"
	"avsser/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the configured output directory and, when needsMkvtoolnix is
// set, the mkvtoolnix binaries. A missing optional binary still passes.
func RunAll(cfg *config.Config, needsMkvtoolnix bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if dir := strings.TrimSpace(cfg.Paths.OutputDir); dir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", existingAncestor(dir)))
	}
	if needsMkvtoolnix {
		statuses := CheckTools(cfg)
		missing := make(map[string]struct{})
		for _, status := range deps.Missing(statuses) {
			missing[status.Name] = struct{}{}
		}
		for _, status := range statuses {
			_, failed := missing[status.Name]
			result := Result{Name: status.Name, Passed: !failed, Detail: status.Command}
			if !status.Available {
				result.Detail = status.Detail
				if status.Optional {
					result.Detail += " (optional)"
				}
			}
			results = append(results, result)
		}
	}
	return results
}

// Failed filters results down to failing checks.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// existingAncestor returns dir, or its closest existing parent when dir will
// be created by the batch.
func existingAncestor(dir string) string {
	current := filepath.Clean(dir)
	for {
		if _, err := os.Stat(current); err == nil || !errors.Is(err, fs.ErrNotExist) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}
