package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"avsser/internal/config"
	"avsser/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTools evaluates the mkvtoolnix binaries used by the probe and the
// extractor. mkvextract is optional unless subtitle extraction is enabled.
func CheckTools(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "mkvmerge",
			Command:     cfg.Tools.Mkvmerge,
			Description: "Required for container identification",
		},
		{
			Name:        "mkvextract",
			Command:     cfg.Tools.Mkvextract,
			Description: "Required for subtitle and font extraction",
			Optional:    !cfg.Script.ExtractSubtitles,
		},
	}
	return deps.CheckBinaries(requirements)
}
