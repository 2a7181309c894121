package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"avsser/internal/pathres"
)

// companionExtensions are files avsser reads or writes next to media. They
// are never inputs, so directory listings drop them without a warning.
var companionExtensions = map[string]struct{}{
	".avs": {}, ".avsi": {}, ".vpy": {},
	".ass": {}, ".ssa": {}, ".srt": {}, ".sup": {}, ".sub": {}, ".idx": {}, ".vtt": {},
	".txt": {}, ".ttf": {}, ".otf": {}, ".ttc": {},
	".flac": {}, ".wav": {}, ".ac3": {}, ".eac3": {}, ".aac": {}, ".dts": {}, ".opus": {}, ".m4a": {}, ".mp3": {},
	".ffindex": {}, ".lwi": {}, ".log": {},
}

// Discover expands roots into a sorted, de-duplicated list of canonical file
// paths. Files named directly are always returned. Directories contribute
// their non-hidden files, descending into subdirectories only when recursive
// is set.
func Discover(roots []string, recursive bool) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range roots {
		canonical, err := pathres.Canonical(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(canonical)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", root, err)
		}
		if !info.IsDir() {
			add(canonical)
			continue
		}
		err = filepath.WalkDir(canonical, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if path == canonical {
				return nil
			}
			hidden := strings.HasPrefix(d.Name(), ".")
			if d.IsDir() {
				if hidden || !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if hidden || !isFile(path, d) {
				return nil
			}
			if _, ok := companionExtensions[strings.ToLower(filepath.Ext(path))]; ok {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// isFile accepts regular files and symlinks that resolve to one.
func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
