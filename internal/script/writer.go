package script

import (
	"fmt"
	"os"
	"path/filepath"

	"avsser/internal/fileutil"
)

// Write serializes doc to its path, creating the directory if needed.
func Write(doc *ScriptDocument) error {
	if doc == nil || doc.Path == "" {
		return fmt.Errorf("write script: missing destination")
	}
	if err := os.MkdirAll(filepath.Dir(doc.Path), 0o755); err != nil {
		return fmt.Errorf("create script directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(doc.Path, []byte(doc.Render()), 0o644); err != nil {
		return fmt.Errorf("write script %s: %w", doc.Path, err)
	}
	return nil
}
