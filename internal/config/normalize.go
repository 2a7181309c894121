package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Normalize applies environment overrides, defaults, and path expansion.
func (c *Config) Normalize() error {
	c.applyEnvOverrides()

	c.Tools.Mkvmerge = strings.TrimSpace(c.Tools.Mkvmerge)
	if c.Tools.Mkvmerge == "" {
		c.Tools.Mkvmerge = defaultMkvmerge
	}
	c.Tools.Mkvextract = strings.TrimSpace(c.Tools.Mkvextract)
	if c.Tools.Mkvextract == "" {
		c.Tools.Mkvextract = defaultMkvextract
	}

	c.Script.Format = strings.ToLower(strings.TrimSpace(c.Script.Format))
	switch c.Script.Format {
	case "":
		c.Script.Format = defaultFormat
	case "avs":
		c.Script.Format = FormatAviSynth
	case "vpy", "vs":
		c.Script.Format = FormatVapourSynth
	}
	c.Script.AudioExtension = strings.TrimPrefix(strings.TrimSpace(c.Script.AudioExtension), ".")
	c.Script.SubtitleLanguage = strings.TrimSpace(c.Script.SubtitleLanguage)
	c.Script.FontsDir = strings.TrimSpace(c.Script.FontsDir)
	if c.Script.FontsDir == "" {
		c.Script.FontsDir = defaultFontsDir
	}
	filters := c.Script.ExtraFilters[:0]
	for _, filter := range c.Script.ExtraFilters {
		if trimmed := strings.TrimSpace(filter); trimmed != "" {
			filters = append(filters, trimmed)
		}
	}
	c.Script.ExtraFilters = filters

	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		expanded, err := expandPath(c.Paths.OutputDir)
		if err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
		c.Paths.OutputDir = expanded
	}

	c.Batch.Overwrite = strings.ToLower(strings.TrimSpace(c.Batch.Overwrite))
	if c.Batch.Overwrite == "" {
		c.Batch.Overwrite = defaultOverwrite
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}

// applyEnvOverrides lets AVSSER_MKVTOOLNIX_DIR point both tools at a
// specific installation when the config still names the bare binaries.
func (c *Config) applyEnvOverrides() {
	dir := strings.TrimSpace(os.Getenv("AVSSER_MKVTOOLNIX_DIR"))
	if dir == "" {
		return
	}
	if c.Tools.Mkvmerge == "" || c.Tools.Mkvmerge == defaultMkvmerge {
		c.Tools.Mkvmerge = filepath.Join(dir, defaultMkvmerge)
	}
	if c.Tools.Mkvextract == "" || c.Tools.Mkvextract == defaultMkvextract {
		c.Tools.Mkvextract = filepath.Join(dir, defaultMkvextract)
	}
}
