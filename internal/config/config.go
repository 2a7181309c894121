package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Tools names the external mkvtoolnix binaries.
type Tools struct {
	Mkvmerge   string `toml:"mkvmerge"`
	Mkvextract string `toml:"mkvextract"`
}

// Script contains the statement and filter choices for generated scripts.
type Script struct {
	Format           string   `toml:"format"`
	RemoveGrain      bool     `toml:"remove_grain"`
	RemoveGrainMode  int      `toml:"remove_grain_mode"`
	ResizeWidth      int      `toml:"resize_width"`
	ResizeHeight     int      `toml:"resize_height"`
	VFRToCFR         bool     `toml:"vfr_to_cfr"`
	Audio            bool     `toml:"audio"`
	AudioExtension   string   `toml:"audio_extension"`
	Subtitles        bool     `toml:"subtitles"`
	ExtractSubtitles bool     `toml:"extract_subtitles"`
	SubtitleTrack    int      `toml:"subtitle_track"`
	SubtitleLanguage string   `toml:"subtitle_language"`
	Downsample       bool     `toml:"downsample"`
	ExtraFilters     []string `toml:"extra_filters"`
	FontsDir         string   `toml:"fonts_dir"`
}

// Paths contains destination and discovery settings.
type Paths struct {
	OutputDir        string `toml:"output_dir"`
	MaxRelativeDepth int    `toml:"max_relative_depth"`
	Recursive        bool   `toml:"recursive"`
}

// Batch contains scheduling and overwrite settings.
type Batch struct {
	Workers   int    `toml:"workers"`
	Overwrite string `toml:"overwrite"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for avsser.
//
// Configuration sections by subsystem:
//   - Tools: mkvmerge/mkvextract binaries used by the probe and extractor
//   - Script: dialect, filters, audio and subtitle handling
//   - Paths: output directory override and relative reference depth
//   - Batch: worker count and overwrite policy
//   - Logging: log format, level, and optional file
type Config struct {
	Tools   Tools   `toml:"tools"`
	Script  Script  `toml:"script"`
	Paths   Paths   `toml:"paths"`
	Batch   Batch   `toml:"batch"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/avsser/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("avsser.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Resize reports the configured resize target, if any.
func (c *Config) Resize() (width, height int, ok bool) {
	if c.Script.ResizeWidth <= 0 || c.Script.ResizeHeight <= 0 {
		return 0, 0, false
	}
	return c.Script.ResizeWidth, c.Script.ResizeHeight, true
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
