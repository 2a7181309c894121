package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScript(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScript() error {
	switch c.Script.Format {
	case FormatAviSynth, FormatVapourSynth:
	default:
		return fmt.Errorf("script.format: unsupported value %q (want avisynth or vapoursynth)", c.Script.Format)
	}
	if c.Script.RemoveGrainMode < 0 || c.Script.RemoveGrainMode > 24 {
		return fmt.Errorf("script.remove_grain_mode: %d out of range 0-24", c.Script.RemoveGrainMode)
	}
	if (c.Script.ResizeWidth > 0) != (c.Script.ResizeHeight > 0) {
		return errors.New("script.resize_width and script.resize_height must be set together")
	}
	if c.Script.ResizeWidth < 0 || c.Script.ResizeHeight < 0 {
		return errors.New("script.resize_width and script.resize_height must be non-negative")
	}
	if c.Script.SubtitleTrack < -1 {
		return fmt.Errorf("script.subtitle_track: %d is not a track id (use -1 for automatic selection)", c.Script.SubtitleTrack)
	}
	if c.Script.ExtractSubtitles && !c.Script.Subtitles {
		return errors.New("script.extract_subtitles requires script.subtitles")
	}
	if strings.ContainsAny(c.Script.FontsDir, `/\`) {
		return fmt.Errorf("script.fonts_dir: %q must be a single directory name", c.Script.FontsDir)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.MaxRelativeDepth < 0 {
		return errors.New("paths.max_relative_depth must be non-negative")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 0 {
		return errors.New("batch.workers must be non-negative (0 uses GOMAXPROCS)")
	}
	switch c.Batch.Overwrite {
	case OverwriteAsk, OverwriteAlways, OverwriteNever:
	default:
		return fmt.Errorf("batch.overwrite: unsupported value %q (want ask, always, or never)", c.Batch.Overwrite)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
