package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"avsser/internal/config"
	"avsser/internal/script"
)

// batchFlags mirrors the config keys a run can override. Only flags the user
// set are applied.
type batchFlags struct {
	outputDir        string
	format           string
	audio            bool
	audioExtension   string
	subtitles        bool
	extractSubtitles bool
	subtitleTrack    int
	subtitleLanguage string
	removeGrain      bool
	removeGrainMode  int
	resize           string
	vfr              bool
	downsample       bool
	filters          []string
	fontsDir         string
	recursive        bool
	workers          int
	overwrite        string
}

func (f *batchFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.outputDir, "output-dir", "o", "", "Write scripts to this directory instead of next to each input")
	flags.StringVarP(&f.format, "format", "f", "", "Script format: avisynth or vapoursynth")
	flags.BoolVarP(&f.audio, "audio", "a", false, "Include audio")
	flags.StringVar(&f.audioExtension, "audio-ext", "", "Load audio from a sidecar with this extension")
	flags.BoolVarP(&f.subtitles, "subtitles", "s", false, "Import subtitles")
	flags.BoolVarP(&f.extractSubtitles, "extract-subtitles", "x", false, "Extract the subtitle track and fonts from containers (implies --subtitles)")
	flags.IntVarP(&f.subtitleTrack, "subtitle-track", "t", -1, "Subtitle track id to extract (-1 selects automatically)")
	flags.StringVar(&f.subtitleLanguage, "subtitle-lang", "", "Preferred subtitle language (e.g. ja, eng)")
	flags.BoolVarP(&f.removeGrain, "remove-grain", "g", false, "Apply RemoveGrain")
	flags.IntVar(&f.removeGrainMode, "remove-grain-mode", 1, "RemoveGrain mode")
	flags.StringVarP(&f.resize, "resize", "r", "", "Resize to WIDTHxHEIGHT")
	flags.BoolVar(&f.vfr, "vfr", false, "Convert variable frame rate to 120 fps constant")
	flags.BoolVar(&f.downsample, "downsample", false, "Decode through LWLibav as 8-bit")
	flags.StringArrayVar(&f.filters, "filter", nil, "Extra filter expression applied after the source (repeatable)")
	flags.StringVar(&f.fontsDir, "fonts-dir", "", "Directory name for extracted fonts")
	flags.BoolVarP(&f.recursive, "recursive", "R", false, "Descend into subdirectories")
	flags.IntVarP(&f.workers, "workers", "j", 0, "Parallel pipelines (0 uses GOMAXPROCS)")
	flags.StringVar(&f.overwrite, "overwrite", "", "Existing sidecars: ask, always or never")
}

// apply copies changed flags onto cfg and re-validates it.
func (f *batchFlags) apply(flags *pflag.FlagSet, cfg *config.Config) error {
	changed := flags.Changed
	if changed("output-dir") {
		cfg.Paths.OutputDir = f.outputDir
	}
	if changed("format") {
		cfg.Script.Format = f.format
	}
	if changed("audio") {
		cfg.Script.Audio = f.audio
	}
	if changed("audio-ext") {
		cfg.Script.AudioExtension = f.audioExtension
		if strings.TrimSpace(f.audioExtension) != "" {
			cfg.Script.Audio = true
		}
	}
	if changed("subtitles") {
		cfg.Script.Subtitles = f.subtitles
	}
	if changed("extract-subtitles") {
		cfg.Script.ExtractSubtitles = f.extractSubtitles
		if f.extractSubtitles {
			cfg.Script.Subtitles = true
		}
	}
	if changed("subtitle-track") {
		cfg.Script.SubtitleTrack = f.subtitleTrack
	}
	if changed("subtitle-lang") {
		cfg.Script.SubtitleLanguage = f.subtitleLanguage
	}
	if changed("remove-grain") {
		cfg.Script.RemoveGrain = f.removeGrain
	}
	if changed("remove-grain-mode") {
		cfg.Script.RemoveGrainMode = f.removeGrainMode
		cfg.Script.RemoveGrain = true
	}
	if changed("resize") {
		size, err := script.ParseSize(f.resize)
		if err != nil {
			return fmt.Errorf("--resize: %w", err)
		}
		cfg.Script.ResizeWidth, cfg.Script.ResizeHeight = size.Width, size.Height
	}
	if changed("vfr") {
		cfg.Script.VFRToCFR = f.vfr
	}
	if changed("downsample") {
		cfg.Script.Downsample = f.downsample
	}
	if changed("filter") {
		cfg.Script.ExtraFilters = append(cfg.Script.ExtraFilters, f.filters...)
	}
	if changed("fonts-dir") {
		cfg.Script.FontsDir = f.fontsDir
	}
	if changed("recursive") {
		cfg.Paths.Recursive = f.recursive
	}
	if changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if changed("overwrite") {
		cfg.Batch.Overwrite = f.overwrite
	}

	if err := cfg.Normalize(); err != nil {
		return err
	}
	return cfg.Validate()
}
