package config

const (
	FormatAviSynth    = "avisynth"
	FormatVapourSynth = "vapoursynth"

	OverwriteAsk    = "ask"
	OverwriteAlways = "always"
	OverwriteNever  = "never"
)

const (
	defaultMkvmerge         = "mkvmerge"
	defaultMkvextract       = "mkvextract"
	defaultFormat           = FormatAviSynth
	defaultRemoveGrainMode  = 1
	defaultSubtitleTrack    = -1
	defaultFontsDir         = "fonts"
	defaultMaxRelativeDepth = 3
	defaultOverwrite        = OverwriteAsk
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tools: Tools{
			Mkvmerge:   defaultMkvmerge,
			Mkvextract: defaultMkvextract,
		},
		Script: Script{
			Format:          defaultFormat,
			RemoveGrainMode: defaultRemoveGrainMode,
			SubtitleTrack:   defaultSubtitleTrack,
			FontsDir:        defaultFontsDir,
		},
		Paths: Paths{
			MaxRelativeDepth: defaultMaxRelativeDepth,
		},
		Batch: Batch{
			Overwrite: defaultOverwrite,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
