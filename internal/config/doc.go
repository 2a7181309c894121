// Package config loads, normalizes, and validates avsser configuration.
//
// Configuration lives in TOML. Load checks an explicit --config path first,
// then ~/.config/avsser/config.toml, then ./avsser.toml in the working
// directory, and falls back to Default when none exist. Command-line flags
// are layered on top by the CLI after Load returns.
//
// CreateSample writes the embedded sample_config.toml so users can start
// from a documented template.
package config
