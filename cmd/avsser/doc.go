// Package main hosts the avsser CLI entrypoint and command graph.
//
// The root command runs a batch: it resolves configuration, applies flag
// overrides, wires the mkvtoolnix client into the probe and extractor, and
// prints a per-file summary table. Subcommands cover container inspection
// (probe) and configuration scaffolding (config init, config validate).
//
// Keep this package lean: script semantics live in internal packages and are
// only surfaced here through flags.
package main
