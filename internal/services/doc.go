// Package services defines shared utilities consumed by the pipeline stages
// and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp the run ID, input file, and chapter group key
//     for logging.
//   - Structured error markers plus the Wrap helper, so every failure class
//     (tool invocation, parse, structural, dangling reference, extraction,
//     path resolution) stays distinguishable in reported output.
//   - Subpackages wrapping external binaries behind narrow, fakeable
//     interfaces.
package services
