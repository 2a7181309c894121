// Package preflight provides readiness checks for the external binaries and
// destination directories a batch depends on.
//
// The batch runner calls CheckTools once it knows a container-with-tracks
// input is present, and the CLI checks the output directory before any file
// is processed. Failures are reported, not fatal: a missing binary still
// surfaces per file as a tool invocation error.
package preflight
