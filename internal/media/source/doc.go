// Package source classifies input files into the decoding strategy the
// generated script uses to open them.
package source
