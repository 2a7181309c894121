// Package extract pulls the selected subtitle track and font attachments out
// of a container into sidecar files.
//
// Overwrite decisions are made by an OverwriteGate keyed by chapter group:
// when targets already exist the operator is asked once per group, and the
// answer applies to every segment of that group. Files produced earlier in
// the same run for the same group (fonts shared between segments) are
// reused without asking. Failed extractions leave partial output in place.
package extract
