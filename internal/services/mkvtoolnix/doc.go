// Package mkvtoolnix wraps the mkvmerge and mkvextract command-line tools.
//
// Identify runs `mkvmerge -J` and decodes its JSON identification output;
// ExtractTrack and ExtractAttachment run mkvextract to write one sidecar per
// call. Subprocesses go through the Executor interface so callers can test
// against canned output. Any non-zero exit, or a binary that cannot be
// found, is reported as services.ErrToolInvocation and malformed output as
// services.ErrParse. Neither is ever downgraded to an empty result.
package mkvtoolnix
