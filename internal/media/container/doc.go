// Package container turns mkvmerge identification output into the metadata
// record the rest of the pipeline consumes: subtitle and audio tracks, font
// attachments, and segment linkage.
//
// Key types:
//   - Metadata: everything known about one container-with-tracks input
//   - TrackInfo: one track, sorted by ascending id inside Metadata
//   - FontAsset: a font attachment and, once extracted, its sidecar path
//   - Linkage: the file's own segment UID plus declared neighbours
//
// Prober is the narrow boundary the batch runner depends on; MkvProber is
// the subprocess-backed implementation.
package container
