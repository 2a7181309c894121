package container

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// TrackKind classifies a track by what it carries.
type TrackKind string

const (
	TrackVideo    TrackKind = "video"
	TrackAudio    TrackKind = "audio"
	TrackSubtitle TrackKind = "subtitle"
	TrackOther    TrackKind = "other"
)

// TrackInfo describes a single track inside a container.
type TrackInfo struct {
	ID       int
	Kind     TrackKind
	Codec    string
	CodecID  string
	Language string
	Name     string
	Default  bool
	Forced   bool
	// DefaultDuration is nanoseconds per frame, zero when not declared.
	DefaultDuration int64
}

var subtitleExtensions = map[string]string{
	"S_TEXT/ASS":   ".ass",
	"S_ASS":        ".ass",
	"S_TEXT/SSA":   ".ssa",
	"S_SSA":        ".ssa",
	"S_TEXT/UTF8":  ".srt",
	"S_TEXT/ASCII": ".srt",
	"S_HDMV/PGS":   ".sup",
	"S_VOBSUB":     ".sub",
}

// SidecarExtension returns the native file extension for an extracted
// subtitle track, including the dot.
func (t TrackInfo) SidecarExtension() (string, bool) {
	ext, ok := subtitleExtensions[strings.ToUpper(strings.TrimSpace(t.CodecID))]
	return ext, ok
}

// FontAsset is a font attachment. OutputPath is empty until extracted.
type FontAsset struct {
	AttachmentID int
	FileName     string
	MIMEType     string
	OutputPath   string
}

var fontMIMETypes = map[string]struct{}{
	"application/x-truetype-font": {},
	"application/x-font-ttf":      {},
	"application/x-font-otf":      {},
	"application/vnd.ms-opentype": {},
	"application/font-sfnt":       {},
	"font/ttf":                    {},
	"font/otf":                    {},
	"font/sfnt":                   {},
	"font/collection":             {},
}

// IsFontAttachment reports whether an attachment looks like a font, by
// extension first and MIME type second.
func IsFontAttachment(fileName, mimeType string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".ttf", ".otf", ".ttc":
		return true
	}
	_, ok := fontMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

// Linkage records segment identity and declared neighbours. uuid.Nil means
// absent.
type Linkage struct {
	SegmentUID uuid.UUID
	PrevUID    uuid.UUID
	NextUID    uuid.UUID
}

// HasSegment reports whether the container declared its own segment UID.
func (l Linkage) HasSegment() bool {
	return l.SegmentUID != uuid.Nil
}

// Linked reports whether the container declares any neighbour.
func (l Linkage) Linked() bool {
	return l.PrevUID != uuid.Nil || l.NextUID != uuid.Nil
}

// ChapterSpan is one enabled chapter of an ordered edition, in nanoseconds
// of the file it plays from. Segment is uuid.Nil when that file is the
// container itself.
type ChapterSpan struct {
	Title   string
	Start   int64
	End     int64
	Segment uuid.UUID
}

// Foreign reports whether the chapter plays from another file.
func (c ChapterSpan) Foreign() bool {
	return c.Segment != uuid.Nil
}

// Metadata aggregates everything probed from one container.
// Tracks are sorted by ascending id and ids are unique.
type Metadata struct {
	Path    string
	Title   string
	Tracks  []TrackInfo
	Fonts   []FontAsset
	Linkage Linkage
	// OrderedChapters is the playback edition when it is ordered.
	OrderedChapters []ChapterSpan
	// ChapterErr records why chapters could not be read. It is not fatal.
	ChapterErr error
}

// Subtitles returns subtitle tracks in ascending id order.
func (m *Metadata) Subtitles() []TrackInfo {
	return m.tracksOf(TrackSubtitle)
}

// Audio returns audio tracks in ascending id order.
func (m *Metadata) Audio() []TrackInfo {
	return m.tracksOf(TrackAudio)
}

// HasAudio reports whether any audio track is present.
func (m *Metadata) HasAudio() bool {
	return len(m.Audio()) > 0
}

// Ordered reports whether playback follows an ordered chapter edition.
func (m *Metadata) Ordered() bool {
	return m != nil && len(m.OrderedChapters) > 0
}

// FrameDuration returns the default duration of the first video track that
// declares one.
func (m *Metadata) FrameDuration() (int64, bool) {
	for _, track := range m.tracksOf(TrackVideo) {
		if track.DefaultDuration > 0 {
			return track.DefaultDuration, true
		}
	}
	return 0, false
}

// Track looks up a track by id.
func (m *Metadata) Track(id int) (TrackInfo, bool) {
	for _, track := range m.Tracks {
		if track.ID == id {
			return track, true
		}
	}
	return TrackInfo{}, false
}

func (m *Metadata) tracksOf(kind TrackKind) []TrackInfo {
	if m == nil {
		return nil
	}
	var out []TrackInfo
	for _, track := range m.Tracks {
		if track.Kind == kind {
			out = append(out, track)
		}
	}
	return out
}
