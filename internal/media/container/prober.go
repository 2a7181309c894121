package container

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"avsser/internal/language"
	"avsser/internal/services"
	"avsser/internal/services/mkvtoolnix"
)

// Prober produces Metadata for a container-with-tracks input.
type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}

// Identifier is the part of the mkvtoolnix client the prober needs.
type Identifier interface {
	Identify(ctx context.Context, path string) (*mkvtoolnix.Identification, error)
}

// ChapterReader is the part of the mkvtoolnix client that reads chapters.
type ChapterReader interface {
	ExtractChapters(ctx context.Context, path string) (*mkvtoolnix.Chapters, error)
}

// ProberOption configures an MkvProber.
type ProberOption func(*MkvProber)

// WithChapterReader enables ordered chapter detection.
func WithChapterReader(reader ChapterReader) ProberOption {
	return func(p *MkvProber) {
		p.chapters = reader
	}
}

// MkvProber probes containers through mkvmerge identification.
type MkvProber struct {
	identifier Identifier
	chapters   ChapterReader
}

// NewMkvProber wraps an identifier.
func NewMkvProber(identifier Identifier, opts ...ProberOption) *MkvProber {
	p := &MkvProber{identifier: identifier}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe identifies path and converts the result. Chapters are read only
// when identification reports some; a failure to read them is recorded on
// the metadata instead of failing the probe.
func (p *MkvProber) Probe(ctx context.Context, path string) (*Metadata, error) {
	ident, err := p.identifier.Identify(ctx, path)
	if err != nil {
		return nil, err
	}
	meta, err := FromIdentification(path, ident)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "probe", "convert identification", path, err)
	}
	if p.chapters == nil || !hasChapters(ident) {
		return meta, nil
	}
	chapters, err := p.chapters.ExtractChapters(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		meta.ChapterErr = err
		return meta, nil
	}
	if meta.OrderedChapters, err = OrderedChapters(meta.Linkage.SegmentUID, chapters); err != nil {
		meta.ChapterErr = services.Wrap(services.ErrParse, "probe", "ordered chapters", path, err)
	}
	return meta, nil
}

func hasChapters(ident *mkvtoolnix.Identification) bool {
	for _, entry := range ident.Chapters {
		if entry.NumEntries > 0 {
			return true
		}
	}
	return false
}

// OrderedChapters returns the enabled chapters of the playback edition when
// that edition is ordered, and nil otherwise. Chapters that name self as
// their segment are treated as local. A missing end time is taken from the
// next chapter's start.
func OrderedChapters(self uuid.UUID, chapters *mkvtoolnix.Chapters) ([]ChapterSpan, error) {
	edition, ok := chapters.Playback()
	if !ok || edition.Ordered == 0 {
		return nil, nil
	}
	var atoms []mkvtoolnix.ChapterAtom
	for _, atom := range edition.Atoms {
		if atom.Active() {
			atoms = append(atoms, atom)
		}
	}

	spans := make([]ChapterSpan, 0, len(atoms))
	for i, atom := range atoms {
		span := ChapterSpan{Title: atom.Title()}
		var err error
		if span.Start, err = mkvtoolnix.ParseTimestamp(atom.Start); err != nil {
			return nil, fmt.Errorf("chapter %d: %w", i+1, err)
		}
		switch {
		case strings.TrimSpace(atom.End) != "":
			if span.End, err = mkvtoolnix.ParseTimestamp(atom.End); err != nil {
				return nil, fmt.Errorf("chapter %d: %w", i+1, err)
			}
		case i+1 < len(atoms):
			if span.End, err = mkvtoolnix.ParseTimestamp(atoms[i+1].Start); err != nil {
				return nil, fmt.Errorf("chapter %d: %w", i+2, err)
			}
		default:
			return nil, fmt.Errorf("chapter %d: ordered chapter without end time", i+1)
		}
		if span.End < span.Start {
			return nil, fmt.Errorf("chapter %d: ends before it starts", i+1)
		}
		if atom.SegmentUID != nil {
			raw, err := atom.SegmentUID.Bytes()
			if err != nil {
				return nil, fmt.Errorf("chapter %d segment uid: %w", i+1, err)
			}
			uid, err := uuid.FromBytes(raw)
			if err != nil {
				return nil, fmt.Errorf("chapter %d segment uid: %w", i+1, err)
			}
			if uid != self {
				span.Segment = uid
			}
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// FromIdentification converts decoded mkvmerge output to Metadata.
func FromIdentification(path string, ident *mkvtoolnix.Identification) (*Metadata, error) {
	if ident == nil {
		return nil, fmt.Errorf("nil identification")
	}
	meta := &Metadata{
		Path:  path,
		Title: strings.TrimSpace(ident.Container.Properties.Title),
	}

	seen := make(map[int]struct{}, len(ident.Tracks))
	for _, track := range ident.Tracks {
		if _, dup := seen[track.ID]; dup {
			return nil, fmt.Errorf("duplicate track id %d", track.ID)
		}
		seen[track.ID] = struct{}{}
		meta.Tracks = append(meta.Tracks, TrackInfo{
			ID:              track.ID,
			Kind:            trackKind(track.Type),
			Codec:           track.Codec,
			CodecID:         track.Properties.CodecID,
			Language:        language.Preferred(track.Properties.LanguageIETF, track.Properties.Language),
			Name:            strings.TrimSpace(track.Properties.TrackName),
			Default:         track.Properties.DefaultTrack,
			Forced:          track.Properties.ForcedTrack,
			DefaultDuration: track.Properties.DefaultDuration,
		})
	}
	sort.Slice(meta.Tracks, func(i, j int) bool { return meta.Tracks[i].ID < meta.Tracks[j].ID })

	for _, att := range ident.Attachments {
		if !IsFontAttachment(att.FileName, att.ContentType) {
			continue
		}
		meta.Fonts = append(meta.Fonts, FontAsset{
			AttachmentID: att.ID,
			FileName:     att.FileName,
			MIMEType:     att.ContentType,
		})
	}
	sort.Slice(meta.Fonts, func(i, j int) bool { return meta.Fonts[i].AttachmentID < meta.Fonts[j].AttachmentID })

	props := ident.Container.Properties
	var err error
	if meta.Linkage.SegmentUID, err = parseUID("segment_uid", props.SegmentUID); err != nil {
		return nil, err
	}
	if meta.Linkage.PrevUID, err = parseUID("previous_segment_uid", props.PreviousSegmentUID); err != nil {
		return nil, err
	}
	if meta.Linkage.NextUID, err = parseUID("next_segment_uid", props.NextSegmentUID); err != nil {
		return nil, err
	}
	return meta, nil
}

func trackKind(value string) TrackKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video":
		return TrackVideo
	case "audio":
		return TrackAudio
	case "subtitles", "subtitle":
		return TrackSubtitle
	default:
		return TrackOther
	}
}

// parseUID accepts the 32 hex digit form mkvmerge prints. Empty means absent.
func parseUID(field, value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, nil
	}
	uid, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q: %w", field, value, err)
	}
	return uid, nil
}
