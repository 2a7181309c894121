package script

import (
	"errors"
	"fmt"
	"strconv"

	"avsser/internal/config"
	"avsser/internal/media/source"
	"avsser/internal/pathres"
	"avsser/internal/services"
)

// Segment carries everything resolved for one script. References are
// relative to the directory of ScriptPath.
type Segment struct {
	Ordinal        int
	ScriptPath     string
	Input          string
	Classification source.Classification
	Source         pathres.Reference
	// Timecodes is used when rate conversion is enabled.
	Timecodes pathres.Reference
	Audio     *pathres.Reference
	Subtitle  *pathres.Reference
	FontDir   *pathres.Reference
	// Next points at the following segment's script.
	Next *pathres.Reference
	// Parts replaces the single source load when the input plays an
	// ordered chapter edition. Audio is then only a flag; each part
	// carries its own audio and subtitle references.
	Parts []Part
}

// Part is one frame range of an ordered chapter edition. Parts that share a
// Source load it once.
type Part struct {
	Classification source.Classification
	Source         pathres.Reference
	Timecodes      pathres.Reference
	Audio          *pathres.Reference
	Subtitle       *pathres.Reference
	// First and Last are inclusive frame numbers after rate conversion.
	First int
	Last  int
}

// Options configures a Builder.
type Options struct {
	Format     string
	Chain      FilterChainConfig
	Downsample bool
}

// Builder renders ScriptDocuments in one dialect.
type Builder struct {
	dialect    dialect
	steps      []Step
	vfr        bool
	downsample bool
	format     string
}

// NewBuilder validates opts and assembles the filter chain once.
func NewBuilder(opts Options) (*Builder, error) {
	var d dialect
	switch opts.Format {
	case config.FormatAviSynth, "":
		d = aviSynth{}
		opts.Format = config.FormatAviSynth
	case config.FormatVapourSynth:
		d = vapourSynth{}
	default:
		return nil, services.Wrap(services.ErrConfiguration, "script", "new builder", "unsupported format "+strconv.Quote(opts.Format), nil)
	}
	steps, err := Assemble(opts.Chain)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "script", "assemble filters", "", err)
	}
	return &Builder{
		dialect:    d,
		steps:      steps,
		vfr:        opts.Chain.VFRToCFR,
		downsample: opts.Downsample,
		format:     opts.Format,
	}, nil
}

// Extension returns the script file extension including the dot.
func (b *Builder) Extension() string {
	return b.dialect.extension()
}

// Steps returns the assembled filter chain.
func (b *Builder) Steps() []Step {
	return append([]Step(nil), b.steps...)
}

// Build renders a single segment.
func (b *Builder) Build(seg Segment) (*ScriptDocument, error) {
	if seg.Ordinal <= 0 {
		seg.Ordinal = 1
	}
	clip := "seg" + strconv.Itoa(seg.Ordinal)
	d := b.dialect

	if seg.Classification.Kind == source.Indexed && b.vfr {
		return nil, services.Wrap(services.ErrUnsupported, "script", "build",
			"frame-rate conversion needs timecodes, which index sources do not provide", nil)
	}
	if seg.Classification.Kind == source.Indexed && seg.Audio != nil && seg.Audio.Target == seg.Source.Target {
		return nil, services.Wrap(services.ErrUnsupported, "script", "build",
			"audio cannot be decoded from an index file; set an audio sidecar extension", nil)
	}

	doc := &ScriptDocument{Path: seg.ScriptPath, Format: b.format, Ordinal: seg.Ordinal}
	add := func(kind StatementKind, lines ...string) {
		for _, line := range lines {
			doc.Statements = append(doc.Statements, Statement{Kind: kind, Text: line})
		}
	}

	add(StatementPreamble, d.preamble()...)

	if len(seg.Parts) == 0 {
		fontVar := ""
		if seg.FontDir != nil && seg.Subtitle != nil {
			fontVar = clip + "_fontdir"
		}
		if err := b.load(add, clip, seg, fontVar); err != nil {
			return nil, err
		}
	} else if err := b.loadParts(add, clip, seg); err != nil {
		return nil, err
	}

	if seg.Next != nil {
		for i, line := range d.continuation(clip, *seg.Next, seg.Audio != nil) {
			stmt := Statement{Kind: StatementContinuation, Text: line}
			if i == 0 {
				stmt.Target = seg.Next.Target
			}
			doc.Statements = append(doc.Statements, stmt)
		}
	}
	add(StatementOutput, d.output(clip, seg.Audio != nil)...)
	return doc, nil
}

// load emits the source, filter chain, audio and subtitle of one clip.
// fontVar is declared before the subtitle when seg has a font directory.
func (b *Builder) load(add func(StatementKind, ...string), clip string, seg Segment, fontVar string) error {
	d := b.dialect
	src, err := d.source(clip, seg, b.vfr, b.downsample)
	if err != nil {
		return err
	}
	add(StatementSource, src...)
	if b.vfr && b.downsample {
		add(StatementFilter, d.toEightBit(clip))
	}
	for _, step := range b.steps {
		add(StatementFilter, d.filter(clip, step, seg.Timecodes))
	}
	if seg.Audio != nil {
		add(StatementAudio, d.audio(clip, *seg.Audio))
	}
	if seg.Subtitle == nil {
		return nil
	}
	if seg.FontDir != nil && fontVar != "" {
		add(StatementFontDir, d.assign(fontVar, d.path(*seg.FontDir)))
	}
	line, err := d.subtitle(clip, *seg.Subtitle, fontVar)
	if err != nil {
		return err
	}
	add(StatementSubtitle, line)
	return nil
}

// loadParts loads every distinct part source once, trims each part out of
// its source and splices the parts into clip.
func (b *Builder) loadParts(add func(StatementKind, ...string), clip string, seg Segment) error {
	d := b.dialect
	audio := seg.Audio != nil

	fontVar := ""
	if seg.FontDir != nil {
		for _, part := range seg.Parts {
			if part.Subtitle != nil {
				fontVar = clip + "_fontdir"
				add(StatementFontDir, d.assign(fontVar, d.path(*seg.FontDir)))
				break
			}
		}
	}

	sources := make(map[string]string)
	names := make([]string, 0, len(seg.Parts))
	for i, part := range seg.Parts {
		if part.Last < part.First || part.First < 0 {
			return services.Wrap(services.ErrUnsupported, "script", "build",
				fmt.Sprintf("chapter part %d has an empty frame range %d-%d", i+1, part.First, part.Last), nil)
		}
		if audio && part.Audio == nil {
			return services.Wrap(services.ErrUnsupported, "script", "build",
				fmt.Sprintf("chapter part %d has no audio while the segment does", i+1), nil)
		}
		srcVar, ok := sources[part.Source.Target]
		if !ok {
			srcVar = fmt.Sprintf("%s_src%d", clip, len(sources)+1)
			sources[part.Source.Target] = srcVar
			sub := Segment{
				Classification: part.Classification,
				Source:         part.Source,
				Timecodes:      part.Timecodes,
				Subtitle:       part.Subtitle,
			}
			if audio {
				sub.Audio = part.Audio
			}
			if err := b.load(add, srcVar, sub, fontVar); err != nil {
				return err
			}
		}
		name := fmt.Sprintf("%s_part%d", clip, i+1)
		add(StatementTrim, d.trim(name, srcVar, part.First, part.Last, audio)...)
		names = append(names, name)
	}
	add(StatementTrim, d.splice(clip, names, audio)...)
	return nil
}

// BuildGroup renders one document per segment. Every segment but the last
// must continue into the next segment's script, and either every segment
// carries audio or none does, since a splice cannot mix the two.
func (b *Builder) BuildGroup(segs []Segment) ([]*ScriptDocument, error) {
	if len(segs) == 0 {
		return nil, errors.New("build group: no segments")
	}
	docs := make([]*ScriptDocument, 0, len(segs))
	for i, seg := range segs {
		last := i == len(segs)-1
		switch {
		case last && seg.Next != nil:
			return nil, fmt.Errorf("build group: last segment %s has a continuation", seg.ScriptPath)
		case !last && (seg.Next == nil || seg.Next.Target != segs[i+1].ScriptPath):
			return nil, fmt.Errorf("build group: segment %s does not continue into %s", seg.ScriptPath, segs[i+1].ScriptPath)
		}
		seg.Ordinal = i + 1
		if (seg.Audio != nil) != (segs[0].Audio != nil) {
			return nil, &SegmentError{Ordinal: seg.Ordinal, ScriptPath: seg.ScriptPath, Err: services.Wrap(services.ErrUnsupported, "script", "build group",
				"segments of one group must all carry audio or all omit it", nil)}
		}
		doc, err := b.Build(seg)
		if err != nil {
			return nil, &SegmentError{Ordinal: seg.Ordinal, ScriptPath: seg.ScriptPath, Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SegmentError attributes a build failure to one segment of a group.
type SegmentError struct {
	Ordinal    int
	ScriptPath string
	Err        error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d (%s): %v", e.Ordinal, e.ScriptPath, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// dialect renders statement text for one scripting environment.
type dialect interface {
	extension() string
	preamble() []string
	path(ref pathres.Reference) string
	assign(name, expr string) string
	source(clip string, seg Segment, vfr, downsample bool) ([]string, error)
	toEightBit(clip string) string
	filter(clip string, step Step, timecodes pathres.Reference) string
	audio(clip string, ref pathres.Reference) string
	subtitle(clip string, ref pathres.Reference, fontVar string) (string, error)
	trim(name, src string, first, last int, audio bool) []string
	splice(clip string, parts []string, audio bool) []string
	continuation(clip string, next pathres.Reference, audio bool) []string
	output(clip string, audio bool) []string
}
