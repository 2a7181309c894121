package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"avsser/internal/chapters"
	"avsser/internal/logging"
	"avsser/internal/media/container"
	"avsser/internal/media/source"
	"avsser/internal/pathres"
	"avsser/internal/script"
	"avsser/internal/services"
)

// indexSegments indexes every probed container by segment UID. Segments
// that ordered chapters borrow but the batch lacks are looked up among the
// containers next to the borrowing file.
func (r *Runner) indexSegments(ctx context.Context, items []*item) *chapters.Index {
	logger := logging.WithContext(ctx, r.logger)
	known := make(map[string]struct{}, len(items))
	metas := make([]*container.Metadata, 0, len(items))
	for _, it := range items {
		known[it.input] = struct{}{}
		if it.meta != nil {
			metas = append(metas, it.meta)
		}
	}
	idx := chapters.NewIndex(metas...)

	scanned := make(map[string]struct{})
	for _, it := range items {
		if !it.meta.Ordered() || it.decided() {
			continue
		}
		if len(idx.Missing(it.meta.OrderedChapters)) == 0 {
			continue
		}
		dir := filepath.Dir(it.input)
		if _, done := scanned[dir]; done {
			continue
		}
		scanned[dir] = struct{}{}
		for _, sibling := range containersIn(dir) {
			if _, ok := known[sibling]; ok {
				continue
			}
			known[sibling] = struct{}{}
			if ctx.Err() != nil {
				return idx
			}
			meta, err := r.prober.Probe(services.WithInput(ctx, sibling), sibling)
			if err != nil {
				logger.Debug("sibling segment not probed", logging.String("file", sibling), logging.Error(err))
				continue
			}
			if idx.Add(meta) {
				logger.Debug("indexed sibling segment",
					logging.String("file", sibling),
					logging.String("segment_uid", meta.Linkage.SegmentUID.String()),
				)
			}
		}
	}
	return idx
}

// containersIn lists container files directly inside dir, sorted.
func containersIn(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if source.ClassifyExtension(entry.Name()).Kind == source.Tracks {
			out = append(out, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(out)
	return out
}

// chapterRate is the frame rate chapter times are converted at: the
// conversion target when rate conversion is on, else the container's own.
func (r *Runner) chapterRate(meta *container.Metadata) (chapters.Rate, error) {
	if r.cfg.Script.VFRToCFR {
		return chapters.Rate{Num: script.TargetFPSNum, Den: script.TargetFPSDen}, nil
	}
	if ns, ok := meta.FrameDuration(); ok {
		return chapters.RateFromFrameDuration(ns), nil
	}
	return chapters.Rate{}, services.Wrap(services.ErrUnsupported, "batch", "ordered chapters",
		"video track declares no frame duration; enable vfr_to_cfr to cut chapters at a fixed rate", nil)
}

// partSource is one file an ordered edition plays from, with its resolved
// references.
type partSource struct {
	ref       pathres.Reference
	timecodes pathres.Reference
	audio     *pathres.Reference
	subtitle  *pathres.Reference
}

// orderedParts resolves the parts of the input's ordered edition. No parts
// and no error means the edition has no playable chapter and the file is
// used whole. audio is set when every part has audio.
func (r *Runner) orderedParts(ctx context.Context, logger *slog.Logger, it *item, groupKey string) (parts []script.Part, audio, fonts *pathres.Reference, err error) {
	rate, err := r.chapterRate(it.meta)
	if err != nil {
		return nil, nil, nil, err
	}
	breakpoints := chapters.Breakpoints(it.meta.OrderedChapters, rate)
	if len(breakpoints) == 0 {
		logging.WarnWithContext(logger, "ordered edition has no playable chapters; using the whole file", "ordered_chapters_empty")
		return nil, nil, nil, nil
	}

	sources := make(map[uuid.UUID]*partSource)
	allAudio := r.cfg.Script.Audio
	parts = make([]script.Part, 0, len(breakpoints))
	for _, bp := range breakpoints {
		ps, ok := sources[bp.Segment]
		if !ok {
			meta := it.meta
			if bp.Segment != uuid.Nil {
				found, ok := r.segments.Lookup(bp.Segment)
				if !ok {
					return nil, nil, nil, chapters.DanglingReference{From: it.input, Direction: chapters.DirectionChapter, UID: bp.Segment}
				}
				meta = found
			}
			if ps, err = r.partSource(ctx, logger, it, meta, groupKey, &fonts); err != nil {
				return nil, nil, nil, err
			}
			sources[bp.Segment] = ps
			if bp.Segment != uuid.Nil {
				logger.Debug("ordered chapter borrows segment",
					logging.String("file", meta.Path),
					logging.String("segment_uid", bp.Segment.String()),
				)
			}
		}
		if ps.audio == nil {
			allAudio = false
		}
		parts = append(parts, script.Part{
			Classification: source.Classification{Kind: source.Tracks},
			Source:         ps.ref,
			Timecodes:      ps.timecodes,
			Audio:          ps.audio,
			Subtitle:       ps.subtitle,
			First:          bp.First,
			Last:           bp.Last,
		})
	}
	if allAudio {
		audio = parts[0].Audio
	}
	logger.Info("ordered chapters resolved",
		logging.Int("parts", len(parts)),
		logging.Int("files", len(sources)),
	)
	return parts, audio, fonts, nil
}

// partSource resolves the references of one file an ordered edition plays
// from. Subtitles of the file itself follow the normal rules; borrowed
// segments only use an existing sidecar.
func (r *Runner) partSource(ctx context.Context, logger *slog.Logger, it *item, meta *container.Metadata, groupKey string, fonts **pathres.Reference) (*partSource, error) {
	scriptDir := filepath.Dir(it.script)
	path := meta.Path
	ps := &partSource{}
	var err error
	if ps.ref, err = r.reference(ctx, scriptDir, path); err != nil {
		return nil, err
	}
	if r.cfg.Script.VFRToCFR {
		timecodes := filepath.Join(scriptDir, pathres.BaseName(path)+TimecodesSuffix)
		if ps.timecodes, err = r.reference(ctx, scriptDir, timecodes); err != nil {
			return nil, err
		}
	}
	if r.cfg.Script.Audio {
		if ps.audio, err = r.audio(ctx, logger, path, meta, scriptDir); err != nil {
			return nil, err
		}
	}
	if !r.cfg.Script.Subtitles {
		return ps, nil
	}
	if path == it.input {
		sub, fontDir, err := r.subtitles(ctx, logger, it, scriptDir, groupKey)
		if err != nil {
			return nil, err
		}
		ps.subtitle, *fonts = sub, fontDir
		return ps, nil
	}
	if sidecar, ok := findSidecar(path, scriptDir); ok {
		ref, err := r.reference(ctx, scriptDir, sidecar)
		if err != nil {
			return nil, err
		}
		ps.subtitle = &ref
	}
	return ps, nil
}
