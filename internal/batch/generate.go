package batch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"avsser/internal/extract"
	"avsser/internal/fileutil"
	"avsser/internal/language"
	"avsser/internal/logging"
	"avsser/internal/media/container"
	"avsser/internal/pathres"
	"avsser/internal/script"
	"avsser/internal/services"
)

// TimecodesSuffix names the timestamp file a VFR source load writes next to
// its script.
const TimecodesSuffix = ".timecodes.txt"

// sidecarSearch lists subtitle sidecars in lookup order when nothing is
// extracted.
var sidecarSearch = []string{".ass", ".ssa", ".srt", ".sup", ".sub"}

// generate prepares the members of one group in play order, then builds and
// writes their scripts. Any member failure abandons the whole group so no
// chain is written with a missing link.
func (r *Runner) generate(ctx context.Context, groupKey string, members []*item) {
	segs := make([]script.Segment, len(members))
	for i, it := range members {
		if err := ctx.Err(); err != nil {
			r.abandon(ctx, members, nil, "batch canceled")
			return
		}
		seg, err := r.prepare(services.WithInput(ctx, it.input), it, groupKey)
		if err != nil {
			r.fail(ctx, it, err)
			r.abandon(ctx, members, it, "segment "+filepath.Base(it.input)+" failed")
			return
		}
		segs[i] = seg
	}

	r.alignAudio(ctx, members, segs)

	for i := 0; i < len(segs)-1; i++ {
		next, err := r.reference(ctx, filepath.Dir(segs[i].ScriptPath), segs[i+1].ScriptPath)
		if err != nil {
			r.fail(ctx, members[i], err)
			r.abandon(ctx, members, members[i], "segment "+filepath.Base(members[i].input)+" failed")
			return
		}
		segs[i].Next = &next
	}

	docs, err := r.builder.BuildGroup(segs)
	if err != nil {
		culprit := members[0]
		var segErr *script.SegmentError
		if errors.As(err, &segErr) && segErr.Ordinal >= 1 && segErr.Ordinal <= len(members) {
			culprit = members[segErr.Ordinal-1]
			err = segErr.Err
		}
		r.fail(ctx, culprit, err)
		r.abandon(ctx, members, culprit, "segment "+filepath.Base(culprit.input)+" failed")
		return
	}

	// Last segment first, so every script on disk only continues into
	// scripts that already exist.
	for i := len(docs) - 1; i >= 0; i-- {
		doc, it := docs[i], members[i]
		if err := script.Write(doc); err != nil {
			r.fail(ctx, it, err)
			r.abandon(ctx, members[:i], nil, "segment "+filepath.Base(it.input)+" failed")
			return
		}
		it.res.Status = StatusWritten
		logging.WithContext(services.WithInput(ctx, it.input), r.logger).Info("script written",
			logging.String("script", doc.Path),
			logging.Int("ordinal", doc.Ordinal),
			logging.Int("statements", len(doc.Statements)),
		)
	}
}

// alignAudio drops audio from every segment of a group when only some of
// them have it. A splice cannot join clips with and without audio.
func (r *Runner) alignAudio(ctx context.Context, members []*item, segs []script.Segment) {
	var without []string
	for i, seg := range segs {
		if seg.Audio == nil {
			without = append(without, filepath.Base(members[i].input))
		}
	}
	if len(without) == 0 || len(without) == len(segs) {
		return
	}
	for i := range segs {
		segs[i].Audio = nil
	}
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "audio omitted for the whole group", "group_audio_dropped",
		logging.String("without_audio", strings.Join(without, ", ")),
		logging.Int("segments", len(segs)),
		logging.String(logging.FieldErrorHint, "give every segment an audio track or sidecar, or disable audio"),
	)
}

// abandon skips every undecided member other than culprit.
func (r *Runner) abandon(ctx context.Context, members []*item, culprit *item, reason string) {
	for _, it := range members {
		if it == culprit || it.decided() {
			continue
		}
		r.skip(ctx, it, reason)
	}
}

// prepare resolves every reference one segment's script needs, extracting
// sidecars on the way.
func (r *Runner) prepare(ctx context.Context, it *item, groupKey string) (script.Segment, error) {
	logger := logging.WithContext(ctx, r.logger)
	scriptDir := filepath.Dir(it.script)
	seg := script.Segment{
		ScriptPath:     it.script,
		Input:          it.input,
		Classification: it.class,
	}

	var err error
	if seg.Source, err = r.reference(ctx, scriptDir, it.input); err != nil {
		return script.Segment{}, err
	}
	if r.cfg.Script.VFRToCFR {
		timecodes := filepath.Join(scriptDir, pathres.BaseName(it.input)+TimecodesSuffix)
		if seg.Timecodes, err = r.reference(ctx, scriptDir, timecodes); err != nil {
			return script.Segment{}, err
		}
	}
	if it.meta.Ordered() {
		parts, audio, fonts, err := r.orderedParts(ctx, logger, it, groupKey)
		if err != nil {
			return script.Segment{}, err
		}
		if len(parts) > 0 {
			seg.Parts, seg.Audio, seg.FontDir = parts, audio, fonts
			return seg, nil
		}
	}
	if r.cfg.Script.Audio {
		audio, err := r.audio(ctx, logger, it.input, it.meta, scriptDir)
		if err != nil {
			return script.Segment{}, err
		}
		seg.Audio = audio
	}
	if r.cfg.Script.Subtitles {
		sub, fonts, err := r.subtitles(ctx, logger, it, scriptDir, groupKey)
		if err != nil {
			return script.Segment{}, err
		}
		seg.Subtitle, seg.FontDir = sub, fonts
	}
	return seg, nil
}

// reference resolves asset for a script in scriptDir. A fallback to an
// absolute path is logged and is not an error.
func (r *Runner) reference(ctx context.Context, scriptDir, asset string) (pathres.Reference, error) {
	ref, err := r.resolver.Reference(scriptDir, asset)
	var resErr *pathres.ResolutionError
	if errors.As(err, &resErr) {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "using absolute path reference", services.EventType(err),
			logging.String("asset", asset),
			logging.String("reason", resErr.Reason),
			logging.String(logging.FieldErrorHint, "raise paths.max_relative_depth or keep scripts closer to their media"),
		)
		return ref, nil
	}
	if err != nil {
		return pathres.Reference{}, services.Wrap(services.ErrPathResolution, "batch", "reference", asset, err)
	}
	return ref, nil
}

// audio resolves the audio of input: a sidecar when an extension is
// configured, else the input itself unless it is a container without audio.
func (r *Runner) audio(ctx context.Context, logger *slog.Logger, input string, meta *container.Metadata, scriptDir string) (*pathres.Reference, error) {
	if ext := strings.TrimPrefix(r.cfg.Script.AudioExtension, "."); ext != "" {
		path := filepath.Join(filepath.Dir(input), pathres.BaseName(input)+"."+ext)
		ok, err := fileutil.Exists(path)
		if err != nil {
			return nil, services.Wrap(services.ErrPathResolution, "batch", "audio sidecar", path, err)
		}
		if !ok {
			logging.WarnWithContext(logger, "audio sidecar not found; audio omitted", "audio_sidecar_missing",
				logging.String("expected", path),
			)
			return nil, nil
		}
		ref, err := r.reference(ctx, scriptDir, path)
		if err != nil {
			return nil, err
		}
		return &ref, nil
	}
	if meta != nil && !meta.HasAudio() {
		logging.WarnWithContext(logger, "container has no audio tracks; audio omitted", "audio_track_missing",
			logging.String("file", filepath.Base(input)),
		)
		return nil, nil
	}
	ref, err := r.reference(ctx, scriptDir, input)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *Runner) subtitles(ctx context.Context, logger *slog.Logger, it *item, scriptDir, groupKey string) (sub, fonts *pathres.Reference, err error) {
	if r.cfg.Script.ExtractSubtitles && it.meta != nil {
		return r.extractSubtitles(ctx, logger, it, scriptDir, groupKey)
	}

	path, ok := findSidecar(it.input, scriptDir)
	if !ok {
		logging.WarnWithContext(logger, "no subtitle sidecar found; subtitles omitted", "subtitle_sidecar_missing",
			logging.String(logging.FieldErrorHint, "enable --extract-subtitles for containers or place a sidecar next to the input"),
		)
		return nil, nil, nil
	}
	ref, err := r.reference(ctx, scriptDir, path)
	if err != nil {
		return nil, nil, err
	}
	sub = &ref

	fontsDir := filepath.Join(filepath.Dir(path), r.cfg.Script.FontsDir)
	if info, statErr := os.Stat(fontsDir); statErr == nil && info.IsDir() {
		fontRef, err := r.reference(ctx, scriptDir, fontsDir)
		if err != nil {
			return nil, nil, err
		}
		fonts = &fontRef
	}
	return sub, fonts, nil
}

func (r *Runner) extractSubtitles(ctx context.Context, logger *slog.Logger, it *item, scriptDir, groupKey string) (sub, fonts *pathres.Reference, err error) {
	track, ok, err := container.SelectSubtitle(it.meta, container.SubtitleChoice{
		TrackID:  r.cfg.Script.SubtitleTrack,
		Language: r.cfg.Script.SubtitleLanguage,
	})
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		logger.Info("container has no subtitle tracks; subtitles omitted")
		return nil, nil, nil
	}
	logger.Debug("selected subtitle track",
		logging.Int("track", track.ID),
		logging.String("codec", track.CodecID),
		logging.String("language", language.DisplayName(track.Language)),
		logging.Bool("default", track.Default),
	)

	result, err := r.extractor.Extract(ctx, extract.Request{
		Input:    it.input,
		Metadata: it.meta,
		Subtitle: &track,
		Fonts:    true,
		Dir:      scriptDir,
		FontsDir: r.cfg.Script.FontsDir,
		GroupKey: groupKey,
	})
	if err != nil {
		return nil, nil, err
	}

	ref, err := r.reference(ctx, scriptDir, result.Subtitle)
	if err != nil {
		return nil, nil, err
	}
	sub = &ref
	if result.FontsDir != "" {
		fontRef, err := r.reference(ctx, scriptDir, result.FontsDir)
		if err != nil {
			return nil, nil, err
		}
		fonts = &fontRef
	}
	return sub, fonts, nil
}

// findSidecar looks for an existing subtitle named after input, first in the
// script directory, then next to the input.
func findSidecar(input, scriptDir string) (string, bool) {
	base := pathres.BaseName(input)
	dirs := []string{scriptDir}
	if inputDir := filepath.Dir(input); inputDir != scriptDir {
		dirs = append(dirs, inputDir)
	}
	for _, dir := range dirs {
		for _, ext := range sidecarSearch {
			candidate := filepath.Join(dir, base+ext)
			if ok, err := fileutil.Exists(candidate); err == nil && ok {
				return candidate, true
			}
		}
	}
	return "", false
}
