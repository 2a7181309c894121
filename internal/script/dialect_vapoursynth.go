package script

import (
	"fmt"
	"path/filepath"
	"strings"

	"avsser/internal/media/source"
	"avsser/internal/pathres"
	"avsser/internal/services"
)

// vapourSynth renders VapourSynth Python. vspipe resolves relative paths
// against its working directory, so relative references are joined onto the
// script's own directory.
type vapourSynth struct{}

func (vapourSynth) extension() string { return ".vpy" }

func (vapourSynth) preamble() []string {
	return []string{
		"import os",
		"import runpy",
		"import vapoursynth as vs",
		"",
		"core = vs.core",
		"here = os.path.dirname(os.path.abspath(__file__))",
		"",
	}
}

var pyEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)

func pyString(value string) string {
	return "'" + pyEscaper.Replace(value) + "'"
}

func (vapourSynth) path(ref pathres.Reference) string {
	if ref.Relative {
		return fmt.Sprintf("os.path.join(here, %s)", pyString(ref.Path))
	}
	return pyString(ref.Path)
}

func (vapourSynth) assign(name, expr string) string {
	return name + " = " + expr
}

func (v vapourSynth) source(clip string, seg Segment, vfr, downsample bool) ([]string, error) {
	src := v.path(seg.Source)
	var expr string
	switch seg.Classification.Kind {
	case source.Indexed:
		switch seg.Classification.Index {
		case source.IndexD2V:
			expr = fmt.Sprintf("core.d2v.Source(%s)", src)
		case source.IndexDGI:
			expr = fmt.Sprintf("core.dgdecodenv.DGSource(%s)", src)
		case source.IndexDGA:
			return nil, services.Wrap(services.ErrUnsupported, "script", "source", "VapourSynth has no source filter for .dga indexes", nil)
		default:
			return nil, services.Wrap(services.ErrUnsupported, "script", "source", "unknown index format", nil)
		}
	case source.Generic, source.Tracks:
		switch {
		case vfr:
			expr = fmt.Sprintf("core.ffms2.Source(%s, timecodes=%s)", src, v.path(seg.Timecodes))
		case downsample:
			expr = fmt.Sprintf("core.lsmas.LWLibavSource(%s, format='YUV420P8')", src)
		default:
			expr = fmt.Sprintf("core.ffms2.Source(%s)", src)
		}
	default:
		return nil, services.Wrap(services.ErrUnsupported, "script", "source", "no source filter for "+string(seg.Classification.Kind), nil)
	}
	return []string{v.assign(clip, expr)}, nil
}

func (v vapourSynth) toEightBit(clip string) string {
	return v.assign(clip, fmt.Sprintf("core.resize.Spline36(%s, format=vs.YUV420P8)", clip))
}

func (v vapourSynth) filter(clip string, step Step, timecodes pathres.Reference) string {
	var expr string
	switch step.Kind {
	case StepRemoveGrain:
		expr = fmt.Sprintf("core.rgvs.RemoveGrain(%s, %d)", clip, step.Mode)
	case StepResize:
		expr = fmt.Sprintf("core.resize.Spline64(%s, %d, %d)", clip, step.Width, step.Height)
	case StepRateConvert:
		expr = fmt.Sprintf("core.vfrtocfr.VFRToCFR(%s, timecodes=%s, fpsnum=%d, fpsden=%d)", clip, v.path(timecodes), step.FPSNum, step.FPSDen)
	default:
		expr = applyClip(step.Expr, clip)
	}
	return v.assign(clip, expr)
}

func (v vapourSynth) audio(clip string, ref pathres.Reference) string {
	return v.assign(clip+"_audio", fmt.Sprintf("core.bas.Source(%s)", v.path(ref)))
}

func (v vapourSynth) subtitle(clip string, ref pathres.Reference, fontVar string) (string, error) {
	var expr string
	switch strings.ToLower(filepath.Ext(ref.Path)) {
	case ".ass", ".ssa", ".srt":
		if fontVar != "" {
			expr = fmt.Sprintf("core.sub.TextFile(%s, %s, fontdir=%s)", clip, v.path(ref), fontVar)
		} else {
			expr = fmt.Sprintf("core.sub.TextFile(%s, %s)", clip, v.path(ref))
		}
	case ".sup", ".sub", ".idx":
		expr = fmt.Sprintf("core.sub.ImageFile(%s, %s)", clip, v.path(ref))
	default:
		return "", services.Wrap(services.ErrUnsupported, "script", "subtitle", "cannot import "+filepath.Base(ref.Path), nil)
	}
	return v.assign(clip, expr), nil
}

func (v vapourSynth) trim(name, src string, first, last int, audio bool) []string {
	lines := []string{v.assign(name, fmt.Sprintf("core.std.Trim(%s, first=%d, last=%d)", src, first, last))}
	if audio {
		lines = append(lines, v.assign(name+"_audio", fmt.Sprintf("core.std.AudioTrim(%s_audio, first=%s, length=%s)",
			src, samples(src, first), samples(src, last-first+1))))
	}
	return lines
}

// samples converts a frame count of clip to samples of its audio node.
func samples(clip string, frames int) string {
	return fmt.Sprintf("%s_audio.sample_rate * %d * %s.fps.denominator // %s.fps.numerator", clip, frames, clip, clip)
}

func (v vapourSynth) splice(clip string, parts []string, audio bool) []string {
	lines := []string{v.assign(clip, strings.Join(parts, " + "))}
	if audio {
		audioParts := make([]string, len(parts))
		for i, part := range parts {
			audioParts[i] = part + "_audio"
		}
		lines = append(lines, v.assign(clip+"_audio", strings.Join(audioParts, " + ")))
	}
	return lines
}

func (v vapourSynth) continuation(clip string, next pathres.Reference, audio bool) []string {
	nextVar := clip + "_next"
	lines := []string{
		v.assign(nextVar, fmt.Sprintf("runpy.run_path(%s)", v.path(next))),
		v.assign(clip, fmt.Sprintf("%s + %s['video']", clip, nextVar)),
	}
	if audio {
		lines = append(lines, v.assign(clip+"_audio", fmt.Sprintf("%s_audio + %s['audio']", clip, nextVar)))
	}
	return lines
}

func (v vapourSynth) output(clip string, audio bool) []string {
	lines := []string{"", v.assign("video", clip)}
	if audio {
		lines = append(lines, v.assign("audio", clip+"_audio"))
	}
	lines = append(lines, "", "if __name__ == '__vapoursynth__':", "    video.set_output(0)")
	if audio {
		lines = append(lines, "    audio.set_output(1)")
	}
	return lines
}
