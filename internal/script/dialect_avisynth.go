package script

import (
	"fmt"
	"path/filepath"
	"strings"

	"avsser/internal/media/source"
	"avsser/internal/pathres"
	"avsser/internal/services"
)

// aviSynth renders AviSynth+ statements. AviSynth resolves relative paths
// against the directory of the script being loaded, Import included.
type aviSynth struct{}

func (aviSynth) extension() string { return ".avs" }

func (aviSynth) preamble() []string { return nil }

// AviSynth strings have no escapes; triple quotes allow embedded quotes.
func avsString(value string) string {
	if strings.Contains(value, `"`) {
		return `"""` + value + `"""`
	}
	return `"` + value + `"`
}

func (aviSynth) path(ref pathres.Reference) string {
	return avsString(ref.Path)
}

func (aviSynth) assign(name, expr string) string {
	return name + " = " + expr
}

func (a aviSynth) source(clip string, seg Segment, vfr, downsample bool) ([]string, error) {
	src := a.path(seg.Source)
	var expr string
	switch seg.Classification.Kind {
	case source.Indexed:
		switch seg.Classification.Index {
		case source.IndexD2V:
			expr = fmt.Sprintf("DGDecode_MPEG2Source(%s)", src)
		case source.IndexDGA:
			expr = fmt.Sprintf("AVCSource(%s)", src)
		case source.IndexDGI:
			expr = fmt.Sprintf("DGSource(%s)", src)
		default:
			return nil, services.Wrap(services.ErrUnsupported, "script", "source", "unknown index format", nil)
		}
	case source.Generic, source.Tracks:
		switch {
		case vfr:
			expr = fmt.Sprintf("FFVideoSource(%s, timecodes=%s)", src, a.path(seg.Timecodes))
		case downsample:
			expr = fmt.Sprintf(`LWLibavVideoSource(%s, format="YUV420P8")`, src)
		default:
			expr = fmt.Sprintf("FFVideoSource(%s)", src)
		}
	default:
		return nil, services.Wrap(services.ErrUnsupported, "script", "source", "no source filter for "+string(seg.Classification.Kind), nil)
	}
	return []string{a.assign(clip, expr)}, nil
}

func (a aviSynth) toEightBit(clip string) string {
	return a.assign(clip, fmt.Sprintf("ConvertBits(%s, 8)", clip))
}

func (a aviSynth) filter(clip string, step Step, timecodes pathres.Reference) string {
	var expr string
	switch step.Kind {
	case StepRemoveGrain:
		expr = fmt.Sprintf("RemoveGrain(%s, %d)", clip, step.Mode)
	case StepResize:
		expr = fmt.Sprintf("Spline64Resize(%s, %d, %d)", clip, step.Width, step.Height)
	case StepRateConvert:
		expr = fmt.Sprintf("vfrtocfr(%s, timecodes=%s, fpsnum=%d, fpsden=%d)", clip, a.path(timecodes), step.FPSNum, step.FPSDen)
	default:
		expr = applyClip(step.Expr, clip)
	}
	return a.assign(clip, expr)
}

func (a aviSynth) audio(clip string, ref pathres.Reference) string {
	return a.assign(clip, fmt.Sprintf("AudioDub(%s, FFAudioSource(%s))", clip, a.path(ref)))
}

func (a aviSynth) subtitle(clip string, ref pathres.Reference, fontVar string) (string, error) {
	var expr string
	switch strings.ToLower(filepath.Ext(ref.Path)) {
	case ".ass", ".ssa", ".srt":
		if fontVar != "" {
			expr = fmt.Sprintf("AssRender(%s, %s, fontdir=%s)", clip, a.path(ref), fontVar)
		} else {
			expr = fmt.Sprintf("TextSub(%s, %s)", clip, a.path(ref))
		}
	case ".sup":
		expr = fmt.Sprintf("SupTitle(%s, %s)", clip, a.path(ref))
	case ".sub", ".idx":
		// VobSub takes the shared base name of the .idx/.sub pair.
		base := strings.TrimSuffix(ref.Path, filepath.Ext(ref.Path))
		expr = fmt.Sprintf("VobSub(%s, %s)", clip, avsString(base))
	default:
		return "", services.Wrap(services.ErrUnsupported, "script", "subtitle", "cannot import "+filepath.Base(ref.Path), nil)
	}
	return a.assign(clip, expr), nil
}

// length= keeps single-frame parts unambiguous; Trim(c, 0, 0) means the
// whole clip. The audio of an AudioDub'd clip is cut with the video.
func (a aviSynth) trim(name, src string, first, last int, audio bool) []string {
	return []string{a.assign(name, fmt.Sprintf("Trim(%s, %d, length=%d)", src, first, last-first+1))}
}

func (a aviSynth) splice(clip string, parts []string, audio bool) []string {
	return []string{a.assign(clip, strings.Join(parts, " + "))}
}

func (a aviSynth) continuation(clip string, next pathres.Reference, audio bool) []string {
	return []string{a.assign(clip, fmt.Sprintf("%s + Import(%s)", clip, a.path(next)))}
}

func (aviSynth) output(clip string, audio bool) []string {
	return []string{clip}
}
