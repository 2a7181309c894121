package container

import (
	"fmt"

	"avsser/internal/language"
	"avsser/internal/services"
)

// AutoTrack requests automatic subtitle selection.
const AutoTrack = -1

// SubtitleChoice describes how the subtitle track is picked.
type SubtitleChoice struct {
	// TrackID selects a track explicitly; AutoTrack enables the fallbacks.
	TrackID int
	// Language is an optional preference (BCP 47 or ISO 639).
	Language string
}

// SelectSubtitle picks at most one subtitle track. An explicit id wins and
// must name a subtitle track. Otherwise the lowest id matching the language
// preference is used, then the lowest id flagged default, then the lowest id.
// ok is false when the container has no subtitle tracks.
func SelectSubtitle(meta *Metadata, choice SubtitleChoice) (track TrackInfo, ok bool, err error) {
	subs := meta.Subtitles()
	if choice.TrackID != AutoTrack {
		candidate, found := meta.Track(choice.TrackID)
		switch {
		case !found:
			return TrackInfo{}, false, services.Wrap(
				services.ErrUnsupported, "probe", "select subtitle",
				fmt.Sprintf("%s has no track %d", meta.Path, choice.TrackID), nil,
			)
		case candidate.Kind != TrackSubtitle:
			return TrackInfo{}, false, services.Wrap(
				services.ErrUnsupported, "probe", "select subtitle",
				fmt.Sprintf("track %d of %s is %s, not a subtitle track", choice.TrackID, meta.Path, candidate.Kind), nil,
			)
		}
		return candidate, true, nil
	}
	if len(subs) == 0 {
		return TrackInfo{}, false, nil
	}
	if choice.Language != "" {
		for _, candidate := range subs {
			if language.Matches(candidate.Language, choice.Language) {
				return candidate, true, nil
			}
		}
	}
	for _, candidate := range subs {
		if candidate.Default {
			return candidate, true, nil
		}
	}
	return subs[0], true, nil
}
