package mkvtoolnix

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Identification mirrors the subset of the mkvmerge JSON identification
// schema this tool consumes.
type Identification struct {
	FileName    string       `json:"file_name"`
	Container   Container    `json:"container"`
	Tracks      []Track      `json:"tracks"`
	Attachments []Attachment `json:"attachments"`
	Chapters    []struct {
		NumEntries int `json:"num_entries"`
	} `json:"chapters"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Container describes the file as a whole.
type Container struct {
	Recognized bool                `json:"recognized"`
	Supported  bool                `json:"supported"`
	Type       string              `json:"type"`
	Properties ContainerProperties `json:"properties"`
}

// ContainerProperties carries segment linkage. UIDs are 32 hex digits.
type ContainerProperties struct {
	Title              string `json:"title"`
	Duration           int64  `json:"duration"`
	SegmentUID         string `json:"segment_uid"`
	PreviousSegmentUID string `json:"previous_segment_uid"`
	NextSegmentUID     string `json:"next_segment_uid"`
}

// Track is one elementary stream.
type Track struct {
	ID         int             `json:"id"`
	Type       string          `json:"type"`
	Codec      string          `json:"codec"`
	Properties TrackProperties `json:"properties"`
}

// TrackProperties holds per-track flags and tags.
type TrackProperties struct {
	CodecID         string `json:"codec_id"`
	Language        string `json:"language"`
	LanguageIETF    string `json:"language_ietf"`
	TrackName       string `json:"track_name"`
	DefaultTrack    bool   `json:"default_track"`
	ForcedTrack     bool   `json:"forced_track"`
	DefaultDuration int64  `json:"default_duration"`
	PixelDimensions string `json:"pixel_dimensions"`
}

// Attachment is a file embedded in the container, usually a font.
type Attachment struct {
	ID          int    `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Description string `json:"description"`
	Size        int64  `json:"size"`
}

// ParseIdentification decodes mkvmerge -J output and checks the parts of the
// schema later stages rely on.
func ParseIdentification(data []byte) (*Identification, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty identification output")
	}
	var ident Identification
	if err := json.Unmarshal(data, &ident); err != nil {
		return nil, fmt.Errorf("parse identification json: %w", err)
	}
	if len(ident.Errors) > 0 {
		return nil, fmt.Errorf("mkvmerge reported: %s", strings.Join(ident.Errors, "; "))
	}
	if !ident.Container.Recognized {
		return nil, errors.New("container not recognized")
	}

	seen := make(map[int]struct{}, len(ident.Tracks))
	for i, track := range ident.Tracks {
		if track.ID < 0 {
			return nil, fmt.Errorf("track %d: negative id %d", i, track.ID)
		}
		if strings.TrimSpace(track.Type) == "" {
			return nil, fmt.Errorf("track %d: missing type", track.ID)
		}
		if _, dup := seen[track.ID]; dup {
			return nil, fmt.Errorf("duplicate track id %d", track.ID)
		}
		seen[track.ID] = struct{}{}
	}
	for i, att := range ident.Attachments {
		if att.ID < 0 {
			return nil, fmt.Errorf("attachment %d: negative id %d", i, att.ID)
		}
	}
	return &ident, nil
}
