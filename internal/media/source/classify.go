package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the decoding strategy for an input.
type Kind string

const (
	// Indexed inputs are index files produced by DGIndex-family tools.
	Indexed Kind = "indexed-video"
	// Generic inputs are opened with a frame-accurate general source filter.
	Generic Kind = "generic-video"
	// Tracks inputs are Matroska containers probed for tracks and linkage.
	Tracks Kind = "container-with-tracks"
	// Unknown inputs are skipped with a warning.
	Unknown Kind = "unknown"
)

// Index identifies which index format an Indexed input uses.
type Index string

const (
	IndexNone Index = ""
	IndexD2V  Index = "d2v"
	IndexDGA  Index = "dga"
	IndexDGI  Index = "dgi"
)

// Classification is the result for one file.
type Classification struct {
	Kind  Kind
	Index Index
	// Sniffed is set when the kind came from content rather than extension.
	Sniffed bool
}

var byExtension = map[string]Classification{
	".mkv":  {Kind: Tracks},
	".mka":  {Kind: Tracks},
	".mk3d": {Kind: Tracks},
	".d2v":  {Kind: Indexed, Index: IndexD2V},
	".dga":  {Kind: Indexed, Index: IndexDGA},
	".dgi":  {Kind: Indexed, Index: IndexDGI},
	".mp4":  {Kind: Generic},
	".m4v":  {Kind: Generic},
	".avi":  {Kind: Generic},
	".mpeg": {Kind: Generic},
	".mpg":  {Kind: Generic},
	".wmv":  {Kind: Generic},
	".mov":  {Kind: Generic},
	".flv":  {Kind: Generic},
	".ivf":  {Kind: Generic},
	".m2ts": {Kind: Generic},
	".ts":   {Kind: Generic},
	".vob":  {Kind: Generic},
}

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// ClassifyExtension maps a file name to a Classification using only its
// extension, case-insensitively.
func ClassifyExtension(name string) Classification {
	if c, ok := byExtension[strings.ToLower(filepath.Ext(name))]; ok {
		return c
	}
	return Classification{Kind: Unknown}
}

// Classify maps path to a Classification. Recognized extensions are
// trusted; anything else is sniffed for an EBML header, which also covers
// WebM. Read failures are returned so a missing file is not mistaken for an
// unknown one.
func Classify(path string) (Classification, error) {
	if c := ClassifyExtension(path); c.Kind != Unknown {
		return c, nil
	}
	matroska, err := sniffMatroska(path)
	if err != nil {
		return Classification{Kind: Unknown}, err
	}
	if matroska {
		return Classification{Kind: Tracks, Sniffed: true}, nil
	}
	return Classification{Kind: Unknown}, nil
}

func sniffMatroska(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open for sniffing: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(ebmlMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, fmt.Errorf("read header: %w", err)
	}
	return bytes.Equal(header, ebmlMagic), nil
}
