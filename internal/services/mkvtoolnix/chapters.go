package mkvtoolnix

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"avsser/internal/services"
)

// Chapters mirrors the Matroska chapter XML mkvextract writes.
type Chapters struct {
	Editions []Edition `xml:"EditionEntry"`
}

// Edition is one EditionEntry. Only top-level atoms are kept.
type Edition struct {
	UID     string        `xml:"EditionUID"`
	Ordered int           `xml:"EditionFlagOrdered"`
	Default int           `xml:"EditionFlagDefault"`
	Atoms   []ChapterAtom `xml:"ChapterAtom"`
}

// ChapterAtom is one chapter. Times are HH:MM:SS.nnnnnnnnn.
type ChapterAtom struct {
	Start      string     `xml:"ChapterTimeStart"`
	End        string     `xml:"ChapterTimeEnd"`
	SegmentUID *BinaryUID `xml:"ChapterSegmentUID"`
	Enabled    *int       `xml:"ChapterFlagEnabled"`
	Display    []Display  `xml:"ChapterDisplay"`
}

// Display is a chapter title in one language.
type Display struct {
	String   string `xml:"ChapterString"`
	Language string `xml:"ChapterLanguage"`
}

// BinaryUID is a binary element with an optional format attribute.
type BinaryUID struct {
	Format string `xml:"format,attr"`
	Value  string `xml:",chardata"`
}

// Bytes decodes the element. mkvextract writes hex; base64 is accepted
// because hand-edited chapter files use it too.
func (b BinaryUID) Bytes() ([]byte, error) {
	value := strings.TrimSpace(b.Value)
	switch strings.ToLower(strings.TrimSpace(b.Format)) {
	case "base64":
		return base64.StdEncoding.DecodeString(strings.Join(strings.Fields(value), ""))
	case "", "hex":
		var digits strings.Builder
		for _, field := range strings.Fields(value) {
			field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
			digits.WriteString(field)
		}
		return hex.DecodeString(digits.String())
	default:
		return nil, fmt.Errorf("unsupported binary format %q", b.Format)
	}
}

// Active reports whether the chapter plays.
func (a ChapterAtom) Active() bool {
	return a.Enabled == nil || *a.Enabled != 0
}

// Title returns the first display string.
func (a ChapterAtom) Title() string {
	for _, display := range a.Display {
		if s := strings.TrimSpace(display.String); s != "" {
			return s
		}
	}
	return ""
}

// Playback returns the edition a player starts with: the first one flagged
// default, else the first one.
func (c *Chapters) Playback() (Edition, bool) {
	if c == nil || len(c.Editions) == 0 {
		return Edition{}, false
	}
	for _, edition := range c.Editions {
		if edition.Default != 0 {
			return edition, true
		}
	}
	return c.Editions[0], true
}

// ParseChapters decodes chapter XML. Empty input means the file has no
// chapters and yields an empty result.
func ParseChapters(data []byte) (*Chapters, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &Chapters{}, nil
	}
	var chapters Chapters
	if err := xml.Unmarshal(data, &chapters); err != nil {
		return nil, fmt.Errorf("parse chapter xml: %w", err)
	}
	return &chapters, nil
}

// ParseTimestamp converts HH:MM:SS.nnnnnnnnn to nanoseconds. The fraction
// may have fewer than nine digits.
func ParseTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timestamp %q: want HH:MM:SS.fraction", value)
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("timestamp %q: bad hours", value)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("timestamp %q: bad minutes", value)
	}
	secText, fraction, _ := strings.Cut(parts[2], ".")
	seconds, err := strconv.ParseInt(secText, 10, 64)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("timestamp %q: bad seconds", value)
	}
	var nanos int64
	if fraction != "" {
		if len(fraction) > 9 {
			fraction = fraction[:9]
		}
		fraction += strings.Repeat("0", 9-len(fraction))
		if nanos, err = strconv.ParseInt(fraction, 10, 64); err != nil || nanos < 0 {
			return 0, fmt.Errorf("timestamp %q: bad fraction", value)
		}
	}
	return ((hours*60+minutes)*60+seconds)*1_000_000_000 + nanos, nil
}

// ExtractChapters runs `mkvextract <input> chapters` into a temporary file
// and parses it.
func (c *Client) ExtractChapters(ctx context.Context, input string) (*Chapters, error) {
	tmp, err := os.CreateTemp("", "avsser-chapters-*.xml")
	if err != nil {
		return nil, services.Wrap(services.ErrToolInvocation, component, "extract chapters", "create temporary file", err)
	}
	name := tmp.Name()
	defer func() { _ = os.Remove(name) }()
	if err := tmp.Close(); err != nil {
		return nil, services.Wrap(services.ErrToolInvocation, component, "extract chapters", "close temporary file", err)
	}

	args := []string{input, "chapters", name}
	if _, err := c.exec.Run(ctx, c.mkvextract, args); err != nil {
		return nil, invocationError("extract chapters", c.mkvextract, err)
	}
	data, err := os.ReadFile(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrToolInvocation, component, "extract chapters", "read "+name, err)
	}
	chapters, err := ParseChapters(data)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, component, "extract chapters", "decode chapters of "+input, err)
	}
	return chapters, nil
}
