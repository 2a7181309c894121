package chapters

import (
	"math/bits"
	"sort"

	"github.com/google/uuid"

	"avsser/internal/media/container"
)

// Rate is a frame rate as the fraction Num/Den frames per second.
type Rate struct {
	Num int64
	Den int64
}

// RateFromFrameDuration converts nanoseconds per frame to a Rate.
func RateFromFrameDuration(ns int64) Rate {
	return Rate{Num: 1_000_000_000, Den: ns}
}

// Valid reports whether both terms are positive.
func (r Rate) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Frame returns the index of the frame showing at ns, rounding down.
func (r Rate) Frame(ns int64) int {
	if ns <= 0 || !r.Valid() {
		return 0
	}
	hi, lo := bits.Mul64(uint64(ns), uint64(r.Num))
	divisor := uint64(r.Den) * 1_000_000_000
	if hi >= divisor {
		return int(^uint(0) >> 1)
	}
	q, _ := bits.Div64(hi, lo, divisor)
	return int(q)
}

// Breakpoint is an inclusive frame range played from one file. Segment is
// uuid.Nil for the file that declares the edition.
type Breakpoint struct {
	First   int
	Last    int
	Segment uuid.UUID
}

// Frames returns the number of frames in the range.
func (b Breakpoint) Frames() int {
	return b.Last - b.First + 1
}

// Breakpoints converts ordered chapters to frame ranges. A chapter covers
// [Frame(start), Frame(end)-1]. Runs of adjacent local chapters merge into
// one range; foreign chapters always stand alone. Empty ranges are dropped.
func Breakpoints(spans []container.ChapterSpan, rate Rate) []Breakpoint {
	var out []Breakpoint
	for _, span := range spans {
		bp := Breakpoint{
			First:   rate.Frame(span.Start),
			Last:    rate.Frame(span.End) - 1,
			Segment: span.Segment,
		}
		if bp.Last < bp.First {
			continue
		}
		if n := len(out); n > 0 && !span.Foreign() && out[n-1].Segment == uuid.Nil && out[n-1].Last+1 >= bp.First {
			if bp.Last > out[n-1].Last {
				out[n-1].Last = bp.Last
			}
			continue
		}
		out = append(out, bp)
	}
	return out
}

// Index finds probed files by segment UID. When two files share a UID the
// one with the smaller path wins.
type Index struct {
	files map[uuid.UUID]*container.Metadata
}

// NewIndex indexes metas, ignoring nil entries and files without a UID.
func NewIndex(metas ...*container.Metadata) *Index {
	idx := &Index{files: make(map[uuid.UUID]*container.Metadata)}
	sorted := make([]*container.Metadata, 0, len(metas))
	for _, meta := range metas {
		if meta != nil {
			sorted = append(sorted, meta)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	for _, meta := range sorted {
		idx.Add(meta)
	}
	return idx
}

// Add indexes meta unless its UID is already taken. It reports whether meta
// was added.
func (x *Index) Add(meta *container.Metadata) bool {
	if meta == nil || !meta.Linkage.HasSegment() {
		return false
	}
	if _, taken := x.files[meta.Linkage.SegmentUID]; taken {
		return false
	}
	x.files[meta.Linkage.SegmentUID] = meta
	return true
}

// Lookup returns the file carrying uid.
func (x *Index) Lookup(uid uuid.UUID) (*container.Metadata, bool) {
	meta, ok := x.files[uid]
	return meta, ok
}

// Missing returns the foreign segments of spans that are not indexed, in
// order of first use.
func (x *Index) Missing(spans []container.ChapterSpan) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, span := range spans {
		if !span.Foreign() {
			continue
		}
		if _, ok := x.files[span.Segment]; ok {
			continue
		}
		if _, dup := seen[span.Segment]; dup {
			continue
		}
		seen[span.Segment] = struct{}{}
		out = append(out, span.Segment)
	}
	return out
}
