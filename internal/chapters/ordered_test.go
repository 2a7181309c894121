package chapters

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	"avsser/internal/media/container"
)

const second = int64(1_000_000_000)

func TestRateFrame(t *testing.T) {
	tests := []struct {
		name string
		rate Rate
		ns   int64
		want int
	}{
		{name: "ntsc film from frame duration", rate: RateFromFrameDuration(41708333), ns: 90 * second, want: 2157},
		{name: "conversion target", rate: Rate{Num: 120000, Den: 1001}, ns: 90 * second, want: 10789},
		{name: "ten hours does not overflow", rate: Rate{Num: 120000, Den: 1001}, ns: 36000 * second, want: 4315684},
		{name: "negative clamps", rate: Rate{Num: 24, Den: 1}, ns: -5, want: 0},
		{name: "invalid rate", rate: Rate{}, ns: second, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rate.Frame(tt.ns); got != tt.want {
				t.Fatalf("Frame(%d) = %d, want %d", tt.ns, got, tt.want)
			}
		})
	}
}

func TestBreakpoints(t *testing.T) {
	op, ed := uid(50), uid(51)
	rate := Rate{Num: 24, Den: 1}
	spans := []container.ChapterSpan{
		{Start: 0, End: 10 * second},
		{Start: 10 * second, End: 20 * second},
		{Start: 0, End: 5 * second, Segment: op},
		{Start: 20 * second, End: 30 * second},
		// Skips 30-40s, so it does not merge.
		{Start: 40 * second, End: 50 * second},
		{Start: 50 * second, End: 50 * second},
		{Start: 0, End: 5 * second, Segment: ed},
		{Start: 0, End: 5 * second, Segment: ed},
	}
	got := Breakpoints(spans, rate)
	want := []Breakpoint{
		{First: 0, Last: 479},
		{First: 0, Last: 119, Segment: op},
		{First: 480, Last: 719},
		{First: 960, Last: 1199},
		{First: 0, Last: 119, Segment: ed},
		{First: 0, Last: 119, Segment: ed},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Breakpoints = %+v\nwant %+v", got, want)
	}
	if got[0].Frames() != 480 {
		t.Fatalf("unexpected frame count %d", got[0].Frames())
	}
}

func TestIndex(t *testing.T) {
	shared := uid(7)
	a := &container.Metadata{Path: "/m/b.mkv", Linkage: container.Linkage{SegmentUID: shared}}
	b := &container.Metadata{Path: "/m/a.mkv", Linkage: container.Linkage{SegmentUID: shared}}
	plain := &container.Metadata{Path: "/m/c.mkv"}
	idx := NewIndex(a, nil, b, plain)

	meta, ok := idx.Lookup(shared)
	if !ok || meta.Path != "/m/a.mkv" {
		t.Fatalf("expected the smaller path to win, got %+v", meta)
	}
	if idx.Add(plain) {
		t.Fatal("files without a segment UID cannot be indexed")
	}

	missing := idx.Missing([]container.ChapterSpan{
		{Segment: uuid.Nil},
		{Segment: shared},
		{Segment: uid(8)},
		{Segment: uid(8)},
		{Segment: uid(9)},
	})
	if !reflect.DeepEqual(missing, []uuid.UUID{uid(8), uid(9)}) {
		t.Fatalf("unexpected missing list %v", missing)
	}
	if !idx.Add(&container.Metadata{Path: "/x/op.mkv", Linkage: container.Linkage{SegmentUID: uid(8)}}) {
		t.Fatal("expected new UID to be added")
	}
	if _, ok := idx.Lookup(uid(8)); !ok {
		t.Fatal("added file not found")
	}
}
