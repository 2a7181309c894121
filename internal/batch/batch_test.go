package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"avsser/internal/config"
	"avsser/internal/extract"
	"avsser/internal/media/container"
	"avsser/internal/preflight"
	"avsser/internal/services"
	"avsser/internal/testsupport"
)

type fakeProber struct {
	mu      sync.Mutex
	results map[string]*container.Metadata
	errs    map[string]error
	calls   []string
}

func newFakeProber() *fakeProber {
	return &fakeProber{results: map[string]*container.Metadata{}, errs: map[string]error{}}
}

func (f *fakeProber) Probe(_ context.Context, path string) (*container.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	if meta, ok := f.results[path]; ok {
		copied := *meta
		copied.Path = path
		return &copied, nil
	}
	return &container.Metadata{Path: path, Tracks: []container.TrackInfo{{ID: 0, Kind: container.TrackVideo}}}, nil
}

type fakeTool struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTool) write(output string) error {
	f.mu.Lock()
	f.calls = append(f.calls, output)
	f.mu.Unlock()
	return os.WriteFile(output, []byte("extracted"), 0o644)
}

func (f *fakeTool) ExtractTrack(_ context.Context, _ string, _ int, output string) error {
	return f.write(output)
}

func (f *fakeTool) ExtractAttachment(_ context.Context, _ string, _ int, output string) error {
	return f.write(output)
}

type countingPrompter struct {
	mu     sync.Mutex
	calls  int
	answer bool
}

func (p *countingPrompter) Confirm(context.Context, string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.answer, nil
}

func newRunner(t *testing.T, cfg *config.Config, prober container.Prober, extractor *extract.Extractor, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{WithToolCheck(func() []preflight.Result { return nil })}, opts...)
	runner, err := New(cfg, prober, extractor, nil, opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return runner
}

func mediaDir(t *testing.T, cfg *config.Config) string {
	t.Helper()
	dir := filepath.Join(testsupport.BaseDir(cfg), "media")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}
	return dir
}

func touch(t *testing.T, paths ...string) {
	t.Helper()
	for _, path := range paths {
		testsupport.WriteFile(t, path, 16)
	}
}

func readScript(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read script %s: %v", path, err)
	}
	return string(data)
}

func resultFor(t *testing.T, summary *Summary, input string) FileResult {
	t.Helper()
	for _, file := range summary.Files {
		if file.Input == input {
			return file
		}
	}
	t.Fatalf("no result for %s", input)
	return FileResult{}
}

func TestProbeFailureDoesNotStopSiblings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	a, b, c := filepath.Join(dir, "a.mkv"), filepath.Join(dir, "b.mkv"), filepath.Join(dir, "c.mp4")
	touch(t, a, b, c)

	prober := newFakeProber()
	prober.errs[b] = services.Wrap(services.ErrToolInvocation, "mkvtoolnix", "identify", "exit status 2", nil)

	summary, err := newRunner(t, cfg, prober, nil).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := resultFor(t, summary, a); got.Status != StatusWritten {
		t.Fatalf("a: expected written, got %+v", got)
	}
	if got := resultFor(t, summary, c); got.Status != StatusWritten {
		t.Fatalf("c: expected written, got %+v", got)
	}
	failed := resultFor(t, summary, b)
	if failed.Status != StatusFailed || failed.Class != services.ClassToolInvocation {
		t.Fatalf("b: expected tool invocation failure, got %+v", failed)
	}
	if !errors.Is(failed.Err, services.ErrToolInvocation) {
		t.Fatalf("b: marker lost: %v", failed.Err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.avs")); !os.IsNotExist(err) {
		t.Fatalf("no script should exist for the failed file, stat err=%v", err)
	}
	if summary.Err() == nil {
		t.Fatal("summary should report the failure")
	}
	for _, call := range prober.calls {
		if call == c {
			t.Fatal("generic inputs must not be probed")
		}
	}
}

func TestEmptyContainerHasNoSubtitleStatements(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSubtitles(true))
	dir := t.TempDir()
	input := filepath.Join(dir, "plain.mkv")
	touch(t, input)

	tool := &fakeTool{}
	extractor := extract.New(tool, extract.NewOverwriteGate(cfg.Batch.Overwrite, nil, nil), nil)
	summary, err := newRunner(t, cfg, newFakeProber(), extractor).Run(context.Background(), []string{input})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Err() != nil {
		t.Fatalf("unexpected failure: %+v", summary.Files)
	}
	text := readScript(t, filepath.Join(dir, "plain.avs"))
	for _, needle := range []string{"TextSub", "AssRender", "fontdir", "SupTitle", "VobSub"} {
		if strings.Contains(text, needle) {
			t.Fatalf("unexpected %q in:\n%s", needle, text)
		}
	}
	if len(tool.calls) != 0 {
		t.Fatalf("nothing should be extracted, got %v", tool.calls)
	}
}

func TestChapterGroupPromptsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSubtitles(true))
	cfg.Batch.Overwrite = config.OverwriteAsk
	dir := t.TempDir()
	part1, part2 := filepath.Join(dir, "part1.mkv"), filepath.Join(dir, "part2.mkv")
	touch(t, part1, part2,
		filepath.Join(dir, "part1.ass"),
		filepath.Join(dir, "part2.ass"),
		filepath.Join(dir, "fonts", "Sans.ttf"),
	)

	uid1, uid2 := uuid.New(), uuid.New()
	tracks := []container.TrackInfo{
		{ID: 0, Kind: container.TrackVideo},
		{ID: 2, Kind: container.TrackSubtitle, CodecID: "S_TEXT/ASS", Language: "eng"},
	}
	fonts := []container.FontAsset{{AttachmentID: 1, FileName: "Sans.ttf", MIMEType: "font/ttf"}}
	prober := newFakeProber()
	prober.results[part1] = &container.Metadata{Tracks: tracks, Fonts: fonts, Linkage: container.Linkage{SegmentUID: uid1, NextUID: uid2}}
	prober.results[part2] = &container.Metadata{Tracks: tracks, Fonts: fonts, Linkage: container.Linkage{SegmentUID: uid2, PrevUID: uid1}}

	prompter := &countingPrompter{answer: true}
	tool := &fakeTool{}
	extractor := extract.New(tool, extract.NewOverwriteGate(cfg.Batch.Overwrite, prompter, nil), nil)

	summary, err := newRunner(t, cfg, prober, extractor).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Err() != nil {
		t.Fatalf("unexpected failure: %+v", summary.Files)
	}
	if prompter.calls != 1 {
		t.Fatalf("expected one overwrite prompt for the group, got %d", prompter.calls)
	}
	if summary.Groups != 1 {
		t.Fatalf("expected one group, got %d", summary.Groups)
	}
	second := resultFor(t, summary, part2)
	if second.Group != part1 || second.Ordinal != 2 || second.GroupSize != 2 {
		t.Fatalf("unexpected group placement %+v", second)
	}

	first := readScript(t, filepath.Join(dir, "part1.avs"))
	for _, want := range []string{
		`seg1 = FFVideoSource("part1.mkv")`,
		`seg1_fontdir = "fonts"`,
		`seg1 = AssRender(seg1, "part1.ass", fontdir=seg1_fontdir)`,
		`seg1 = seg1 + Import("part2.avs")`,
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("missing %q in:\n%s", want, first)
		}
	}
	if strings.Contains(first, "part2.mkv") {
		t.Fatalf("first script must not inline the second segment:\n%s", first)
	}
	tail := readScript(t, filepath.Join(dir, "part2.avs"))
	if !strings.Contains(tail, `seg2 = AssRender(seg2, "part2.ass", fontdir=seg2_fontdir)`) || strings.Contains(tail, "Import(") {
		t.Fatalf("unexpected second script:\n%s", tail)
	}
	// part1.ass, part2.ass and the shared font once.
	if len(tool.calls) != 3 {
		t.Fatalf("expected 3 extractions, got %v", tool.calls)
	}
}

func TestCycleFailsEveryMember(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.mkv"), filepath.Join(dir, "b.mkv")
	touch(t, a, b)

	uidA, uidB := uuid.New(), uuid.New()
	prober := newFakeProber()
	prober.results[a] = &container.Metadata{Linkage: container.Linkage{SegmentUID: uidA, NextUID: uidB, PrevUID: uidB}}
	prober.results[b] = &container.Metadata{Linkage: container.Linkage{SegmentUID: uidB, NextUID: uidA, PrevUID: uidA}}

	summary, err := newRunner(t, cfg, prober, nil).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, input := range []string{a, b} {
		got := resultFor(t, summary, input)
		if got.Status != StatusFailed || got.Class != services.ClassStructural {
			t.Fatalf("%s: expected structural failure, got %+v", input, got)
		}
		if !strings.Contains(got.Err.Error(), "a.mkv -> b.mkv -> a.mkv") {
			t.Fatalf("cycle should be named, got %v", got.Err)
		}
	}
	if summary.Count(StatusWritten) != 0 {
		t.Fatal("no script may be written for a cycle")
	}
}

func TestDanglingLinkWritesTruncatedGroup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "ep.mkv")
	touch(t, input)

	prober := newFakeProber()
	prober.results[input] = &container.Metadata{Linkage: container.Linkage{SegmentUID: uuid.New(), NextUID: uuid.New()}}

	summary, err := newRunner(t, cfg, prober, nil).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got := resultFor(t, summary, input)
	if got.Status != StatusWritten || got.GroupSize != 1 {
		t.Fatalf("expected singleton group to be written, got %+v", got)
	}
	if strings.Contains(readScript(t, filepath.Join(dir, "ep.avs")), "Import(") {
		t.Fatal("a dangling link must not produce a continuation")
	}
}

func TestUnknownInputsAndScriptCollisions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.bin")
	mkv, mp4 := filepath.Join(dir, "ep.mkv"), filepath.Join(dir, "ep.mp4")
	touch(t, notes, mkv, mp4)

	summary, err := newRunner(t, cfg, newFakeProber(), nil).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := resultFor(t, summary, notes); got.Status != StatusSkipped {
		t.Fatalf("unknown input should be skipped, got %+v", got)
	}
	if got := resultFor(t, summary, mkv); got.Status != StatusWritten {
		t.Fatalf("first claimant should be written, got %+v", got)
	}
	got := resultFor(t, summary, mp4)
	if got.Status != StatusFailed || got.Class != services.ClassUnsupported {
		t.Fatalf("second claimant should fail, got %+v", got)
	}
	if !strings.Contains(got.Err.Error(), "already claimed") {
		t.Fatalf("unexpected error %v", got.Err)
	}
}

func TestSniffedMatroskaIsProbed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.webm")
	testsupport.WriteMatroska(t, input)

	prober := newFakeProber()
	summary, err := newRunner(t, cfg, prober, nil).Run(context.Background(), []string{input})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := resultFor(t, summary, input); got.Status != StatusWritten {
		t.Fatalf("expected written, got %+v", got)
	}
	if len(prober.calls) != 1 {
		t.Fatalf("expected sniffed container to be probed once, got %v", prober.calls)
	}
}

func TestOutputDirReferencesAndTimecodes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOutputDir("scripts"))
	cfg.Script.VFRToCFR = true
	media := mediaDir(t, cfg)
	input := filepath.Join(media, "ep.mkv")
	touch(t, input)

	summary, err := newRunner(t, cfg, newFakeProber(), nil).Run(context.Background(), []string{input})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got := resultFor(t, summary, input)
	want := filepath.Join(cfg.Paths.OutputDir, "ep.avs")
	if got.Status != StatusWritten || got.Script != want {
		t.Fatalf("unexpected result %+v", got)
	}
	text := readScript(t, want)
	if !strings.Contains(text, `seg1 = FFVideoSource("../media/ep.mkv", timecodes="ep.timecodes.txt")`) {
		t.Fatalf("unexpected script:\n%s", text)
	}
	if !strings.Contains(text, `vfrtocfr(seg1, timecodes="ep.timecodes.txt", fpsnum=120000, fpsden=1001)`) {
		t.Fatalf("rate conversion should read the captured timecodes:\n%s", text)
	}
}

func TestExistingSidecarIsImportedWithoutExtraction(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSubtitles(false))
	dir := t.TempDir()
	input := filepath.Join(dir, "ep.mp4")
	touch(t, input, filepath.Join(dir, "ep.srt"))

	summary, err := newRunner(t, cfg, newFakeProber(), nil).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Err() != nil {
		t.Fatalf("unexpected failure: %+v", summary.Files)
	}
	text := readScript(t, filepath.Join(dir, "ep.avs"))
	if !strings.Contains(text, `seg1 = TextSub(seg1, "ep.srt")`) {
		t.Fatalf("expected sidecar import:\n%s", text)
	}
}

func TestIndexedAudioWithoutSidecarFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Script.Audio = true
	dir := t.TempDir()
	input := filepath.Join(dir, "film.d2v")
	touch(t, input)

	summary, err := newRunner(t, cfg, newFakeProber(), nil).Run(context.Background(), []string{input})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got := resultFor(t, summary, input)
	if got.Status != StatusFailed || got.Class != services.ClassUnsupported {
		t.Fatalf("expected unsupported failure, got %+v", got)
	}

	touch(t, filepath.Join(dir, "film.flac"))
	cfg.Script.AudioExtension = "flac"
	summary, err = newRunner(t, cfg, newFakeProber(), nil).Run(context.Background(), []string{input})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := resultFor(t, summary, input); got.Status != StatusWritten {
		t.Fatalf("expected written with audio sidecar, got %+v", got)
	}
	if !strings.Contains(readScript(t, filepath.Join(dir, "film.avs")), `AudioDub(seg1, FFAudioSource("film.flac"))`) {
		t.Fatal("expected audio sidecar reference")
	}
}

func TestToolCheckOnlyForContainers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "ep.mp4")
	touch(t, input)

	checks := 0
	check := WithToolCheck(func() []preflight.Result {
		checks++
		return []preflight.Result{{Name: "mkvmerge", Detail: "missing"}}
	})
	if _, err := newRunner(t, cfg, newFakeProber(), nil, check).Run(context.Background(), []string{input}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if checks != 0 {
		t.Fatalf("tools checked without containers")
	}

	touch(t, filepath.Join(dir, "ep2.mkv"))
	if _, err := newRunner(t, cfg, newFakeProber(), nil, check).Run(context.Background(), []string{dir}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if checks != 1 {
		t.Fatalf("expected one tool check, got %d", checks)
	}
}

func TestLockedDestinationIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "ep.mp4"))

	held := flock.New(filepath.Join(dir, LockFileName))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("take lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	_, err := newRunner(t, cfg, newFakeProber(), nil).Run(context.Background(), []string{dir})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCanceledRunSkipsEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mkv"), filepath.Join(dir, "b.mp4"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prober := newFakeProber()
	summary, err := newRunner(t, cfg, prober, nil).Run(ctx, []string{dir})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Count(StatusSkipped) != 2 {
		t.Fatalf("expected both files skipped, got %+v", summary.Files)
	}
	if len(prober.calls) != 0 {
		t.Fatalf("no probe should start after cancellation, got %v", prober.calls)
	}
}

func TestNewRejectsExtractionWithoutExtractor(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSubtitles(true))
	if _, err := New(cfg, newFakeProber(), nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestGroupWithPartialAudioDropsAudioEverywhere(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFormat(config.FormatVapourSynth))
	cfg.Script.Audio = true
	dir := t.TempDir()
	part1, part2 := filepath.Join(dir, "part1.mkv"), filepath.Join(dir, "part2.mkv")
	touch(t, part1, part2)

	uid1, uid2 := uuid.New(), uuid.New()
	prober := newFakeProber()
	prober.results[part1] = &container.Metadata{
		Tracks:  []container.TrackInfo{{ID: 0, Kind: container.TrackVideo}, {ID: 1, Kind: container.TrackAudio, CodecID: "A_FLAC"}},
		Linkage: container.Linkage{SegmentUID: uid1, NextUID: uid2},
	}
	prober.results[part2] = &container.Metadata{
		Tracks:  []container.TrackInfo{{ID: 0, Kind: container.TrackVideo}},
		Linkage: container.Linkage{SegmentUID: uid2, PrevUID: uid1},
	}

	summary, err := newRunner(t, cfg, prober, nil).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Err() != nil {
		t.Fatalf("unexpected failure: %+v", summary.Files)
	}
	first := readScript(t, filepath.Join(dir, "part1.vpy"))
	second := readScript(t, filepath.Join(dir, "part2.vpy"))
	if !strings.Contains(first, "seg1 = seg1 + seg1_next['video']") {
		t.Fatalf("expected a video continuation:\n%s", first)
	}
	for name, text := range map[string]string{"part1.vpy": first, "part2.vpy": second} {
		if strings.Contains(text, "_audio") || strings.Contains(text, "['audio']") {
			t.Fatalf("%s must not reference audio when a group member has none:\n%s", name, text)
		}
	}
}

func TestWriteFailureLeavesNoDanglingContinuation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	part1, part2 := filepath.Join(dir, "part1.mkv"), filepath.Join(dir, "part2.mkv")
	touch(t, part1, part2, filepath.Join(dir, "part2.avs", "occupied"))

	uid1, uid2 := uuid.New(), uuid.New()
	prober := newFakeProber()
	prober.results[part1] = &container.Metadata{Linkage: container.Linkage{SegmentUID: uid1, NextUID: uid2}}
	prober.results[part2] = &container.Metadata{Linkage: container.Linkage{SegmentUID: uid2, PrevUID: uid1}}

	summary, err := newRunner(t, cfg, prober, nil).Run(context.Background(), []string{part1, part2})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := resultFor(t, summary, part2); got.Status != StatusFailed {
		t.Fatalf("part2: expected write failure, got %+v", got)
	}
	if got := resultFor(t, summary, part1); got.Status != StatusSkipped {
		t.Fatalf("part1: expected skipped, got %+v", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "part1.avs")); !os.IsNotExist(err) {
		t.Fatalf("part1.avs must not exist when the script it continues into was not written, stat err=%v", err)
	}
}

const frameDuration = 41708333 // 24000/1001 fps

func orderedEpisode(opUID uuid.UUID) *container.Metadata {
	return &container.Metadata{
		Tracks: []container.TrackInfo{
			{ID: 0, Kind: container.TrackVideo, DefaultDuration: frameDuration},
			{ID: 1, Kind: container.TrackAudio, CodecID: "A_FLAC"},
		},
		Linkage: container.Linkage{SegmentUID: uuid.New()},
		OrderedChapters: []container.ChapterSpan{
			{Title: "Prologue", Start: 0, End: 90_000_000_000},
			{Title: "Opening", Start: 0, End: 90_000_000_000, Segment: opUID},
			{Title: "Part A", Start: 90_000_000_000, End: 700_000_000_000},
			{Title: "Part B", Start: 700_000_000_000, End: 1_440_000_000_000},
		},
	}
}

func TestOrderedChaptersSpliceBorrowedSegment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Script.Audio = true
	dir := t.TempDir()
	episode, opening := filepath.Join(dir, "ep01.mkv"), filepath.Join(dir, "op.mkv")
	touch(t, episode, opening)

	opUID := uuid.New()
	prober := newFakeProber()
	prober.results[episode] = orderedEpisode(opUID)
	prober.results[opening] = &container.Metadata{
		Tracks:  []container.TrackInfo{{ID: 0, Kind: container.TrackVideo}, {ID: 1, Kind: container.TrackAudio}},
		Linkage: container.Linkage{SegmentUID: opUID},
	}

	// Only the episode is requested; the opening is found next to it.
	summary, err := newRunner(t, cfg, prober, nil).Run(context.Background(), []string{episode})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := resultFor(t, summary, episode); got.Status != StatusWritten {
		t.Fatalf("expected written, got %+v", got)
	}
	text := readScript(t, filepath.Join(dir, "ep01.avs"))
	for _, want := range []string{
		`seg1_src1 = FFVideoSource("ep01.mkv")`,
		`seg1_src1 = AudioDub(seg1_src1, FFAudioSource("ep01.mkv"))`,
		`seg1_src2 = FFVideoSource("op.mkv")`,
		`seg1_src2 = AudioDub(seg1_src2, FFAudioSource("op.mkv"))`,
		`seg1_part1 = Trim(seg1_src1, 0, length=2157)`,
		`seg1_part2 = Trim(seg1_src2, 0, length=2157)`,
		`seg1_part3 = Trim(seg1_src1, 2157, length=32368)`,
		`seg1 = seg1_part1 + seg1_part2 + seg1_part3`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "op.avs")); !os.IsNotExist(err) {
		t.Fatalf("a borrowed segment outside the batch gets no script, stat err=%v", err)
	}
}

func TestOrderedChaptersMissingSegmentFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	episode, other := filepath.Join(dir, "ep01.mkv"), filepath.Join(dir, "ep02.mkv")
	touch(t, episode, other)

	prober := newFakeProber()
	prober.results[episode] = orderedEpisode(uuid.New())

	summary, err := newRunner(t, cfg, prober, nil).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got := resultFor(t, summary, episode)
	if got.Status != StatusFailed || got.Class != services.ClassDanglingReference {
		t.Fatalf("expected dangling reference failure, got %+v", got)
	}
	if !strings.Contains(got.Err.Error(), "plays a chapter from segment") {
		t.Fatalf("error should name the missing segment, got %v", got.Err)
	}
	if got := resultFor(t, summary, other); got.Status != StatusWritten {
		t.Fatalf("sibling should be unaffected, got %+v", got)
	}
}
