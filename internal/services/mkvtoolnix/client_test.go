package mkvtoolnix_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"avsser/internal/services"
	"avsser/internal/services/mkvtoolnix"
)

const identifyFixture = `{
  "file_name": "/media/show/ep01.mkv",
  "container": {
    "recognized": true,
    "supported": true,
    "type": "Matroska",
    "properties": {
      "title": "Episode 1",
      "segment_uid": "0f1e2d3c4b5a69788796a5b4c3d2e1f0",
      "next_segment_uid": "a1b2c3d4e5f60718293a4b5c6d7e8f90"
    }
  },
  "tracks": [
    {"id": 2, "type": "subtitles", "codec": "SubStationAlpha", "properties": {"codec_id": "S_TEXT/ASS", "language": "eng", "default_track": false}},
    {"id": 0, "type": "video", "codec": "AVC/H.264/MPEG-4p10", "properties": {"codec_id": "V_MPEG4/ISO/AVC", "pixel_dimensions": "1920x1080"}},
    {"id": 1, "type": "audio", "codec": "FLAC", "properties": {"codec_id": "A_FLAC", "language": "jpn", "default_track": true}},
    {"id": 3, "type": "subtitles", "codec": "SubStationAlpha", "properties": {"codec_id": "S_TEXT/ASS", "language": "jpn", "language_ietf": "ja", "default_track": true, "track_name": "Signs"}}
  ],
  "attachments": [
    {"id": 1, "file_name": "OpenSans.ttf", "content_type": "application/x-truetype-font", "size": 1024},
    {"id": 2, "file_name": "cover.jpg", "content_type": "image/jpeg", "size": 2048}
  ],
  "chapters": [{"num_entries": 5}],
  "errors": [],
  "warnings": []
}`

type stubExecutor struct {
	out   string
	err   error
	calls int
	bins  []string
	args  [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	s.calls++
	s.bins = append(s.bins, binary)
	s.args = append(s.args, append([]string(nil), args...))
	return []byte(s.out), s.err
}

func newClient(t *testing.T, exec mkvtoolnix.Executor) *mkvtoolnix.Client {
	t.Helper()
	client, err := mkvtoolnix.New("mkvmerge", "mkvextract", mkvtoolnix.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresBinaries(t *testing.T) {
	if _, err := mkvtoolnix.New("", "mkvextract"); err == nil {
		t.Fatal("expected error for missing mkvmerge")
	}
	if _, err := mkvtoolnix.New("mkvmerge", " "); err == nil {
		t.Fatal("expected error for missing mkvextract")
	}
}

func TestIdentifyParsesFixture(t *testing.T) {
	stub := &stubExecutor{out: identifyFixture}
	client := newClient(t, stub)

	ident, err := client.Identify(context.Background(), "/media/show/ep01.mkv")
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if stub.bins[0] != "mkvmerge" || strings.Join(stub.args[0], " ") != "-J /media/show/ep01.mkv" {
		t.Fatalf("unexpected invocation %s %v", stub.bins[0], stub.args[0])
	}
	if len(ident.Tracks) != 4 || len(ident.Attachments) != 2 {
		t.Fatalf("unexpected counts: %d tracks, %d attachments", len(ident.Tracks), len(ident.Attachments))
	}
	if ident.Container.Properties.NextSegmentUID != "a1b2c3d4e5f60718293a4b5c6d7e8f90" {
		t.Fatalf("unexpected next uid %q", ident.Container.Properties.NextSegmentUID)
	}
	if ident.Tracks[3].Properties.LanguageIETF != "ja" || !ident.Tracks[3].Properties.DefaultTrack {
		t.Fatalf("unexpected track properties %+v", ident.Tracks[3].Properties)
	}
}

func TestIdentifyNonZeroExitIsToolInvocation(t *testing.T) {
	stub := &stubExecutor{err: &mkvtoolnix.CommandError{Binary: "mkvmerge", ExitCode: 2, Stderr: "Error: not a file"}}
	client := newClient(t, stub)

	_, err := client.Identify(context.Background(), "/media/broken.mkv")
	if !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected ErrToolInvocation, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 2") {
		t.Fatalf("expected exit status in message, got %v", err)
	}
}

func TestIdentifyMissingBinaryIsToolInvocation(t *testing.T) {
	stub := &stubExecutor{err: &mkvtoolnix.CommandError{Binary: "mkvmerge", Err: exec.ErrNotFound}}
	client := newClient(t, stub)

	_, err := client.Identify(context.Background(), "/media/ep.mkv")
	if !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected ErrToolInvocation, got %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found hint, got %v", err)
	}
}

func TestIdentifyMalformedOutputIsParseError(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"not json":       "Track ID 0: video",
		"unrecognized":   `{"container": {"recognized": false}}`,
		"reported error": `{"container": {"recognized": true}, "errors": ["bad header"]}`,
		"missing type":   `{"container": {"recognized": true}, "tracks": [{"id": 0}]}`,
		"duplicate id":   `{"container": {"recognized": true}, "tracks": [{"id": 1, "type": "video"}, {"id": 1, "type": "audio"}]}`,
		"wrong shape":    `{"container": {"recognized": true}, "tracks": {"id": 1}}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			client := newClient(t, &stubExecutor{out: payload})
			_, err := client.Identify(context.Background(), "/media/ep.mkv")
			if !errors.Is(err, services.ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
			if errors.Is(err, services.ErrToolInvocation) {
				t.Fatal("parse errors must not be reported as tool failures")
			}
		})
	}
}

func TestIdentifyToleratesEmptyContainer(t *testing.T) {
	client := newClient(t, &stubExecutor{out: `{"container": {"recognized": true, "supported": true}}`})
	ident, err := client.Identify(context.Background(), "/media/ep.mkv")
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if len(ident.Tracks) != 0 || len(ident.Attachments) != 0 {
		t.Fatalf("expected no tracks or attachments, got %+v", ident)
	}
}

func TestExtractArguments(t *testing.T) {
	stub := &stubExecutor{}
	client := newClient(t, stub)

	if err := client.ExtractTrack(context.Background(), "/m/ep.mkv", 3, "/m/ep.ass"); err != nil {
		t.Fatalf("ExtractTrack returned error: %v", err)
	}
	if err := client.ExtractAttachment(context.Background(), "/m/ep.mkv", 1, "/m/fonts/a.ttf"); err != nil {
		t.Fatalf("ExtractAttachment returned error: %v", err)
	}
	if stub.bins[0] != "mkvextract" || strings.Join(stub.args[0], " ") != "/m/ep.mkv tracks 3:/m/ep.ass" {
		t.Fatalf("unexpected track invocation %v", stub.args[0])
	}
	if strings.Join(stub.args[1], " ") != "/m/ep.mkv attachments 1:/m/fonts/a.ttf" {
		t.Fatalf("unexpected attachment invocation %v", stub.args[1])
	}
}

func TestExtractFailureIsToolInvocation(t *testing.T) {
	client := newClient(t, &stubExecutor{err: &mkvtoolnix.CommandError{Binary: "mkvextract", ExitCode: 2}})
	err := client.ExtractTrack(context.Background(), "/m/ep.mkv", 3, "/m/ep.ass")
	if !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected ErrToolInvocation, got %v", err)
	}
}

func TestCommandExecutorReportsExitStatus(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "mkvmerge")
	body := "#!/bin/sh\necho 'Error: the file could not be opened' >&2\nexit 2\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	client, err := mkvtoolnix.New(script, "mkvextract")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Identify(context.Background(), filepath.Join(dir, "ep.mkv"))
	var cmdErr *mkvtoolnix.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.ExitCode != 2 || !strings.Contains(cmdErr.Stderr, "could not be opened") {
		t.Fatalf("unexpected command error %+v", cmdErr)
	}
	if !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected ErrToolInvocation, got %v", err)
	}
}

func TestCommandExecutorMissingBinary(t *testing.T) {
	client, err := mkvtoolnix.New(filepath.Join(t.TempDir(), "no-such-mkvmerge"), "mkvextract")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Identify(context.Background(), "/m/ep.mkv"); !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected ErrToolInvocation, got %v", err)
	}
}
