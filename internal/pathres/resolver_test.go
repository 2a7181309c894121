package pathres

import (
	"errors"
	"path/filepath"
	"testing"

	"avsser/internal/services"
)

func TestCanonicalCleansSegments(t *testing.T) {
	root := t.TempDir()
	messy := root + string(filepath.Separator) + filepath.Join("a", ".", "b", "..", "c", "file.mkv")
	got, err := Canonical(messy)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	want := filepath.Join(root, "a", "c", "file.mkv")
	if got != want {
		t.Fatalf("Canonical = %q, want %q", got, want)
	}
}

func TestCanonicalRejectsEmpty(t *testing.T) {
	if _, err := Canonical("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCanonicalRelativeInputIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	got, err := Canonical(filepath.Join("sub", "..", "ep.mkv"))
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("expected absolute path, got %q", got)
	}
	if filepath.Base(got) != "ep.mkv" || filepath.Base(filepath.Dir(got)) != filepath.Base(dir) {
		t.Fatalf("unexpected canonical path %q", got)
	}
}

func TestScriptPath(t *testing.T) {
	root := t.TempDir()
	r := New(DefaultMaxDepth)

	got, err := r.ScriptPath(filepath.Join(root, "show", "ep01.mkv"), "", ".avs")
	if err != nil {
		t.Fatalf("ScriptPath: %v", err)
	}
	if want := filepath.Join(root, "show", "ep01.avs"); got != want {
		t.Fatalf("ScriptPath = %q, want %q", got, want)
	}

	got, err = r.ScriptPath(filepath.Join(root, "show", "ep01.mkv"), filepath.Join(root, "out", "..", "scripts"), ".vpy")
	if err != nil {
		t.Fatalf("ScriptPath: %v", err)
	}
	if want := filepath.Join(root, "scripts", "ep01.vpy"); got != want {
		t.Fatalf("ScriptPath = %q, want %q", got, want)
	}
}

func TestReferenceRoundTrip(t *testing.T) {
	root := t.TempDir()
	sep := string(filepath.Separator)
	tests := []struct {
		name      string
		scriptDir string
		asset     string
		relative  bool
	}{
		{"same directory", filepath.Join(root, "show"), filepath.Join(root, "show", "ep01.mkv"), true},
		{"child directory", filepath.Join(root, "show"), filepath.Join(root, "show", "fonts"), true},
		{"sibling directory", filepath.Join(root, "scripts"), filepath.Join(root, "media", "ep01.mkv"), true},
		{"dotdot in asset", filepath.Join(root, "scripts"), root + sep + filepath.Join("media", "..", "media", "x", "..", "ep01.mkv"), true},
		{"dotdot in script dir", root + sep + filepath.Join("a", "b", "..", "scripts"), filepath.Join(root, "media", "ep01.mkv"), true},
		{"at hop limit", filepath.Join(root, "a", "b", "c"), filepath.Join(root, "ep01.mkv"), true},
		{"beyond hop limit", filepath.Join(root, "a", "b", "c", "d"), filepath.Join(root, "ep01.mkv"), false},
	}

	r := New(3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := r.Reference(tt.scriptDir, tt.asset)
			if tt.relative && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref.Relative != tt.relative {
				t.Fatalf("Relative = %v, want %v (path %q)", ref.Relative, tt.relative, ref.Path)
			}
			if !tt.relative {
				var resErr *ResolutionError
				if !errors.As(err, &resErr) {
					t.Fatalf("expected ResolutionError, got %v", err)
				}
				if !errors.Is(err, services.ErrPathResolution) {
					t.Fatal("expected ErrPathResolution marker")
				}
				if !filepath.IsAbs(ref.Path) {
					t.Fatalf("fallback should be absolute, got %q", ref.Path)
				}
			}

			dir, _ := Canonical(tt.scriptDir)
			want, _ := Canonical(tt.asset)
			if got := Resolve(dir, ref); got != want {
				t.Fatalf("round trip = %q, want %q", got, want)
			}
			if ref.Target != want {
				t.Fatalf("Target = %q, want %q", ref.Target, want)
			}
		})
	}
}

func TestReferenceZeroDepthAllowsDescendantsOnly(t *testing.T) {
	root := t.TempDir()
	r := New(0)
	if ref, err := r.Reference(root, filepath.Join(root, "fonts")); err != nil || ref.Path != "fonts" {
		t.Fatalf("descendant reference = %+v, %v", ref, err)
	}
	if _, err := r.Reference(filepath.Join(root, "x"), filepath.Join(root, "y")); err == nil {
		t.Fatal("expected fallback for sibling with depth 0")
	}
}

func TestBaseName(t *testing.T) {
	if got := BaseName(filepath.Join("dir", "show.part1.mkv")); got != "show.part1" {
		t.Fatalf("BaseName = %q", got)
	}
}
