package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"eng", "en"},
		{"ger", "de"},
		{"jpn", "ja"},
		{"pt-br", "pt-BR"},
		{" en ", "en"},
		{"", "und"},
		{"und", "und"},
		{"not a tag", "und"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPreferred(t *testing.T) {
	if got := Preferred("es-419", "spa"); got != "es-419" {
		t.Fatalf("expected ietf tag to win, got %q", got)
	}
	if got := Preferred("", "jpn"); got != "ja" {
		t.Fatalf("expected legacy fallback, got %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("jpn"); got != "Japanese" {
		t.Fatalf("DisplayName(jpn) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("und"); got != "Unknown" {
		t.Fatalf("DisplayName(und) = %q", got)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		track, pref string
		want        bool
	}{
		{"eng", "en", true},
		{"en-US", "en", true},
		{"jpn", "en", false},
		{"und", "en", false},
		{"eng", "", false},
	}
	for _, tt := range tests {
		if got := Matches(tt.track, tt.pref); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.track, tt.pref, got, tt.want)
		}
	}
}
