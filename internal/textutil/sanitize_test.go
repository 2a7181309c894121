package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Arial.ttf", "Arial.ttf"},
		{"fonts/evil.ttf", "fonts-evil.ttf"},
		{`..\..\x.otf`, "-..-x.otf"},
		{"  what?.ttf ", "what.ttf"},
		{".hidden.ttf", "hidden.ttf"},
		{"tab\there.ttf", "tabhere.ttf"},
		{"...", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.input); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
