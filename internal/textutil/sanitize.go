package textutil

import (
	"strings"
	"unicode"
)

// unsafeFileRunes maps characters that cannot appear in a portable file name.
// Separators become dashes so a path-like attachment name stays readable.
var unsafeFileRunes = map[rune]string{
	'/':  "-",
	'\\': "-",
	':':  "-",
	'*':  "-",
	'?':  "",
	'"':  "",
	'<':  "",
	'>':  "",
	'|':  "",
}

// SanitizeFileName turns an attachment name taken from a container into a
// single safe path element. Control characters are dropped and leading dots
// are trimmed so the result can neither climb directories nor hide itself.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsControl(r) {
			continue
		}
		if repl, ok := unsafeFileRunes[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(strings.TrimLeft(b.String(), ". "))
}
