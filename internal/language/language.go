package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Undetermined is the ISO 639-2 code Matroska uses for unknown languages.
const Undetermined = "und"

func parse(code string) (language.Tag, bool) {
	code = strings.TrimSpace(strings.ReplaceAll(code, "\u0000", ""))
	if code == "" {
		return language.Und, false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, false
	}
	if tag == language.Und {
		return tag, false
	}
	return tag, true
}

// Normalize returns the canonical BCP 47 form of code ("ger" -> "de",
// "pt-br" -> "pt-BR"). Unknown or empty input yields "und".
func Normalize(code string) string {
	tag, ok := parse(code)
	if !ok {
		return Undetermined
	}
	return tag.String()
}

// Preferred picks the tag from two track languages (ietf first, then legacy).
// mkvmerge reports language_ietf only for newer files.
func Preferred(ietf, legacy string) string {
	if _, ok := parse(ietf); ok {
		return Normalize(ietf)
	}
	return Normalize(legacy)
}

// DisplayName returns an English name for code, "Unknown" for empty or
// undetermined input, and the uppercased input when it cannot be parsed.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	tag, ok := parse(trimmed)
	if !ok {
		if trimmed == "" || strings.EqualFold(trimmed, Undetermined) {
			return "Unknown"
		}
		return strings.ToUpper(trimmed)
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}

// Matches reports whether a track language satisfies a user preference.
// Base languages are compared, so "en" matches "en-US" and "eng".
func Matches(trackLanguage, preference string) bool {
	want, ok := parse(preference)
	if !ok {
		return false
	}
	have, ok := parse(trackLanguage)
	if !ok {
		return false
	}
	wantBase, _ := want.Base()
	haveBase, _ := have.Base()
	return wantBase == haveBase
}
