// Package language normalizes track language tags reported by mkvmerge.
//
// Matroska carries both legacy ISO 639-2 codes ("jpn", "ger") and BCP 47
// tags ("ja", "pt-BR"). Everything here is backed by golang.org/x/text so
// subtitle selection and probe output agree on one canonical form.
package language
