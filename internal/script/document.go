package script

import "strings"

// StatementKind classifies a line of a generated script.
type StatementKind string

const (
	StatementPreamble     StatementKind = "preamble"
	StatementSource       StatementKind = "source"
	StatementFilter       StatementKind = "filter"
	StatementAudio        StatementKind = "audio"
	StatementFontDir      StatementKind = "font_dir"
	StatementSubtitle     StatementKind = "subtitle"
	StatementTrim         StatementKind = "trim"
	StatementContinuation StatementKind = "continuation"
	StatementOutput       StatementKind = "output"
)

// Statement is one logical line.
type Statement struct {
	Kind StatementKind
	Text string
	// Target is the absolute path a continuation loads.
	Target string
}

// ScriptDocument is one generated script.
type ScriptDocument struct {
	Path       string
	Format     string
	Ordinal    int
	Statements []Statement
}

// Render returns the UTF-8 text of the document.
func (d *ScriptDocument) Render() string {
	var b strings.Builder
	for _, stmt := range d.Statements {
		b.WriteString(stmt.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Count returns how many statements of kind the document holds.
func (d *ScriptDocument) Count(kind StatementKind) int {
	n := 0
	for _, stmt := range d.Statements {
		if stmt.Kind == kind {
			n++
		}
	}
	return n
}

// Continuation returns the target of the document's continuation, if any.
func (d *ScriptDocument) Continuation() (string, bool) {
	for _, stmt := range d.Statements {
		if stmt.Kind == StatementContinuation && stmt.Target != "" {
			return stmt.Target, true
		}
	}
	return "", false
}
