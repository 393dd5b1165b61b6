// Package diag implements the TYL compiler's diagnostic accumulator: a
// sortable, return-coded list of errors/warnings/notes, kept separate from
// ordinary process logging the way cmd_local/go/internal/base separates
// base.Errorf's diagnostic-count-and-exit-code bookkeeping from the
// standard log package (spec.md §7).
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Level tags a Diagnostic's severity.
type Level uint8

const (
	Error Level = iota
	Warning
	Note
)

func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	}
	return "unknown"
}

// Pos is the position a Diagnostic is attached to.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is one reported error, warning, or note.
type Diagnostic struct {
	Level   Level
	Message string
	Pos     Pos
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Level, d.Message)
}

// List accumulates Diagnostics for one compilation run.
type List struct {
	items []Diagnostic
}

func (l *List) add(level Level, pos Pos, format string, args []interface{}) {
	l.items = append(l.items, Diagnostic{Level: level, Message: fmt.Sprintf(format, args...), Pos: pos})
}

// Errorf records an Error-level diagnostic at pos.
func (l *List) Errorf(pos Pos, format string, args ...interface{}) {
	l.add(Error, pos, format, args)
}

// Warningf records a Warning-level diagnostic at pos.
func (l *List) Warningf(pos Pos, format string, args ...interface{}) {
	l.add(Warning, pos, format, args)
}

// Notef records a Note-level diagnostic at pos.
func (l *List) Notef(pos Pos, format string, args ...interface{}) {
	l.add(Note, pos, format, args)
}

// HasErrors reports whether any Error-level diagnostic was recorded; the
// pipeline uses this to decide whether to proceed past type checking
// (spec.md §7).
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Level == Error {
			return true
		}
	}
	return false
}

func (l *List) Len() int { return len(l.items) }

func (l *List) Items() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Sort orders diagnostics deterministically by file, then line, then
// column, then level (errors before warnings before notes at the same
// position) — needed because the checker, ctfe, and codegen stages can
// append diagnostics in different traversal orders across runs.
func (l *List) Sort() {
	sort.SliceStable(l.items, func(i, j int) bool {
		a, b := l.items[i], l.items[j]
		if a.Pos.File != b.Pos.File {
			return a.Pos.File < b.Pos.File
		}
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line < b.Pos.Line
		}
		if a.Pos.Column != b.Pos.Column {
			return a.Pos.Column < b.Pos.Column
		}
		return a.Level < b.Level
	})
}

// String renders every diagnostic, one per line, in current order.
func (l *List) String() string {
	var b strings.Builder
	for _, d := range l.items {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}
