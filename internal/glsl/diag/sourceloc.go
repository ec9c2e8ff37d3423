// Package diag implements source-location tracking and rich diagnostic
// rendering: a SourceLocManager mapping opaque SourceLoc handles to
// (file, line, column), and a renderer that turns an emulator Trap into a
// developer-facing report with surrounding source lines (spec.md §4.3, §7).
package diag

import "fmt"

// SourceLoc is an opaque handle assigned to every generated IR instruction,
// resolved back to source text by a SourceLocManager.
type SourceLoc uint32

// NoLoc is the zero value, meaning "no location recorded" (e.g. for
// compiler-synthesized instructions with no single source origin).
const NoLoc SourceLoc = 0

type entry struct {
	file     string
	line     int
	column   int
	function string
}

// SourceLocManager owns the table SourceLoc handles index into.
type SourceLocManager struct {
	file    string
	entries []entry // index 0 reserved for NoLoc
}

// NewSourceLocManager creates a manager for one GLSL file.
func NewSourceLocManager(file string) *SourceLocManager {
	return &SourceLocManager{file: file, entries: []entry{{}}}
}

// Record allocates a new SourceLoc for (line, column) within the function
// currently being compiled.
func (m *SourceLocManager) Record(line, column int, function string) SourceLoc {
	m.entries = append(m.entries, entry{file: m.file, line: line, column: column, function: function})
	return SourceLoc(len(m.entries) - 1)
}

// Resolved is the (file, line, column, function) a SourceLoc maps to.
type Resolved struct {
	File     string
	Line     int
	Column   int
	Function string
}

// Resolve maps loc back to source coordinates. An out-of-range or NoLoc
// handle resolves to the zero Resolved with File == "" — callers must
// handle this format-safely rather than panicking (spec.md §7).
func (m *SourceLocManager) Resolve(loc SourceLoc) Resolved {
	if int(loc) <= 0 || int(loc) >= len(m.entries) {
		return Resolved{}
	}
	e := m.entries[loc]
	return Resolved{File: e.file, Line: e.line, Column: e.column, Function: e.function}
}

func (r Resolved) String() string {
	if r.File == "" {
		return "<unknown location>"
	}
	return fmt.Sprintf("%s:%d:%d (in %s)", r.File, r.Line, r.Column, r.Function)
}
