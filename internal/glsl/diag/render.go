package diag

import (
	"fmt"
	"strings"
)

// Report is the developer-facing rendering of a surfaced error (spec.md
// §7): a machine code, a one-line message, an optional source span with
// surrounding lines, and optional extra notes. Rendering never panics even
// when inputs are partially malformed — every field is produced
// best-effort.
type Report struct {
	Code    string
	Message string
	Loc     Resolved
	Context []string // surrounding source lines, Loc.Line centered
	Notes   []string
}

// RenderTrap builds a Report for an emulator trap: pc resolved through
// table/locMgr, with register state and surrounding source folded in.
func RenderTrap(code string, pc uint32, regs [32]uint32, message string, table *TrapSourceTable, locMgr *SourceLocManager, source string) Report {
	r := Report{Code: code, Message: message}
	if table != nil && locMgr != nil {
		loc := table.Lookup(pc)
		r.Loc = locMgr.Resolve(loc)
		r.Context = surroundingLines(source, r.Loc.Line)
	}
	r.Notes = append(r.Notes, fmt.Sprintf("pc=%#08x", pc))
	r.Notes = append(r.Notes, formatRegs(regs))
	return r
}

func formatRegs(regs [32]uint32) string {
	var b strings.Builder
	b.WriteString("registers: ")
	for i, v := range regs {
		fmt.Fprintf(&b, "x%d=%#x ", i, v)
	}
	return strings.TrimSpace(b.String())
}

// surroundingLines returns up to 2 lines of context on each side of line
// (1-based); out-of-range input yields an empty, non-panicking result.
func surroundingLines(source string, line int) []string {
	if source == "" || line <= 0 {
		return nil
	}
	lines := strings.Split(source, "\n")
	lo := line - 3
	if lo < 0 {
		lo = 0
	}
	hi := line + 2
	if hi > len(lines) {
		hi = len(lines)
	}
	if lo >= hi {
		return nil
	}
	out := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		marker := "  "
		if i+1 == line {
			marker = "->"
		}
		out = append(out, fmt.Sprintf("%s %4d | %s", marker, i+1, lines[i]))
	}
	return out
}

// String renders the report as plain text suitable for a terminal or log
// line.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", r.Code, r.Message)
	if r.Loc.File != "" {
		fmt.Fprintf(&b, "\n  at %s", r.Loc.String())
	}
	for _, l := range r.Context {
		b.WriteString("\n" + l)
	}
	for _, n := range r.Notes {
		b.WriteString("\n  " + n)
	}
	return b.String()
}
