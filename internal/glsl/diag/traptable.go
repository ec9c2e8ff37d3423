package diag

import "sort"

// TrapSourceTable maps an emulator PC to the SourceLoc active at that
// instruction, emitted by codegen alongside the object code (spec.md §4.3,
// "emitted at codegen"). Entries are sorted by PC; Lookup finds the entry
// covering a given PC (the nearest recorded PC at or before it, since not
// every PC need be separately annotated).
type TrapSourceTable struct {
	pcs  []uint32
	locs []SourceLoc
}

// Record appends one (pc, loc) entry. Callers append in increasing PC
// order as codegen emits instructions.
func (t *TrapSourceTable) Record(pc uint32, loc SourceLoc) {
	t.pcs = append(t.pcs, pc)
	t.locs = append(t.locs, loc)
}

// Lookup returns the SourceLoc recorded for the instruction at or
// immediately before pc, or NoLoc if the table is empty or pc precedes
// every recorded entry.
func (t *TrapSourceTable) Lookup(pc uint32) SourceLoc {
	if len(t.pcs) == 0 {
		return NoLoc
	}
	i := sort.Search(len(t.pcs), func(i int) bool { return t.pcs[i] > pc })
	if i == 0 {
		return NoLoc
	}
	return t.locs[i-1]
}
