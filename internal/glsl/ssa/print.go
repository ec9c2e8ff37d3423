package ssa

import (
	"fmt"
	"strings"
)

// String renders f in the same "blkN: (params)\n\tvN:ty = Op args" textual
// form wazevo's frontend tests assert against, used here purely as a
// debugging/golden-test aid.
func (f *Function) String() string {
	var b strings.Builder
	for _, blk := range f.Blocks {
		fmt.Fprintf(&b, "blk%d:", blk.ID)
		if len(blk.Params) > 0 {
			b.WriteString(" (")
			for i, p := range blk.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%s:%s", p, p.Type)
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
		for _, instr := range blk.Instrs {
			b.WriteString("\t")
			b.WriteString(instr.String())
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (i *Instr) String() string {
	var b strings.Builder
	if i.Result != nil {
		fmt.Fprintf(&b, "%s:%s = ", *i.Result, i.Result.Type)
	}
	b.WriteString(i.Op.String())
	if i.Op == OpIconst {
		fmt.Fprintf(&b, " %#x", i.Imm)
		return b.String()
	}
	if i.Callee != "" {
		fmt.Fprintf(&b, " %s", i.Callee)
	}
	for _, a := range i.Args {
		fmt.Fprintf(&b, " %s,", a)
	}
	s := strings.TrimSuffix(b.String(), ",")
	for ti, t := range i.Targets {
		s += fmt.Sprintf(" blk%d", t)
		if ti < len(i.BlockArg) {
			for _, a := range i.BlockArg[ti] {
				s += fmt.Sprintf(" %s", a)
			}
		}
	}
	return s
}
