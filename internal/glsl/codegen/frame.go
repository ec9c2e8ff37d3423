package codegen

import "github.com/lightplayer/lightplayer/internal/glsl/ssa"

// frameLayout assigns every SSA value in a function a 4-byte home slot
// (offset from sp) plus the auxiliary regions a call's ABI needs: an
// outgoing-overflow-argument area (spec.md §4.4, "and stack for overflow")
// and one region per Alloca. Every value gets its own address, so copying
// one value's slot into another's (block-argument passing at a Jump) is
// always hazard-free — there is no shared physical register to clobber.
type frameLayout struct {
	slot        map[ssa.ValueID]int32
	allocaBase  map[*ssa.Instr]int32
	overflowCap int32 // bytes reserved for this function's own outgoing overflow args
	frameSize   int32
	raOffset    int32
}

// maxRegArgs is the number of scalar arguments passed in a0..a7 before
// spilling to the overflow area.
const maxRegArgs = 8

func layoutFrame(f *ssa.Function) *frameLayout {
	fl := &frameLayout{slot: map[ssa.ValueID]int32{}, allocaBase: map[*ssa.Instr]int32{}}

	seen := map[ssa.ValueID]bool{}
	var order []ssa.ValueID
	addVal := func(v ssa.Value) {
		if !seen[v.ID] {
			seen[v.ID] = true
			order = append(order, v.ID)
		}
	}

	var allocaTotal int32
	for _, blk := range f.Blocks {
		for _, p := range blk.Params {
			addVal(p)
		}
		for _, instr := range blk.Instrs {
			if instr.Result != nil {
				addVal(*instr.Result)
			}
			if instr.Op == ssa.OpAlloca {
				size := (int32(instr.Imm) + 3) &^ 3
				fl.allocaBase[instr] = allocaTotal
				allocaTotal += size
			}
			if instr.Op == ssa.OpCall && len(instr.Args) > maxRegArgs {
				n := int32(len(instr.Args)-maxRegArgs) * 4
				if n > fl.overflowCap {
					fl.overflowCap = n
				}
			}
		}
	}

	// Alloca regions sit above the overflow-argument area at the bottom of
	// the frame.
	for instr, off := range fl.allocaBase {
		fl.allocaBase[instr] = off + fl.overflowCap
	}
	base := fl.overflowCap + allocaTotal
	for i, id := range order {
		fl.slot[id] = base + int32(i)*4
	}
	contentSize := base + int32(len(order))*4
	fl.raOffset = contentSize
	total := contentSize + 4
	fl.frameSize = (total + 15) &^ 15
	if fl.frameSize == 0 {
		fl.frameSize = 16
	}
	return fl
}

func (fl *frameLayout) slotOf(v ssa.Value) int32 { return fl.slot[v.ID] }

// incomingOverflowOffset is where a callee reads its (i+1)'th-beyond-a7
// scalar parameter, measured from its own (already-decremented) sp: right
// above its own frame, where the caller wrote it into the caller's own
// overflow area (see frame.go doc comment).
func (fl *frameLayout) incomingOverflowOffset(argIndex int) int32 {
	return fl.frameSize + int32(argIndex-maxRegArgs)*4
}
