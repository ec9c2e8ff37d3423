package codegen

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/diag"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
	"github.com/lightplayer/lightplayer/internal/rv32"
)

// funcAsm lowers one ssa.Function's instructions into a flat []line,
// reusing frameLayout for every value's address and asm for label
// bookkeeping.
type funcAsm struct {
	asm
	fl *frameLayout
	f  *ssa.Function
}

func blockLabel(fname string, id ssa.BlockID) string {
	return fmt.Sprintf(".L%s_%d", fname, id)
}

func lowerFunction(f *ssa.Function) ([]line, error) {
	fa := &funcAsm{fl: layoutFrame(f), f: f}
	fa.defineLabel(funcLabel(f.Name))
	fa.emitPrologue()
	fa.emitParamSpill()
	for _, blk := range f.Blocks {
		fa.defineLabel(blockLabel(f.Name, blk.ID))
		for _, instr := range blk.Instrs {
			if err := fa.lowerInstr(instr); err != nil {
				return nil, fmt.Errorf("codegen: function %s: %w", f.Name, err)
			}
		}
	}
	return fa.lines, nil
}

func (fa *funcAsm) emitPrologue() {
	loc := diag.NoLoc
	fa.emit(rv32.Inst{Op: rv32.OpAddi, Rd: regSp, Rs1: regSp, Imm: -fa.fl.frameSize, Size: 4}, loc)
	fa.storeSlot(regRa, fa.fl.raOffset, loc)
}

func (fa *funcAsm) emitEpilogue() {
	loc := diag.NoLoc
	fa.loadSlot(regRa, fa.fl.raOffset, loc)
	fa.emit(rv32.Inst{Op: rv32.OpAddi, Rd: regSp, Rs1: regSp, Imm: fa.fl.frameSize, Size: 4}, loc)
}

// emitParamSpill copies the entry block's incoming arguments (a0..a7, plus
// any stack overflow written by the caller) into their home slots. Only
// Entry carries real ABI parameters — every other block's Params are
// merge/loop phi values populated by the Jump/Brz/Brnz that targets them.
func (fa *funcAsm) emitParamSpill() {
	entry := fa.f.Block(fa.f.Entry)
	for i, p := range entry.Params {
		if i < maxRegArgs {
			fa.storeSlot(argReg(i), fa.fl.slotOf(p), diag.NoLoc)
			continue
		}
		fa.loadSlot(regT0, fa.fl.incomingOverflowOffset(i), diag.NoLoc)
		fa.storeSlot(regT0, fa.fl.slotOf(p), diag.NoLoc)
	}
}

func (fa *funcAsm) ld(rd rv32.Gpr, v ssa.Value, loc diag.SourceLoc) {
	fa.loadSlot(rd, fa.fl.slotOf(v), loc)
}

func (fa *funcAsm) st(rs rv32.Gpr, v ssa.Value, loc diag.SourceLoc) {
	fa.storeSlot(rs, fa.fl.slotOf(v), loc)
}

var binaryOpcode = map[ssa.Opcode]rv32.Op{
	ssa.OpIAdd:  rv32.OpAdd,
	ssa.OpISub:  rv32.OpSub,
	ssa.OpIMul:  rv32.OpMul,
	ssa.OpIDivS: rv32.OpDiv,
	ssa.OpIDivU: rv32.OpDivu,
	ssa.OpIRemS: rv32.OpRem,
	ssa.OpIRemU: rv32.OpRemu,
	ssa.OpAnd:   rv32.OpAnd,
	ssa.OpOr:    rv32.OpOr,
	ssa.OpXor:   rv32.OpXor,
	ssa.OpShl:   rv32.OpSll,
	ssa.OpShrS:  rv32.OpSra,
	ssa.OpShrU:  rv32.OpSrl,
}

func (fa *funcAsm) lowerInstr(instr *ssa.Instr) error {
	loc := diag.SourceLoc(instr.Loc)
	switch instr.Op {
	case ssa.OpIconst:
		fa.loadImmediate(regT0, int32(instr.Imm), loc)
		fa.st(regT0, *instr.Result, loc)

	case ssa.OpIAdd, ssa.OpISub, ssa.OpIMul, ssa.OpIDivS, ssa.OpIDivU,
		ssa.OpIRemS, ssa.OpIRemU, ssa.OpAnd, ssa.OpOr, ssa.OpXor,
		ssa.OpShl, ssa.OpShrS, ssa.OpShrU:
		op, ok := binaryOpcode[instr.Op]
		if !ok {
			return fmt.Errorf("unmapped binary opcode %s", instr.Op)
		}
		fa.ld(regT0, instr.Args[0], loc)
		fa.ld(regT1, instr.Args[1], loc)
		fa.emit(rv32.Inst{Op: op, Rd: regT0, Rs1: regT0, Rs2: regT1, Size: 4}, loc)
		fa.st(regT0, *instr.Result, loc)

	case ssa.OpINeg:
		fa.ld(regT0, instr.Args[0], loc)
		fa.emit(rv32.Inst{Op: rv32.OpSub, Rd: regT0, Rs1: regZero, Rs2: regT0, Size: 4}, loc)
		fa.st(regT0, *instr.Result, loc)

	case ssa.OpIcmpEq, ssa.OpIcmpNe, ssa.OpIcmpLtS, ssa.OpIcmpLeS,
		ssa.OpIcmpGtS, ssa.OpIcmpGeS:
		fa.lowerCompare(instr, loc)

	case ssa.OpSelect:
		fa.lowerSelect(instr, loc)

	case ssa.OpAlloca:
		base := fa.fl.allocaBase[instr]
		fa.emit(rv32.Inst{Op: rv32.OpAddi, Rd: regT0, Rs1: regSp, Imm: base, Size: 4}, loc)
		fa.st(regT0, *instr.Result, loc)

	case ssa.OpLoad:
		fa.ld(regT0, instr.Args[0], loc)
		fa.emit(rv32.Inst{Op: rv32.OpLw, Rd: regT1, Rs1: regT0, Imm: 0, Size: 4}, loc)
		fa.st(regT1, *instr.Result, loc)

	case ssa.OpStore:
		fa.ld(regT0, instr.Args[0], loc)
		fa.ld(regT1, instr.Args[1], loc)
		fa.emit(rv32.Inst{Op: rv32.OpSw, Rs1: regT0, Rs2: regT1, Imm: 0, Size: 4}, loc)

	case ssa.OpCall:
		fa.lowerCall(instr, loc)

	case ssa.OpJump:
		fa.copyBlockArgs(instr.Targets[0], instr.BlockArg[0], loc)
		fa.emitBranch(rv32.Inst{Op: rv32.OpJal, Rd: regZero, Size: 4}, blockLabel(fa.f.Name, instr.Targets[0]), loc)

	case ssa.OpBrz, ssa.OpBrnz:
		fa.lowerCondBranch(instr, loc)

	case ssa.OpReturn:
		if len(instr.Args) == 1 {
			fa.ld(regT0, instr.Args[0], loc)
			fa.emit(rv32.Inst{Op: rv32.OpAddi, Rd: argReg(0), Rs1: regT0, Imm: 0, Size: 4}, loc)
		}
		fa.emitEpilogue()
		fa.emit(rv32.Inst{Op: rv32.OpJalr, Rd: regZero, Rs1: regRa, Imm: 0, Size: 4}, loc)

	default:
		// Sqrt/Sin/Cos/.../Sample are rewritten to OpCall by q32.Transform
		// before codegen ever runs; seeing one here means Transform wasn't
		// applied to this function.
		return fmt.Errorf("opcode %s reached codegen unrewritten (missing q32.Transform?)", instr.Op)
	}
	return nil
}

func (fa *funcAsm) lowerCompare(instr *ssa.Instr, loc diag.SourceLoc) {
	fa.ld(regT0, instr.Args[0], loc)
	fa.ld(regT1, instr.Args[1], loc)
	switch instr.Op {
	case ssa.OpIcmpLtS:
		fa.emit(rv32.Inst{Op: rv32.OpSlt, Rd: regT0, Rs1: regT0, Rs2: regT1, Size: 4}, loc)
	case ssa.OpIcmpGeS:
		fa.emit(rv32.Inst{Op: rv32.OpSlt, Rd: regT0, Rs1: regT0, Rs2: regT1, Size: 4}, loc)
		fa.emit(rv32.Inst{Op: rv32.OpXori, Rd: regT0, Rs1: regT0, Imm: 1, Size: 4}, loc)
	case ssa.OpIcmpGtS:
		fa.emit(rv32.Inst{Op: rv32.OpSlt, Rd: regT0, Rs1: regT1, Rs2: regT0, Size: 4}, loc)
	case ssa.OpIcmpLeS:
		fa.emit(rv32.Inst{Op: rv32.OpSlt, Rd: regT0, Rs1: regT1, Rs2: regT0, Size: 4}, loc)
		fa.emit(rv32.Inst{Op: rv32.OpXori, Rd: regT0, Rs1: regT0, Imm: 1, Size: 4}, loc)
	case ssa.OpIcmpEq:
		fa.emit(rv32.Inst{Op: rv32.OpXor, Rd: regT0, Rs1: regT0, Rs2: regT1, Size: 4}, loc)
		fa.emit(rv32.Inst{Op: rv32.OpSltiu, Rd: regT0, Rs1: regT0, Imm: 1, Size: 4}, loc)
	case ssa.OpIcmpNe:
		fa.emit(rv32.Inst{Op: rv32.OpXor, Rd: regT0, Rs1: regT0, Rs2: regT1, Size: 4}, loc)
		fa.emit(rv32.Inst{Op: rv32.OpSltu, Rd: regT0, Rs1: regZero, Rs2: regT0, Size: 4}, loc)
	}
	fa.st(regT0, *instr.Result, loc)
}

func (fa *funcAsm) lowerSelect(instr *ssa.Instr, loc diag.SourceLoc) {
	elseLbl := fa.newLocalLabel("selF")
	endLbl := fa.newLocalLabel("selE")
	fa.ld(regT0, instr.Args[0], loc)
	fa.emitBranch(rv32.Inst{Op: rv32.OpBeq, Rs1: regT0, Rs2: regZero, Size: 4}, elseLbl, loc)
	fa.ld(regT1, instr.Args[1], loc)
	fa.st(regT1, *instr.Result, loc)
	fa.emitBranch(rv32.Inst{Op: rv32.OpJal, Rd: regZero, Size: 4}, endLbl, loc)
	fa.defineLabel(elseLbl)
	fa.ld(regT1, instr.Args[2], loc)
	fa.st(regT1, *instr.Result, loc)
	fa.defineLabel(endLbl)
}

// copyBlockArgs writes each outgoing value into the target block's
// parameter slots. Every Value has its own stack home (frameLayout), so
// sequential single-value copies through a scratch register are always
// hazard-free regardless of order.
func (fa *funcAsm) copyBlockArgs(target ssa.BlockID, args []ssa.Value, loc diag.SourceLoc) {
	blk := fa.f.Block(target)
	for i, v := range args {
		fa.ld(regT0, v, loc)
		fa.storeSlot(regT0, fa.fl.slotOf(blk.Params[i]), loc)
	}
}

func (fa *funcAsm) lowerCondBranch(instr *ssa.Instr, loc diag.SourceLoc) {
	skip := fa.newLocalLabel("skip")
	fa.ld(regT0, instr.Args[0], loc)
	// Brz takes the branch when cond==0 (skip it when cond!=0, i.e. bne);
	// Brnz takes the branch when cond!=0 (skip it when cond==0, i.e. beq).
	skipOp := rv32.OpBne
	if instr.Op == ssa.OpBrnz {
		skipOp = rv32.OpBeq
	}
	fa.emitBranch(rv32.Inst{Op: skipOp, Rs1: regT0, Rs2: regZero, Size: 4}, skip, loc)
	fa.copyBlockArgs(instr.Targets[0], instr.BlockArg[0], loc)
	fa.emitBranch(rv32.Inst{Op: rv32.OpJal, Rd: regZero, Size: 4}, blockLabel(fa.f.Name, instr.Targets[0]), loc)
	fa.defineLabel(skip)
}

func (fa *funcAsm) lowerCall(instr *ssa.Instr, loc diag.SourceLoc) {
	for i, arg := range instr.Args {
		fa.ld(regT0, arg, loc)
		if i < maxRegArgs {
			fa.emit(rv32.Inst{Op: rv32.OpAddi, Rd: argReg(i), Rs1: regT0, Imm: 0, Size: 4}, loc)
		} else {
			fa.emit(rv32.Inst{Op: rv32.OpSw, Rs1: regSp, Rs2: regT0, Imm: int32(i-maxRegArgs) * 4, Size: 4}, loc)
		}
	}
	fa.emitBranch(rv32.Inst{Op: rv32.OpJal, Rd: regRa, Size: 4}, funcLabel(instr.Callee), loc)
	if instr.Result != nil {
		fa.st(argReg(0), *instr.Result, loc)
	}
}
