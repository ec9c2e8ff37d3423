// Package codegen lowers a Q16.16-transformed ssa.Function into RV32
// machine code: a straightforward, entirely memory-homed (-O0-shaped)
// instruction selector rather than a register allocator, grounded on
// machine_bus.go's ROM layout and matching the calling convention spec.md
// §4.3/§4.4 describes (scalar args in a0..a7 with stack overflow, hidden
// struct-return pointer as the first argument). Every function gets its
// own stack frame; every SSA value (including block parameters, i.e. phi
// nodes) gets a unique 4-byte home, so there is never a live value held in
// a register across an instruction boundary and no register-allocation
// pass is needed for correctness.
package codegen

import (
	"encoding/binary"
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/diag"
	"github.com/lightplayer/lightplayer/internal/rv32"
)

const (
	regZero rv32.Gpr = 0
	regRa   rv32.Gpr = 1
	regSp   rv32.Gpr = 2
	regT0   rv32.Gpr = 5
	regT1   rv32.Gpr = 6
	regT2   rv32.Gpr = 7
	// regT3..regT6 are used only by runtime.go's hand-built div stub,
	// which needs more live temporaries at once than the general ssa
	// lowering in lower.go ever does.
	regT3 rv32.Gpr = 28
	regT4 rv32.Gpr = 29
	regT5 rv32.Gpr = 30
	regT6 rv32.Gpr = 31
)

func argReg(i int) rv32.Gpr { return rv32.Gpr(10 + i) }

// line is one assembler unit: either a zero-width label definition or a
// real 4-byte instruction, optionally needing its Imm patched once target
// addresses are known.
type line struct {
	isLabel bool
	label   string

	inst   rv32.Inst
	target string // symbolic branch/jal target; "" if inst.Imm is already final
	loc    diag.SourceLoc
}

// asm accumulates one function's instruction stream before the final
// address-resolution pass.
type asm struct {
	lines   []line
	counter int
}

func (a *asm) defineLabel(name string) { a.lines = append(a.lines, line{isLabel: true, label: name}) }

func (a *asm) newLocalLabel(prefix string) string {
	a.counter++
	return fmt.Sprintf(".%s%d", prefix, a.counter)
}

func (a *asm) emit(i rv32.Inst, loc diag.SourceLoc) {
	a.lines = append(a.lines, line{inst: i, loc: loc})
}

func (a *asm) emitBranch(i rv32.Inst, target string, loc diag.SourceLoc) {
	a.lines = append(a.lines, line{inst: i, target: target, loc: loc})
}

// loadImmediate appends the instructions to materialize v into rd,
// expanding to the lui+addi pair when v doesn't fit a 12-bit signed
// immediate (the standard RISC-V `li` pseudo-instruction expansion).
func (a *asm) loadImmediate(rd rv32.Gpr, v int32, loc diag.SourceLoc) {
	if v >= -2048 && v <= 2047 {
		a.emit(rv32.Inst{Op: rv32.OpAddi, Rd: rd, Rs1: regZero, Imm: v, Size: 4}, loc)
		return
	}
	upper := v
	lower := v & 0xFFF
	if lower >= 2048 {
		lower -= 4096
	}
	upper = v - lower
	a.emit(rv32.Inst{Op: rv32.OpLui, Rd: rd, Imm: upper, Size: 4}, loc)
	if lower != 0 {
		a.emit(rv32.Inst{Op: rv32.OpAddi, Rd: rd, Rs1: rd, Imm: lower, Size: 4}, loc)
	}
}

func (a *asm) loadSlot(rd rv32.Gpr, offset int32, loc diag.SourceLoc) {
	a.emit(rv32.Inst{Op: rv32.OpLw, Rd: rd, Rs1: regSp, Imm: offset, Size: 4}, loc)
}

func (a *asm) storeSlot(rs rv32.Gpr, offset int32, loc diag.SourceLoc) {
	a.emit(rv32.Inst{Op: rv32.OpSw, Rs1: regSp, Rs2: rs, Imm: offset, Size: 4}, loc)
}

// Linked is the final assembled object: raw ROM bytes plus the symbol and
// trap-source tables spec.md §4.3/§4.4 call for.
type Linked struct {
	Rom       []byte
	Symbols   map[string]uint32
	TrapTable *diag.TrapSourceTable
}

// assemble lays out funcs (each a flat []line stream prefixed by a
// "func:name" label) sequentially starting at base, resolves every
// symbolic branch/jal target, and encodes every instruction. Labels that
// start with "." (newLocalLabel's) are scoped to the function they appear
// in, since each function's counter starts afresh.
func assemble(base uint32, funcs map[string][]line, order []string) (*Linked, error) {
	addr := base
	labelAddr := map[string]uint32{}
	var flat []line
	var owner []string
	for _, name := range order {
		for _, ln := range funcs[name] {
			flat = append(flat, ln)
			owner = append(owner, name)
			if ln.isLabel {
				key := ln.label
				if key[0] == '.' {
					key = name + key
				}
				labelAddr[key] = addr
			} else {
				addr += 4
			}
		}
	}

	rom := make([]byte, addr-base)
	trap := &diag.TrapSourceTable{}
	pc := base
	for i, ln := range flat {
		if ln.isLabel {
			continue
		}
		inst := ln.inst
		if ln.target != "" {
			key := ln.target
			if key[0] == '.' {
				key = owner[i] + key
			}
			tgt, ok := labelAddr[key]
			if !ok {
				return nil, fmt.Errorf("codegen: unresolved label %q", ln.target)
			}
			inst.Imm = int32(tgt - pc)
		}
		word, err := rv32.Encode(inst)
		if err != nil {
			return nil, fmt.Errorf("codegen: encode %s at pc=%#x: %w", inst.Op, pc, err)
		}
		binary.LittleEndian.PutUint32(rom[pc-base:], word)
		if ln.loc != diag.NoLoc {
			trap.Record(pc, ln.loc)
		}
		pc += 4
	}

	symbols := map[string]uint32{}
	for name, a := range labelAddr {
		if fn, ok := trimFuncLabel(name); ok {
			symbols[fn] = a
		}
	}
	return &Linked{Rom: rom, Symbols: symbols, TrapTable: trap}, nil
}

const funcLabelPrefix = "func:"

func funcLabel(name string) string { return funcLabelPrefix + name }

func trimFuncLabel(label string) (string, bool) {
	if len(label) > len(funcLabelPrefix) && label[:len(funcLabelPrefix)] == funcLabelPrefix {
		return label[len(funcLabelPrefix):], true
	}
	return "", false
}
