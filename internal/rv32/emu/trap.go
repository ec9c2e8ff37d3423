// Package emu implements a single-hart software interpreter for the
// RV32IMAC instruction set decoded by internal/rv32. It is deliberately
// single-threaded: one Hart owns its Memory exclusively, matching the
// project runtime's single-threaded cooperative scheduling model
// (SPEC_FULL.md §5).
package emu

import "fmt"

// TrapKind discriminates the small, exhaustive trap taxonomy surfaced by
// the executor. Every trap enriches itself with the PC and register file
// at the moment of fault before propagating, so the GLSL compiler's error
// path always has a full state dump to render (spec.md §4.2, §7).
type TrapKind int

const (
	TrapIllegalInstruction TrapKind = iota
	TrapInvalidMemoryAccess
	TrapUnalignedAccess
	TrapDivideTrap // reserved: RISC-V division never traps, kept for completeness of the taxonomy
	TrapInstructionLimitExceeded
)

func (k TrapKind) String() string {
	switch k {
	case TrapIllegalInstruction:
		return "illegal-instruction"
	case TrapInvalidMemoryAccess:
		return "invalid-memory-access"
	case TrapUnalignedAccess:
		return "unaligned-access"
	case TrapInstructionLimitExceeded:
		return "instruction-limit-exceeded"
	default:
		return "trap"
	}
}

// Trap is the rich error returned by the executor on any fault. It always
// carries PC and a snapshot of the register file (Property 8, spec.md §8).
type Trap struct {
	Kind    TrapKind
	PC      uint32
	Regs    [32]uint32
	Addr    uint32 // meaningful for memory traps
	Message string
}

func (t *Trap) Error() string {
	if t.Message != "" {
		return fmt.Sprintf("%s at pc=%#08x: %s", t.Kind, t.PC, t.Message)
	}
	return fmt.Sprintf("%s at pc=%#08x addr=%#08x", t.Kind, t.PC, t.Addr)
}

// WithState returns a copy of t with PC and Regs set to pc/regs, replacing
// any hart state t already carried — the "enriched-context" discipline described in
// DESIGN.md: a lower layer (Memory) raises a bare fault, and the first
// caller that has access to hart state (the executor) fills it in.
func (t *Trap) WithState(pc uint32, regs [32]uint32) *Trap {
	cp := *t
	cp.PC = pc
	cp.Regs = regs
	return &cp
}

// memFault is the bare error Memory raises; it has no hart context yet.
type memFault struct {
	kind TrapKind
	addr uint32
}

func (m *memFault) Error() string { return fmt.Sprintf("%s addr=%#08x", m.kind, m.addr) }

func (m *memFault) toTrap() *Trap {
	return &Trap{Kind: m.kind, Addr: m.addr}
}
