package emu

import (
	"github.com/charmbracelet/log"

	"github.com/lightplayer/lightplayer/internal/rv32"
)

// DefaultInstructionBudget bounds a single call into the emulator so an
// ill-formed shader cannot hang a tick indefinitely (spec.md §5, §9 Open
// Questions: "pick a value ... document it"). Two million instructions is
// comfortably more than any legitimate per-frame shader needs at a few
// hundred instructions per pixel on a few-thousand-pixel texture, while
// still bounding worst case latency to a handful of milliseconds.
const DefaultInstructionBudget = 2_000_000

// Hart is a single RISC-V hardware thread: PC, 32 general registers (x0
// wired to zero), and the memory it exclusively owns. Mirrors spec.md
// §3.2; modelled after cpu_ie32.go's register-file-plus-bus shape.
type Hart struct {
	PC  uint32
	X   [32]uint32
	Mem *Memory

	log *log.Logger

	// SyscallHandler, when non-nil, is called by Run after each ecall
	// (the emulator backend services __lp_sample this way, per
	// SPEC_FULL.md §4.9). An error it returns stops Run.
	SyscallHandler func(h *Hart) error
}

// NewHart creates a hart bound to mem, with PC at 0 (callers set it to the
// entry address) and sp initialised to the top of RAM (spec.md §3.2: "initial sp near top of RAM").
func NewHart(mem *Memory, logger *log.Logger) *Hart {
	h := &Hart{Mem: mem, log: logger}
	h.X[2] = mem.InitialStackPointer() // x2 = sp
	return h
}

func (h *Hart) component() *log.Logger {
	if h.log == nil {
		return log.Default()
	}
	return h.log
}

// Reg reads register i, returning 0 for x0 regardless of its stored value.
func (h *Hart) Reg(i rv32.Gpr) uint32 {
	if i.IsZero() {
		return 0
	}
	return h.X[i]
}

// SetReg writes register i unless it is x0 (spec.md §4.2 "x0 discipline").
func (h *Hart) SetReg(i rv32.Gpr, v uint32) {
	if !i.IsZero() {
		h.X[i] = v
	}
}

// Snapshot copies the current register file, for embedding in a Trap.
func (h *Hart) Snapshot() [32]uint32 {
	var r [32]uint32
	copy(r[:], h.X[:])
	r[0] = 0
	return r
}

// fault converts a bare memory/decode fault into a fully enriched Trap
// carrying the current PC and register snapshot.
func (h *Hart) fault(err error) error {
	switch e := err.(type) {
	case *memFault:
		return e.toTrap().WithState(h.PC, h.Snapshot())
	case *rv32.ErrIllegalInstruction:
		return (&Trap{Kind: TrapIllegalInstruction, Message: e.Error()}).WithState(h.PC, h.Snapshot())
	case *Trap:
		return e.WithState(h.PC, h.Snapshot())
	default:
		return err
	}
}

// Run executes instructions until should_halt, a trap, or the instruction
// budget is exhausted — whichever comes first. An ecall calls
// SyscallHandler when one is set and is otherwise ignored; either way
// execution continues unless the handler returns an error. It returns the
// total instruction count executed.
func (h *Hart) Run(budget uint64) (uint64, error) {
	if budget == 0 {
		budget = DefaultInstructionBudget
	}
	var n uint64
	for n < budget {
		res, err := h.Step()
		n++
		if err != nil {
			return n, err
		}
		if res.Syscall {
			if h.SyscallHandler != nil {
				if err := h.SyscallHandler(h); err != nil {
					return n, h.fault(err)
				}
			}
		}
		if res.ShouldHalt {
			return n, nil
		}
	}
	return n, h.fault(&Trap{Kind: TrapInstructionLimitExceeded, Message: "instruction budget exhausted"})
}
