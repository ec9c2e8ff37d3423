package codegen

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/glsl/diag"
	"github.com/lightplayer/lightplayer/internal/glsl/q32"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
	"github.com/lightplayer/lightplayer/internal/rv32"
	"github.com/lightplayer/lightplayer/internal/rv32/emu"
)

// Object is a fully assembled GLSL program: raw ROM bytes ready to hand to
// emu.NewMemory, a symbol table mapping every user and runtime function
// name to its entry address, and the trap/source table diag.RenderTrap needs
// to turn an emulator Trap into a developer-facing report (spec.md §4.3,
// §7).
type Object struct {
	Rom       []byte
	Symbols   map[string]uint32
	TrapTable *diag.TrapSourceTable

	// HaltAddr is the address of a trampoline `ebreak` every compiled
	// function's `ret` can be pointed at (by the caller seeding x1/ra
	// before the first call) so execution cleanly halts instead of
	// jumping to garbage once the top-level shader function returns.
	HaltAddr uint32
}

const haltFuncName = "__lp_halt"

// Compile lowers every function in funcs (already through q32.Transform)
// into one linked RV32 object, alongside the runtime support library every
// shader implicitly depends on.
func Compile(funcs []*ssa.Function) (*Object, error) {
	all := map[string][]line{}
	var order []string

	for _, f := range funcs {
		lines, err := lowerFunction(f)
		if err != nil {
			return nil, err
		}
		all[funcLabel(f.Name)] = lines
		order = append(order, funcLabel(f.Name))
	}

	runtimeLines, err := runtimeFunctionLines()
	if err != nil {
		return nil, fmt.Errorf("codegen: building runtime library: %w", err)
	}
	// Iterate q32.RuntimeFunctionNames rather than the map directly so ROM
	// layout is deterministic across compiles of the same program.
	for _, name := range q32.RuntimeFunctionNames {
		lines, ok := runtimeLines[name]
		if !ok {
			continue
		}
		lbl := funcLabel(name)
		if _, exists := all[lbl]; exists {
			// A user function collided with a reserved runtime helper
			// name; sema is expected to have already rejected this, but
			// codegen doesn't re-trust that and keeps the user's own
			// definition rather than silently shadowing it.
			continue
		}
		all[lbl] = lines
		order = append(order, lbl)
	}

	haltLines := []line{
		{isLabel: true, label: funcLabel(haltFuncName)},
		{inst: rv32.Inst{Op: rv32.OpEbreak, Size: 4}},
	}
	all[funcLabel(haltFuncName)] = haltLines
	order = append(order, funcLabel(haltFuncName))

	linked, err := assemble(emu.RomBase, all, order)
	if err != nil {
		return nil, err
	}
	haltAddr, ok := linked.Symbols[haltFuncName]
	if !ok {
		return nil, fmt.Errorf("codegen: internal error: halt trampoline not assembled")
	}
	return &Object{
		Rom:       linked.Rom,
		Symbols:   linked.Symbols,
		TrapTable: linked.TrapTable,
		HaltAddr:  haltAddr,
	}, nil
}
