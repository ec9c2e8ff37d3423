// Package rvexec implements the emulator executable backend spec.md §4.4
// describes: it holds a compiled codegen.Object, the per-function
// signatures sema produced, and an rv32/emu.Hart+Memory pair, and drives a
// call the same way the emulator backend there does — marshal args into
// a0..a7 (+stack), seed ra with the halt trampoline, run, unmarshal the
// result.
package rvexec

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lightplayer/lightplayer/internal/glsl/codegen"
	"github.com/lightplayer/lightplayer/internal/glsl/diag"
	"github.com/lightplayer/lightplayer/internal/glsl/exec"
	"github.com/lightplayer/lightplayer/internal/glsl/q32"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
	"github.com/lightplayer/lightplayer/internal/rv32"
	"github.com/lightplayer/lightplayer/internal/rv32/emu"
)

// maxRegArgs mirrors codegen's calling convention (a0..a7 before spilling
// to the stack overflow area); kept in sync by hand since rvexec sits on
// the other side of the ABI codegen defines and doesn't import codegen's
// unexported frame-layout internals.
const maxRegArgs = 8

// Executable hosts a compiled GLSL object in the RV32 emulator, implementing
// exec.GlslExecutable.
type Executable struct {
	obj     *codegen.Object
	sigs    map[string]types.FunctionSignature
	source  string
	locMgr  *diag.SourceLocManager
	sampler exec.Sampler
	log     *log.Logger
	mem     *emu.Memory
}

// New builds an Executable around a linked object and the signatures of
// every function it exports. source/locMgr are used only to render
// trap reports with surrounding GLSL source; both may be left zero-valued
// if that's not needed.
func New(obj *codegen.Object, sigs []types.FunctionSignature, sampler exec.Sampler, source string, locMgr *diag.SourceLocManager, logger *log.Logger) *Executable {
	sigMap := make(map[string]types.FunctionSignature, len(sigs))
	for _, s := range sigs {
		sigMap[s.Name] = s
	}
	return &Executable{
		obj:     obj,
		sigs:    sigMap,
		source:  source,
		locMgr:  locMgr,
		sampler: sampler,
		log:     logger,
		mem:     emu.NewMemory(obj.Rom, emu.DefaultRamSize),
	}
}

func (e *Executable) FunctionSignature(name string) (types.FunctionSignature, bool) {
	s, ok := e.sigs[name]
	return s, ok
}

func (e *Executable) ListFunctions() []string {
	names := make([]string, 0, len(e.sigs))
	for n := range e.sigs {
		names = append(names, n)
	}
	return names
}

// call performs one raw entry into the emulator for fn, writing words
// (already including a leading struct-return pointer if the signature
// needs one) into the ABI's registers/overflow area, running to
// completion, and returning (a0Result, structBuf, err). structBuf is nil
// unless structSize > 0.
func (e *Executable) call(fn string, words []int32, structSize int) (int32, []int32, error) {
	addr, ok := e.obj.Symbols[fn]
	if !ok {
		return 0, nil, &exec.ErrUnknownFunction{Name: fn}
	}

	e.mem.ResetArena()
	var structAddr uint32
	if structSize > 0 {
		a, err := e.mem.AllocStructReturn(uint32(structSize) * 4)
		if err != nil {
			return 0, nil, err
		}
		structAddr = a
		words = append([]int32{int32(structAddr)}, words...)
	}

	h := emu.NewHart(e.mem, e.log)

	// Overflow arguments live just above the callee's own frame, at
	// callerSp+(argIndex-8)*4 (frame.go's incomingOverflowOffset) — the
	// same spot a generated caller reserves at the bottom of its own
	// frame before a call. There is no generated caller here, so carve
	// that reservation out of the initial stack pointer ourselves,
	// 16-byte aligned to match frameSize's own alignment.
	sp := h.Reg(2)
	overflowWords := 0
	if len(words) > maxRegArgs {
		overflowWords = len(words) - maxRegArgs
	}
	overflowBytes := (uint32(overflowWords)*4 + 15) &^ 15
	sp -= overflowBytes

	for i, w := range words {
		if i < maxRegArgs {
			h.SetReg(rv32.Gpr(10+i), uint32(w))
			continue
		}
		if err := e.mem.Write32(sp+uint32((i-maxRegArgs)*4), uint32(w)); err != nil {
			return 0, nil, err
		}
	}
	h.SetReg(2, sp)
	h.SetReg(1, e.obj.HaltAddr) // ra: return here halts cleanly
	h.PC = addr
	h.SyscallHandler = e.handleSyscall

	if _, err := h.Run(emu.DefaultInstructionBudget); err != nil {
		return 0, nil, e.renderTrap(err)
	}

	var buf []int32
	if structSize > 0 {
		buf = make([]int32, structSize)
		for i := range buf {
			w, err := e.mem.Read32(structAddr + uint32(i*4))
			if err != nil {
				return 0, nil, err
			}
			buf[i] = int32(w)
		}
	}
	return int32(h.Reg(10)), buf, nil
}

// handleSyscall services __lp_sample's ecall: a0=texture handle, a1/a2 =
// Q16.16 u/v, a3 = channel, result written back into a0 as Q16.16.
func (e *Executable) handleSyscall(h *emu.Hart) error {
	handle := h.Reg(10)
	u := q32.ToFloat(int32(h.Reg(11)))
	v := q32.ToFloat(int32(h.Reg(12)))
	channel := uint8(h.Reg(13))
	if e.sampler == nil {
		h.SetReg(10, uint32(q32.FromFloat(0)))
		return nil
	}
	val, err := e.sampler.Sample(handle, float32(u), float32(v), channel)
	if err != nil {
		return err
	}
	h.SetReg(10, uint32(q32.FromFloat(float64(val))))
	return nil
}

func (e *Executable) renderTrap(err error) error {
	t, ok := err.(*emu.Trap)
	if !ok {
		return err
	}
	report := diag.RenderTrap(t.Kind.String(), t.PC, t.Regs, t.Error(), e.obj.TrapTable, e.locMgr, e.source)
	return fmt.Errorf("%s", report.String())
}

func (e *Executable) CallVoid(name string, args []exec.Value) error {
	sig, ok := e.sigs[name]
	if !ok {
		return &exec.ErrUnknownFunction{Name: name}
	}
	if !sig.Ret.IsVoid() {
		return &exec.ErrReturnKind{Name: name, Want: "void", Have: sig.Ret.String()}
	}
	_, _, err := e.call(name, exec.MachineArgs(args), 0)
	return err
}

func (e *Executable) CallI32(name string, args []exec.Value) (int32, error) {
	sig, ok := e.sigs[name]
	if !ok {
		return 0, &exec.ErrUnknownFunction{Name: name}
	}
	if !sig.Ret.IsScalar() || sig.Ret.Kind == types.KindF32 {
		return 0, &exec.ErrReturnKind{Name: name, Want: "int/uint", Have: sig.Ret.String()}
	}
	r, _, err := e.call(name, exec.MachineArgs(args), 0)
	return r, err
}

func (e *Executable) CallF32(name string, args []exec.Value) (float32, error) {
	sig, ok := e.sigs[name]
	if !ok {
		return 0, &exec.ErrUnknownFunction{Name: name}
	}
	if !sig.Ret.IsScalar() || sig.Ret.Kind != types.KindF32 {
		return 0, &exec.ErrReturnKind{Name: name, Want: "float", Have: sig.Ret.String()}
	}
	r, _, err := e.call(name, exec.MachineArgs(args), 0)
	if err != nil {
		return 0, err
	}
	return float32(q32.ToFloat(r)), nil
}

func (e *Executable) CallBool(name string, args []exec.Value) (bool, error) {
	sig, ok := e.sigs[name]
	if !ok {
		return false, &exec.ErrUnknownFunction{Name: name}
	}
	if !sig.Ret.IsScalar() || sig.Ret.Kind != types.KindBool {
		return false, &exec.ErrReturnKind{Name: name, Want: "bool", Have: sig.Ret.String()}
	}
	r, _, err := e.call(name, exec.MachineArgs(args), 0)
	return r != 0, err
}

func (e *Executable) callAggregate(name string, args []exec.Value, dim int) ([]int32, error) {
	if _, ok := e.sigs[name]; !ok {
		return nil, &exec.ErrUnknownFunction{Name: name}
	}
	_, buf, err := e.call(name, exec.MachineArgs(args), dim)
	return buf, err
}

func (e *Executable) CallVec(name string, args []exec.Value, dim int) ([]float32, error) {
	buf, err := e.callAggregate(name, args, dim)
	if err != nil {
		return nil, err
	}
	out := make([]float32, dim)
	for i, w := range buf {
		out[i] = float32(q32.ToFloat(w))
	}
	return out, nil
}

func (e *Executable) CallIVec(name string, args []exec.Value, dim int) ([]int32, error) {
	return e.callAggregate(name, args, dim)
}

func (e *Executable) CallUVec(name string, args []exec.Value, dim int) ([]uint32, error) {
	buf, err := e.callAggregate(name, args, dim)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, dim)
	for i, w := range buf {
		out[i] = uint32(w)
	}
	return out, nil
}

func (e *Executable) CallBVec(name string, args []exec.Value, dim int) ([]bool, error) {
	buf, err := e.callAggregate(name, args, dim)
	if err != nil {
		return nil, err
	}
	out := make([]bool, dim)
	for i, w := range buf {
		out[i] = w != 0
	}
	return out, nil
}

func (e *Executable) CallMat(name string, args []exec.Value, rows, cols int) ([]float32, error) {
	return e.CallVec(name, args, rows*cols)
}

var _ exec.GlslExecutable = (*Executable)(nil)
