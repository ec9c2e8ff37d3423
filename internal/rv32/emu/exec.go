package emu

import (
	"math/bits"

	"github.com/lightplayer/lightplayer/internal/rv32"
)

// LogCategory classifies an InstLog entry per spec.md §4.2.
type LogCategory int

const (
	LogArithmetic LogCategory = iota
	LogLoad
	LogStore
	LogBranch
	LogJump
	LogImmediate
	LogSystem
)

// InstLog is a structured trace entry for one executed instruction. Step
// does not produce one: ExecutionResult.Log is always nil, and no
// per-instruction trace is written to the hart's logger.
type InstLog struct {
	Category LogCategory
	Op       rv32.Op
	PC       uint32
}

// ExecutionResult is the outcome of executing exactly one instruction.
type ExecutionResult struct {
	// NewPC is nil when the PC should simply advance by the
	// instruction's natural width; non-nil when a jump/branch changed
	// control flow explicitly.
	NewPC      *uint32
	ShouldHalt bool
	Syscall    bool
	Log        *InstLog
}

func jumpTo(pc uint32) *uint32 { return &pc }

// Step decodes and executes exactly one instruction at h.PC, advances PC
// per the result, and returns what happened.
func (h *Hart) Step() (ExecutionResult, error) {
	raw, err := h.Mem.ReadBytes(h.PC, 4)
	if err != nil {
		// A 2-byte compressed instruction may legally sit at the last
		// two bytes of a region; retry with a 2-byte read before
		// treating this as a fault.
		raw, err = h.Mem.ReadBytes(h.PC, 2)
		if err != nil {
			return ExecutionResult{}, h.fault(err)
		}
	}
	inst, err := rv32.Decode(h.PC, raw)
	if err != nil {
		return ExecutionResult{}, h.fault(err)
	}
	res, err := h.execute(inst)
	if err != nil {
		return ExecutionResult{}, h.fault(err)
	}
	if res.NewPC != nil {
		h.PC = *res.NewPC & ^uint32(1) // clear bit 0: C-mode alignment, never a trap
	} else {
		h.PC += inst.NaturalWidth()
	}
	return res, nil
}

func (h *Hart) execute(i rv32.Inst) (ExecutionResult, error) {
	switch i.Op {
	// ---- register-register ALU ----
	case rv32.OpAdd, rv32.OpCAdd:
		h.SetReg(i.Rd, h.Reg(i.Rs1)+h.Reg(i.Rs2))
	case rv32.OpSub, rv32.OpCSub:
		h.SetReg(i.Rd, h.Reg(i.Rs1)-h.Reg(i.Rs2))
	case rv32.OpSlt:
		h.SetReg(i.Rd, boolToU32(int32(h.Reg(i.Rs1)) < int32(h.Reg(i.Rs2))))
	case rv32.OpSltu:
		h.SetReg(i.Rd, boolToU32(h.Reg(i.Rs1) < h.Reg(i.Rs2)))
	case rv32.OpAnd, rv32.OpCAnd:
		h.SetReg(i.Rd, h.Reg(i.Rs1)&h.Reg(i.Rs2))
	case rv32.OpOr, rv32.OpCOr:
		h.SetReg(i.Rd, h.Reg(i.Rs1)|h.Reg(i.Rs2))
	case rv32.OpXor, rv32.OpCXor:
		h.SetReg(i.Rd, h.Reg(i.Rs1)^h.Reg(i.Rs2))
	case rv32.OpSll:
		h.SetReg(i.Rd, h.Reg(i.Rs1)<<(h.Reg(i.Rs2)&0x1F))
	case rv32.OpSrl:
		h.SetReg(i.Rd, h.Reg(i.Rs1)>>(h.Reg(i.Rs2)&0x1F))
	case rv32.OpSra:
		h.SetReg(i.Rd, uint32(int32(h.Reg(i.Rs1))>>(h.Reg(i.Rs2)&0x1F)))

	// ---- register-immediate ALU ----
	case rv32.OpAddi, rv32.OpCAddi, rv32.OpCAddi16sp, rv32.OpCAddi4spn:
		h.SetReg(i.Rd, h.Reg(i.Rs1)+uint32(i.Imm))
	case rv32.OpSlti:
		h.SetReg(i.Rd, boolToU32(int32(h.Reg(i.Rs1)) < i.Imm))
	case rv32.OpSltiu:
		h.SetReg(i.Rd, boolToU32(h.Reg(i.Rs1) < uint32(i.Imm)))
	case rv32.OpAndi, rv32.OpCAndi:
		h.SetReg(i.Rd, h.Reg(i.Rs1)&uint32(i.Imm))
	case rv32.OpOri:
		h.SetReg(i.Rd, h.Reg(i.Rs1)|uint32(i.Imm))
	case rv32.OpXori:
		h.SetReg(i.Rd, h.Reg(i.Rs1)^uint32(i.Imm))
	case rv32.OpSlli, rv32.OpCSlli:
		h.SetReg(i.Rd, h.Reg(i.Rs1)<<(i.Shamt&0x1F))
	case rv32.OpSrli, rv32.OpCSrli:
		h.SetReg(i.Rd, h.Reg(i.Rs1)>>(i.Shamt&0x1F))
	case rv32.OpSrai, rv32.OpCSrai:
		h.SetReg(i.Rd, uint32(int32(h.Reg(i.Rs1))>>(i.Shamt&0x1F)))
	case rv32.OpCLi:
		h.SetReg(i.Rd, uint32(i.Imm))
	case rv32.OpCMv:
		h.SetReg(i.Rd, h.Reg(i.Rs2))
	case rv32.OpCNop:
		// no effect

	// ---- loads / stores ----
	case rv32.OpLb:
		v, err := h.Mem.Read8(h.Reg(i.Rs1) + uint32(i.Imm))
		if err != nil {
			return ExecutionResult{}, err
		}
		h.SetReg(i.Rd, uint32(int32(int8(v))))
	case rv32.OpLbu:
		v, err := h.Mem.Read8(h.Reg(i.Rs1) + uint32(i.Imm))
		if err != nil {
			return ExecutionResult{}, err
		}
		h.SetReg(i.Rd, uint32(v))
	case rv32.OpLh:
		v, err := h.Mem.Read16(h.Reg(i.Rs1) + uint32(i.Imm))
		if err != nil {
			return ExecutionResult{}, err
		}
		h.SetReg(i.Rd, uint32(int32(int16(v))))
	case rv32.OpLhu:
		v, err := h.Mem.Read16(h.Reg(i.Rs1) + uint32(i.Imm))
		if err != nil {
			return ExecutionResult{}, err
		}
		h.SetReg(i.Rd, uint32(v))
	case rv32.OpLw, rv32.OpCLw, rv32.OpCLwsp:
		v, err := h.Mem.Read32(h.Reg(i.Rs1) + uint32(i.Imm))
		if err != nil {
			return ExecutionResult{}, err
		}
		h.SetReg(i.Rd, v)
	case rv32.OpSb:
		if err := h.Mem.Write8(h.Reg(i.Rs1)+uint32(i.Imm), uint8(h.Reg(i.Rs2))); err != nil {
			return ExecutionResult{}, err
		}
	case rv32.OpSh:
		if err := h.Mem.Write16(h.Reg(i.Rs1)+uint32(i.Imm), uint16(h.Reg(i.Rs2))); err != nil {
			return ExecutionResult{}, err
		}
	case rv32.OpSw, rv32.OpCSw, rv32.OpCSwsp:
		if err := h.Mem.Write32(h.Reg(i.Rs1)+uint32(i.Imm), h.Reg(i.Rs2)); err != nil {
			return ExecutionResult{}, err
		}

	// ---- branches ----
	case rv32.OpBeq:
		if h.Reg(i.Rs1) == h.Reg(i.Rs2) {
			return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
		}
	case rv32.OpBne:
		if h.Reg(i.Rs1) != h.Reg(i.Rs2) {
			return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
		}
	case rv32.OpBlt:
		if int32(h.Reg(i.Rs1)) < int32(h.Reg(i.Rs2)) {
			return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
		}
	case rv32.OpBge:
		if int32(h.Reg(i.Rs1)) >= int32(h.Reg(i.Rs2)) {
			return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
		}
	case rv32.OpBltu:
		if h.Reg(i.Rs1) < h.Reg(i.Rs2) {
			return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
		}
	case rv32.OpBgeu:
		if h.Reg(i.Rs1) >= h.Reg(i.Rs2) {
			return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
		}
	case rv32.OpCBeqz:
		if h.Reg(i.Rs1) == 0 {
			return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
		}
	case rv32.OpCBnez:
		if h.Reg(i.Rs1) != 0 {
			return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
		}

	// ---- jumps ----
	case rv32.OpJal:
		h.SetReg(i.Rd, h.PC+4)
		return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
	case rv32.OpJalr:
		target := h.Reg(i.Rs1) + uint32(i.Imm)
		h.SetReg(i.Rd, h.PC+4)
		return ExecutionResult{NewPC: jumpTo(target)}, nil
	case rv32.OpCJ:
		return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
	case rv32.OpCJal:
		h.SetReg(1, h.PC+2)
		return ExecutionResult{NewPC: jumpTo(h.PC + uint32(i.Imm))}, nil
	case rv32.OpCJr:
		return ExecutionResult{NewPC: jumpTo(h.Reg(i.Rs1))}, nil
	case rv32.OpCJalr:
		target := h.Reg(i.Rs1)
		h.SetReg(1, h.PC+2)
		return ExecutionResult{NewPC: jumpTo(target)}, nil

	// ---- upper immediate ----
	case rv32.OpLui, rv32.OpCLui:
		h.SetReg(i.Rd, uint32(i.Imm))
	case rv32.OpAuipc:
		h.SetReg(i.Rd, h.PC+uint32(i.Imm))

	// ---- misc-mem / system ----
	case rv32.OpFence, rv32.OpFenceI:
		// single-hart: no-op
	case rv32.OpEcall:
		return ExecutionResult{Syscall: true}, nil
	case rv32.OpEbreak, rv32.OpCEbreak:
		return ExecutionResult{ShouldHalt: true}, nil
	case rv32.OpCsrrw, rv32.OpCsrrs, rv32.OpCsrrc, rv32.OpCsrrwi, rv32.OpCsrrsi, rv32.OpCsrrci:
		// No CSR file is modelled; reads yield zero, writes are
		// discarded. Shaders never observe CSR state.
		h.SetReg(i.Rd, 0)

	// ---- M extension ----
	case rv32.OpMul:
		h.SetReg(i.Rd, h.Reg(i.Rs1)*h.Reg(i.Rs2))
	case rv32.OpMulh:
		p := int64(int32(h.Reg(i.Rs1))) * int64(int32(h.Reg(i.Rs2)))
		h.SetReg(i.Rd, uint32(p>>32))
	case rv32.OpMulhsu:
		p := int64(int32(h.Reg(i.Rs1))) * int64(h.Reg(i.Rs2))
		h.SetReg(i.Rd, uint32(p>>32))
	case rv32.OpMulhu:
		p := uint64(h.Reg(i.Rs1)) * uint64(h.Reg(i.Rs2))
		h.SetReg(i.Rd, uint32(p>>32))
	case rv32.OpDiv:
		a, b := int32(h.Reg(i.Rs1)), int32(h.Reg(i.Rs2))
		h.SetReg(i.Rd, uint32(divSigned(a, b)))
	case rv32.OpDivu:
		a, b := h.Reg(i.Rs1), h.Reg(i.Rs2)
		if b == 0 {
			h.SetReg(i.Rd, 0xFFFFFFFF)
		} else {
			h.SetReg(i.Rd, a/b)
		}
	case rv32.OpRem:
		a, b := int32(h.Reg(i.Rs1)), int32(h.Reg(i.Rs2))
		h.SetReg(i.Rd, uint32(remSigned(a, b)))
	case rv32.OpRemu:
		a, b := h.Reg(i.Rs1), h.Reg(i.Rs2)
		if b == 0 {
			h.SetReg(i.Rd, a)
		} else {
			h.SetReg(i.Rd, a%b)
		}

	// ---- A extension (single-hart: ordinary RMW, sc.w always succeeds) ----
	case rv32.OpLrW:
		v, err := h.Mem.Read32(h.Reg(i.Rs1))
		if err != nil {
			return ExecutionResult{}, err
		}
		h.SetReg(i.Rd, v)
	case rv32.OpScW:
		if err := h.Mem.Write32(h.Reg(i.Rs1), h.Reg(i.Rs2)); err != nil {
			return ExecutionResult{}, err
		}
		h.SetReg(i.Rd, 0) // always succeeds
	case rv32.OpAmoswapW:
		old, err := h.amoLoad(i.Rs1)
		if err != nil {
			return ExecutionResult{}, err
		}
		if err := h.Mem.Write32(h.Reg(i.Rs1), h.Reg(i.Rs2)); err != nil {
			return ExecutionResult{}, err
		}
		h.SetReg(i.Rd, old)
	case rv32.OpAmoaddW:
		if err := h.amoRmw(i, func(a, b uint32) uint32 { return a + b }); err != nil {
			return ExecutionResult{}, err
		}
	case rv32.OpAmoxorW:
		if err := h.amoRmw(i, func(a, b uint32) uint32 { return a ^ b }); err != nil {
			return ExecutionResult{}, err
		}
	case rv32.OpAmoandW:
		if err := h.amoRmw(i, func(a, b uint32) uint32 { return a & b }); err != nil {
			return ExecutionResult{}, err
		}
	case rv32.OpAmoorW:
		if err := h.amoRmw(i, func(a, b uint32) uint32 { return a | b }); err != nil {
			return ExecutionResult{}, err
		}

	// ---- Zbs ----
	case rv32.OpBclr:
		h.SetReg(i.Rd, h.Reg(i.Rs1) &^ (1 << (h.Reg(i.Rs2) & 0x1F)))
	case rv32.OpBclri:
		h.SetReg(i.Rd, h.Reg(i.Rs1) &^ (1 << (i.Shamt & 0x1F)))
	case rv32.OpBset:
		h.SetReg(i.Rd, h.Reg(i.Rs1)|(1<<(h.Reg(i.Rs2)&0x1F)))
	case rv32.OpBseti:
		h.SetReg(i.Rd, h.Reg(i.Rs1)|(1<<(i.Shamt&0x1F)))
	case rv32.OpBinv:
		h.SetReg(i.Rd, h.Reg(i.Rs1)^(1<<(h.Reg(i.Rs2)&0x1F)))
	case rv32.OpBinvi:
		h.SetReg(i.Rd, h.Reg(i.Rs1)^(1<<(i.Shamt&0x1F)))
	case rv32.OpBext:
		h.SetReg(i.Rd, (h.Reg(i.Rs1)>>(h.Reg(i.Rs2)&0x1F))&1)
	case rv32.OpBexti:
		h.SetReg(i.Rd, (h.Reg(i.Rs1)>>(i.Shamt&0x1F))&1)

	// ---- Zbb ----
	case rv32.OpClz:
		h.SetReg(i.Rd, uint32(bits.LeadingZeros32(h.Reg(i.Rs1))))
	case rv32.OpCtz:
		h.SetReg(i.Rd, uint32(bits.TrailingZeros32(h.Reg(i.Rs1))))
	case rv32.OpCpop:
		h.SetReg(i.Rd, uint32(bits.OnesCount32(h.Reg(i.Rs1))))
	case rv32.OpSextB:
		h.SetReg(i.Rd, uint32(int32(int8(h.Reg(i.Rs1)))))
	case rv32.OpSextH:
		h.SetReg(i.Rd, uint32(int32(int16(h.Reg(i.Rs1)))))
	case rv32.OpZextH:
		h.SetReg(i.Rd, h.Reg(i.Rs1)&0xFFFF)
	case rv32.OpRol:
		h.SetReg(i.Rd, bits.RotateLeft32(h.Reg(i.Rs1), int(h.Reg(i.Rs2)&0x1F)))
	case rv32.OpRor:
		h.SetReg(i.Rd, bits.RotateLeft32(h.Reg(i.Rs1), -int(h.Reg(i.Rs2)&0x1F)))
	case rv32.OpRori:
		h.SetReg(i.Rd, bits.RotateLeft32(h.Reg(i.Rs1), -int(i.Shamt&0x1F)))
	case rv32.OpRev8:
		h.SetReg(i.Rd, bits.ReverseBytes32(h.Reg(i.Rs1)))
	case rv32.OpBrev8:
		v := h.Reg(i.Rs1)
		var out uint32
		for b := 0; b < 4; b++ {
			out |= uint32(bits.Reverse8(uint8(v>>(8*b)))) << (8 * b)
		}
		h.SetReg(i.Rd, out)
	case rv32.OpOrcB:
		v := h.Reg(i.Rs1)
		var out uint32
		for b := 0; b < 4; b++ {
			byt := uint8(v >> (8 * b))
			if byt != 0 {
				out |= 0xFF << (8 * b)
			}
		}
		h.SetReg(i.Rd, out)
	case rv32.OpMin:
		a, b := int32(h.Reg(i.Rs1)), int32(h.Reg(i.Rs2))
		if a < b {
			h.SetReg(i.Rd, uint32(a))
		} else {
			h.SetReg(i.Rd, uint32(b))
		}
	case rv32.OpMax:
		a, b := int32(h.Reg(i.Rs1)), int32(h.Reg(i.Rs2))
		if a > b {
			h.SetReg(i.Rd, uint32(a))
		} else {
			h.SetReg(i.Rd, uint32(b))
		}
	case rv32.OpMinu:
		a, b := h.Reg(i.Rs1), h.Reg(i.Rs2)
		if a < b {
			h.SetReg(i.Rd, a)
		} else {
			h.SetReg(i.Rd, b)
		}
	case rv32.OpMaxu:
		a, b := h.Reg(i.Rs1), h.Reg(i.Rs2)
		if a > b {
			h.SetReg(i.Rd, a)
		} else {
			h.SetReg(i.Rd, b)
		}
	case rv32.OpAndn:
		h.SetReg(i.Rd, h.Reg(i.Rs1)&^h.Reg(i.Rs2))
	case rv32.OpOrn:
		h.SetReg(i.Rd, h.Reg(i.Rs1)|^h.Reg(i.Rs2))
	case rv32.OpXnor:
		h.SetReg(i.Rd, ^(h.Reg(i.Rs1) ^ h.Reg(i.Rs2)))

	// ---- Zba ----
	case rv32.OpSh1add:
		h.SetReg(i.Rd, (h.Reg(i.Rs1)<<1)+h.Reg(i.Rs2))
	case rv32.OpSh2add:
		h.SetReg(i.Rd, (h.Reg(i.Rs1)<<2)+h.Reg(i.Rs2))
	case rv32.OpSh3add:
		h.SetReg(i.Rd, (h.Reg(i.Rs1)<<3)+h.Reg(i.Rs2))
	case rv32.OpSlliUw:
		h.SetReg(i.Rd, h.Reg(i.Rs1)<<(i.Shamt&0x1F))

	default:
		return ExecutionResult{}, &Trap{Kind: TrapIllegalInstruction, Message: "unimplemented op"}
	}

	return ExecutionResult{}, nil
}

func (h *Hart) amoLoad(rs1 rv32.Gpr) (uint32, error) {
	return h.Mem.Read32(h.Reg(rs1))
}

func (h *Hart) amoRmw(i rv32.Inst, f func(old, operand uint32) uint32) error {
	old, err := h.Mem.Read32(h.Reg(i.Rs1))
	if err != nil {
		return err
	}
	if err := h.Mem.Write32(h.Reg(i.Rs1), f(old, h.Reg(i.Rs2))); err != nil {
		return err
	}
	h.SetReg(i.Rd, old)
	return nil
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// divSigned implements RISC-V div semantics (spec.md §4.2, Property 3):
// division by zero yields -1; INT_MIN / -1 yields INT_MIN (no trap).
func divSigned(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == -2147483648 && b == -1 {
		return a
	}
	return a / b
}

// remSigned implements RISC-V rem semantics: rem(a, 0) == a;
// rem(INT_MIN, -1) == 0.
func remSigned(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == -2147483648 && b == -1 {
		return 0
	}
	return a % b
}
