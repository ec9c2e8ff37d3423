package emu_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/rv32"
	"github.com/lightplayer/lightplayer/internal/rv32/emu"
)

func assembleROM(t *testing.T, insts ...rv32.Inst) []byte {
	t.Helper()
	var rom []byte
	for _, i := range insts {
		word, err := rv32.Encode(i)
		require.NoError(t, err)
		if i.Size == 2 {
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], uint16(word))
			rom = append(rom, b[:]...)
		} else {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], word)
			rom = append(rom, b[:]...)
		}
	}
	return rom
}

func newTestHart(t *testing.T, insts ...rv32.Inst) *emu.Hart {
	t.Helper()
	rom := assembleROM(t, insts...)
	mem := emu.NewMemory(rom, 0)
	return emu.NewHart(mem, nil)
}

func TestX0AlwaysZero(t *testing.T) {
	h := newTestHart(t,
		rv32.Inst{Op: rv32.OpAddi, Rd: 0, Rs1: 0, Imm: 42, Size: 4},
		rv32.Inst{Op: rv32.OpEbreak, Size: 4},
	)
	_, err := h.Run(0)
	require.NoError(t, err)
	require.EqualValues(t, 0, h.Reg(0))
}

func TestDivByZero(t *testing.T) {
	h := newTestHart(t,
		rv32.Inst{Op: rv32.OpAddi, Rd: 5, Rs1: 0, Imm: 7, Size: 4},
		rv32.Inst{Op: rv32.OpAddi, Rd: 6, Rs1: 0, Imm: 0, Size: 4},
		rv32.Inst{Op: rv32.OpDiv, Rd: 7, Rs1: 5, Rs2: 6, Size: 4},
		rv32.Inst{Op: rv32.OpRem, Rd: 8, Rs1: 5, Rs2: 6, Size: 4},
		rv32.Inst{Op: rv32.OpDivu, Rd: 9, Rs1: 5, Rs2: 6, Size: 4},
		rv32.Inst{Op: rv32.OpRemu, Rd: 10, Rs1: 5, Rs2: 6, Size: 4},
		rv32.Inst{Op: rv32.OpEbreak, Size: 4},
	)
	_, err := h.Run(0)
	require.NoError(t, err)
	require.EqualValues(t, 0xFFFFFFFF, h.Reg(7))
	require.EqualValues(t, 7, h.Reg(8))
	require.EqualValues(t, 0xFFFFFFFF, h.Reg(9))
	require.EqualValues(t, 7, h.Reg(10))
}

func TestDivOverflow(t *testing.T) {
	h := newTestHart(t,
		rv32.Inst{Op: rv32.OpLui, Rd: 5, Imm: -2147483648, Size: 4},
		rv32.Inst{Op: rv32.OpAddi, Rd: 6, Rs1: 0, Imm: -1, Size: 4},
		rv32.Inst{Op: rv32.OpDiv, Rd: 7, Rs1: 5, Rs2: 6, Size: 4},
		rv32.Inst{Op: rv32.OpRem, Rd: 8, Rs1: 5, Rs2: 6, Size: 4},
		rv32.Inst{Op: rv32.OpEbreak, Size: 4},
	)
	_, err := h.Run(0)
	require.NoError(t, err)
	require.EqualValues(t, 0x80000000, h.Reg(7))
	require.EqualValues(t, 0, h.Reg(8))
}

func TestInstructionLimitExceeded(t *testing.T) {
	h := newTestHart(t,
		rv32.Inst{Op: rv32.OpJal, Rd: 0, Imm: 0, Size: 4},
	)
	_, err := h.Run(10)
	require.Error(t, err)
	trap, ok := err.(*emu.Trap)
	require.True(t, ok)
	require.Equal(t, emu.TrapInstructionLimitExceeded, trap.Kind)
}

func TestUnalignedAccessTraps(t *testing.T) {
	h := newTestHart(t,
		rv32.Inst{Op: rv32.OpAddi, Rd: 5, Rs1: 0, Imm: 1, Size: 4},
		rv32.Inst{Op: rv32.OpLw, Rd: 6, Rs1: 5, Imm: 0, Size: 4},
	)
	_, err := h.Run(0)
	require.Error(t, err)
	trap, ok := err.(*emu.Trap)
	require.True(t, ok)
	require.Equal(t, emu.TrapUnalignedAccess, trap.Kind)
	require.NotZero(t, trap.PC)
}

func TestCompressedProgramRuns(t *testing.T) {
	h := newTestHart(t,
		rv32.Inst{Op: rv32.OpCLi, Rd: 5, Imm: 10, Size: 2},
		rv32.Inst{Op: rv32.OpCAddi, Rd: 5, Rs1: 5, Imm: 5, Size: 2},
		rv32.Inst{Op: rv32.OpCEbreak, Size: 2},
	)
	_, err := h.Run(0)
	require.NoError(t, err)
	require.EqualValues(t, 15, h.Reg(5))
}
