package rv32_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/rv32"
)

// roundTrip32 encodes i, decodes the result back, and asserts the
// mnemonic and operands are recovered exactly (Property 1, spec.md §8).
func roundTrip32(t *testing.T, i rv32.Inst) {
	t.Helper()
	i.Size = 4
	word, err := rv32.Encode(i)
	require.NoError(t, err)

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], word)
	got, err := rv32.Decode(0, buf[:])
	require.NoError(t, err)

	require.Equal(t, i.Op, got.Op)
	require.Equal(t, i.Rd, got.Rd)
	require.Equal(t, i.Rs1, got.Rs1)
	require.Equal(t, i.Rs2, got.Rs2)
	require.Equal(t, i.Imm, got.Imm)
	require.EqualValues(t, 4, got.Size)
}

func TestRoundTripRType(t *testing.T) {
	cases := []rv32.Op{
		rv32.OpAdd, rv32.OpSub, rv32.OpSlt, rv32.OpSltu, rv32.OpAnd, rv32.OpOr,
		rv32.OpXor, rv32.OpSll, rv32.OpSrl, rv32.OpSra,
		rv32.OpMul, rv32.OpMulh, rv32.OpMulhsu, rv32.OpMulhu,
		rv32.OpDiv, rv32.OpDivu, rv32.OpRem, rv32.OpRemu,
		rv32.OpMin, rv32.OpMax, rv32.OpMinu, rv32.OpMaxu,
		rv32.OpAndn, rv32.OpOrn, rv32.OpXnor,
		rv32.OpRol, rv32.OpRor,
		rv32.OpSh1add, rv32.OpSh2add, rv32.OpSh3add,
		rv32.OpBclr, rv32.OpBset, rv32.OpBinv, rv32.OpBext,
	}
	for _, op := range cases {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			roundTrip32(t, rv32.Inst{Op: op, Rd: 5, Rs1: 6, Rs2: 7})
		})
	}
}

func TestRoundTripIType(t *testing.T) {
	cases := []rv32.Op{rv32.OpAddi, rv32.OpSlti, rv32.OpSltiu, rv32.OpAndi, rv32.OpOri, rv32.OpXori}
	for _, op := range cases {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			roundTrip32(t, rv32.Inst{Op: op, Rd: 3, Rs1: 4, Imm: -17})
		})
	}
}

func TestRoundTripShiftImm(t *testing.T) {
	for _, op := range []rv32.Op{rv32.OpSlli, rv32.OpSrli, rv32.OpSrai} {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			i := rv32.Inst{Op: op, Rd: 10, Rs1: 11, Shamt: 13, Size: 4}
			word, err := rv32.Encode(i)
			require.NoError(t, err)
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], word)
			got, err := rv32.Decode(0, buf[:])
			require.NoError(t, err)
			require.Equal(t, op, got.Op)
			require.EqualValues(t, 13, got.Shamt)
		})
	}
}

func TestRoundTripLoadStore(t *testing.T) {
	loads := []rv32.Op{rv32.OpLb, rv32.OpLh, rv32.OpLw, rv32.OpLbu, rv32.OpLhu}
	for _, op := range loads {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			roundTrip32(t, rv32.Inst{Op: op, Rd: 9, Rs1: 2, Imm: 24})
		})
	}
	stores := []rv32.Op{rv32.OpSb, rv32.OpSh, rv32.OpSw}
	for _, op := range stores {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			i := rv32.Inst{Op: op, Rs1: 2, Rs2: 9, Imm: -8, Size: 4}
			word, err := rv32.Encode(i)
			require.NoError(t, err)
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], word)
			got, err := rv32.Decode(0, buf[:])
			require.NoError(t, err)
			require.Equal(t, op, got.Op)
			require.Equal(t, i.Rs1, got.Rs1)
			require.Equal(t, i.Rs2, got.Rs2)
			require.Equal(t, i.Imm, got.Imm)
		})
	}
}

func TestRoundTripBranch(t *testing.T) {
	ops := []rv32.Op{rv32.OpBeq, rv32.OpBne, rv32.OpBlt, rv32.OpBge, rv32.OpBltu, rv32.OpBgeu}
	for _, op := range ops {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			roundTrip32(t, rv32.Inst{Op: op, Rs1: 5, Rs2: 6, Imm: 256})
		})
	}
}

func TestRoundTripJumpAndUpperImm(t *testing.T) {
	roundTrip32(t, rv32.Inst{Op: rv32.OpJal, Rd: 1, Imm: 2048})
	roundTrip32(t, rv32.Inst{Op: rv32.OpJalr, Rd: 1, Rs1: 5, Imm: -4})
	roundTrip32(t, rv32.Inst{Op: rv32.OpLui, Rd: 7, Imm: 0x12345000})
	roundTrip32(t, rv32.Inst{Op: rv32.OpAuipc, Rd: 7, Imm: 0x12345000})
}

func TestRoundTripAmo(t *testing.T) {
	ops := []rv32.Op{rv32.OpLrW, rv32.OpScW, rv32.OpAmoswapW, rv32.OpAmoaddW, rv32.OpAmoxorW, rv32.OpAmoandW, rv32.OpAmoorW}
	for _, op := range ops {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			i := rv32.Inst{Op: op, Rd: 5, Rs1: 10, Rs2: 11, Aq: true, Size: 4}
			word, err := rv32.Encode(i)
			require.NoError(t, err)
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], word)
			got, err := rv32.Decode(0, buf[:])
			require.NoError(t, err)
			require.Equal(t, op, got.Op)
			require.True(t, got.Aq)
		})
	}
}

func roundTripC(t *testing.T, i rv32.Inst) rv32.Inst {
	t.Helper()
	i.Size = 2
	word, err := rv32.Encode(i)
	require.NoError(t, err)

	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(word))
	got, err := rv32.Decode(0, buf[:])
	require.NoError(t, err)
	require.Equal(t, i.Op, got.Op)
	require.EqualValues(t, 2, got.Size)
	return got
}

func TestRoundTripCompressed(t *testing.T) {
	roundTripC(t, rv32.Inst{Op: rv32.OpCAddi, Rd: 5, Imm: -3})
	roundTripC(t, rv32.Inst{Op: rv32.OpCLi, Rd: 5, Imm: 10})
	got := roundTripC(t, rv32.Inst{Op: rv32.OpCLw, Rd: 9, Rs1: 10, Imm: 12})
	require.EqualValues(t, 9, got.Rd)
	require.EqualValues(t, 10, got.Rs1)
	require.EqualValues(t, 12, got.Imm)
	roundTripC(t, rv32.Inst{Op: rv32.OpCSw, Rs1: 10, Rs2: 9, Imm: 12})
	roundTripC(t, rv32.Inst{Op: rv32.OpCJ, Imm: -100})
	roundTripC(t, rv32.Inst{Op: rv32.OpCBeqz, Rs1: 9, Imm: 32})
	roundTripC(t, rv32.Inst{Op: rv32.OpCBnez, Rs1: 9, Imm: -32})
	roundTripC(t, rv32.Inst{Op: rv32.OpCMv, Rd: 5, Rs2: 6})
	roundTripC(t, rv32.Inst{Op: rv32.OpCAdd, Rd: 5, Rs2: 6})
	roundTripC(t, rv32.Inst{Op: rv32.OpCJr, Rs1: 5})
	roundTripC(t, rv32.Inst{Op: rv32.OpCEbreak})
}
