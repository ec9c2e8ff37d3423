package rv32

// Base opcode field (bits [6:2], already shifted out of the 2-bit
// quadrant marker that distinguishes 16 vs 32-bit encodings).
const (
	baseLoad     = 0x00
	baseMiscMem  = 0x03
	baseOpImm    = 0x04
	baseAuipc    = 0x05
	baseStore    = 0x08
	baseAmo      = 0x0B
	baseOp       = 0x0C
	baseLui      = 0x0D
	baseBranch   = 0x18
	baseJalr     = 0x19
	baseJal      = 0x1B
	baseSystem   = 0x1C
)

// funct7 codes used on the OP/OP-IMM opcodes to select the M extension and
// the Zba/Zbb/Zbs bit-manipulation subsets layered alongside the base ALU
// ops. These follow the shape of the official RISC-V bit-manipulation
// encoding (funct7 discriminates a "family", funct3 and rs2 pick the
// member) without claiming byte-for-byte toolchain compatibility — only
// internal decode/encode/execute consistency is required here.
const (
	f7Base    = 0x00
	f7Alt     = 0x20 // SUB/SRA/funct7=0100000 family (SUB, SRA, Zbb andn/orn/xnor, rol/ror family share 0110000)
	f7MulDiv  = 0x01
	f7MinMax  = 0x05
	f7ShAdd   = 0x10 // Zba sh1add/sh2add/sh3add
	f7RotClz  = 0x30 // Zbb rol/ror/clz/ctz/cpop/sext/rev8/orc.b family (0110000x)
	f7Bclr    = 0x24
	f7Bset    = 0x14
	f7Binv    = 0x34
	f7ZextH   = 0x04
	f7SlliUw  = 0x04
)

const (
	rs2Clz    = 0x00
	rs2Ctz    = 0x01
	rs2Cpop   = 0x02
	rs2SextB  = 0x04
	rs2SextH  = 0x05
	rs2Rev8   = 0x18
	rs2Brev8  = 0x05
	rs2OrcB   = 0x07
	rs2Zero   = 0x00
)

const (
	f3Add   = 0x0
	f3Slt   = 0x2
	f3Sltu  = 0x3
	f3And   = 0x7
	f3Or    = 0x6
	f3Xor   = 0x4
	f3Sll   = 0x1
	f3Srl   = 0x5 // also SRA (disambiguated by funct7)

	f3Mul    = 0x0
	f3Mulh   = 0x1
	f3Mulhsu = 0x2
	f3Mulhu  = 0x3
	f3Div    = 0x4
	f3Divu   = 0x5
	f3Rem    = 0x6
	f3Remu   = 0x7

	f3Lb  = 0x0
	f3Lh  = 0x1
	f3Lw  = 0x2
	f3Lbu = 0x4
	f3Lhu = 0x5

	f3Sb = 0x0
	f3Sh = 0x1
	f3Sw = 0x2

	f3Beq  = 0x0
	f3Bne  = 0x1
	f3Blt  = 0x4
	f3Bge  = 0x5
	f3Bltu = 0x6
	f3Bgeu = 0x7

	f3Csrrw  = 0x1
	f3Csrrs  = 0x2
	f3Csrrc  = 0x3
	f3Csrrwi = 0x5
	f3Csrrsi = 0x6
	f3Csrrci = 0x7

	f3AmoW = 0x2
)

const (
	amoLr      = 0x02
	amoSc      = 0x03
	amoSwap    = 0x01
	amoAdd     = 0x00
	amoXor     = 0x04
	amoAnd     = 0x0C
	amoOr      = 0x08
)

// sign extends the low `bits` bits of v.
func signExt(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
