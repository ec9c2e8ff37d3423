package rv32

// Op identifies one decoded instruction variant. Every supported opcode
// (RV32I, M, A, C, Zba, Zbb, Zbs) gets its own arm; compressed mnemonics
// are distinct arms from their expanded counterparts so that decode/encode
// round-trips exactly (Property 1 in spec.md §8).
type Op int

const (
	OpInvalid Op = iota

	// RV32I: register-register ALU
	OpAdd
	OpSub
	OpSlt
	OpSltu
	OpAnd
	OpOr
	OpXor
	OpSll
	OpSrl
	OpSra

	// RV32I: register-immediate ALU
	OpAddi
	OpSlti
	OpSltiu
	OpAndi
	OpOri
	OpXori
	OpSlli
	OpSrli
	OpSrai

	// RV32I: loads/stores
	OpLb
	OpLh
	OpLw
	OpLbu
	OpLhu
	OpSb
	OpSh
	OpSw

	// RV32I: branches
	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu

	// RV32I: jumps
	OpJal
	OpJalr

	// RV32I: upper immediate
	OpLui
	OpAuipc

	// RV32I: misc-mem / system
	OpFence
	OpFenceI
	OpEcall
	OpEbreak
	OpCsrrw
	OpCsrrs
	OpCsrrc
	OpCsrrwi
	OpCsrrsi
	OpCsrrci

	// M extension
	OpMul
	OpMulh
	OpMulhsu
	OpMulhu
	OpDiv
	OpDivu
	OpRem
	OpRemu

	// A extension (single-hart semantics: sc.w always succeeds)
	OpLrW
	OpScW
	OpAmoswapW
	OpAmoaddW
	OpAmoxorW
	OpAmoandW
	OpAmoorW

	// C extension
	OpCAddi
	OpCLi
	OpCLui
	OpCMv
	OpCAdd
	OpCSub
	OpCAnd
	OpCOr
	OpCXor
	OpCLw
	OpCSw
	OpCJ
	OpCJal
	OpCJr
	OpCJalr
	OpCBeqz
	OpCBnez
	OpCSlli
	OpCSrli
	OpCSrai
	OpCAndi
	OpCAddi16sp
	OpCAddi4spn
	OpCLwsp
	OpCSwsp
	OpCNop
	OpCEbreak

	// Zbs
	OpBclr
	OpBclri
	OpBset
	OpBseti
	OpBinv
	OpBinvi
	OpBext
	OpBexti

	// Zbb
	OpClz
	OpCtz
	OpCpop
	OpSextB
	OpSextH
	OpZextH
	OpRol
	OpRor
	OpRori
	OpRev8
	OpBrev8
	OpOrcB
	OpMin
	OpMinu
	OpMax
	OpMaxu
	OpAndn
	OpOrn
	OpXnor

	// Zba
	OpSh1add
	OpSh2add
	OpSh3add
	OpSlliUw
)

// Inst is the decoded form of one instruction: immediates are already
// sign-extended/shifted into the value that will be added to a register or
// the PC, ready to use directly by the executor. The encoder re-packs bits
// from this canonical form as needed.
type Inst struct {
	Op Op

	Rd  Gpr
	Rs1 Gpr
	Rs2 Gpr

	// Imm carries the decoded, ready-to-use immediate for ALU-immediate,
	// load/store offsets, branch/jump deltas (relative to the
	// instruction's own PC) and the 5-bit zero-extended immediate of the
	// Csrr*i variants; CSR addresses are held in Csr.
	Imm int32

	// Shamt holds shift amounts for slli/srli/srai and the Zbs/Zbb
	// bit-indexed variants; only the low 5 bits are significant.
	Shamt uint32

	// Csr holds the 12-bit CSR address for Csrr[w|s|c][i] variants.
	Csr uint32

	// Aq, Rl are the acquire/release bits on A-extension instructions.
	// Single-hart execution makes them semantically inert, but they are
	// preserved so encode(decode(x)) reproduces the original bit pattern.
	Aq, Rl bool

	// Pred, Succ hold the fence predecessor/successor bits.
	Pred, Succ uint32

	// Size is the width of the original encoding: 2 for compressed forms,
	// 4 otherwise. Needed both for PC advance and for round-trip encode.
	Size uint8
}

// NaturalWidth returns 2 or 4, the number of bytes the PC advances by when
// the executor does not produce an explicit new_pc.
func (i Inst) NaturalWidth() uint32 {
	if i.Size == 2 {
		return 2
	}
	return 4
}

// IsCompressed reports whether i decodes from a 16-bit encoding.
func (i Inst) IsCompressed() bool { return i.Size == 2 }

var opNames = map[Op]string{
	OpInvalid: "invalid",
	OpAdd: "add", OpSub: "sub", OpSlt: "slt", OpSltu: "sltu", OpAnd: "and", OpOr: "or",
	OpXor: "xor", OpSll: "sll", OpSrl: "srl", OpSra: "sra",
	OpAddi: "addi", OpSlti: "slti", OpSltiu: "sltiu", OpAndi: "andi", OpOri: "ori", OpXori: "xori",
	OpSlli: "slli", OpSrli: "srli", OpSrai: "srai",
	OpLb: "lb", OpLh: "lh", OpLw: "lw", OpLbu: "lbu", OpLhu: "lhu",
	OpSb: "sb", OpSh: "sh", OpSw: "sw",
	OpBeq: "beq", OpBne: "bne", OpBlt: "blt", OpBge: "bge", OpBltu: "bltu", OpBgeu: "bgeu",
	OpJal: "jal", OpJalr: "jalr", OpLui: "lui", OpAuipc: "auipc",
	OpFence: "fence", OpFenceI: "fence.i", OpEcall: "ecall", OpEbreak: "ebreak",
	OpCsrrw: "csrrw", OpCsrrs: "csrrs", OpCsrrc: "csrrc",
	OpCsrrwi: "csrrwi", OpCsrrsi: "csrrsi", OpCsrrci: "csrrci",
	OpMul: "mul", OpMulh: "mulh", OpMulhsu: "mulhsu", OpMulhu: "mulhu",
	OpDiv: "div", OpDivu: "divu", OpRem: "rem", OpRemu: "remu",
	OpLrW: "lr.w", OpScW: "sc.w", OpAmoswapW: "amoswap.w", OpAmoaddW: "amoadd.w",
	OpAmoxorW: "amoxor.w", OpAmoandW: "amoand.w", OpAmoorW: "amoor.w",
	OpCAddi: "c.addi", OpCLi: "c.li", OpCLui: "c.lui", OpCMv: "c.mv", OpCAdd: "c.add",
	OpCSub: "c.sub", OpCAnd: "c.and", OpCOr: "c.or", OpCXor: "c.xor",
	OpCLw: "c.lw", OpCSw: "c.sw", OpCJ: "c.j", OpCJal: "c.jal", OpCJr: "c.jr", OpCJalr: "c.jalr",
	OpCBeqz: "c.beqz", OpCBnez: "c.bnez", OpCSlli: "c.slli", OpCSrli: "c.srli", OpCSrai: "c.srai",
	OpCAndi: "c.andi", OpCAddi16sp: "c.addi16sp", OpCAddi4spn: "c.addi4spn",
	OpCLwsp: "c.lwsp", OpCSwsp: "c.swsp", OpCNop: "c.nop", OpCEbreak: "c.ebreak",
	OpBclr: "bclr", OpBclri: "bclri", OpBset: "bset", OpBseti: "bseti",
	OpBinv: "binv", OpBinvi: "binvi", OpBext: "bext", OpBexti: "bexti",
	OpClz: "clz", OpCtz: "ctz", OpCpop: "cpop", OpSextB: "sext.b", OpSextH: "sext.h", OpZextH: "zext.h",
	OpRol: "rol", OpRor: "ror", OpRori: "rori", OpRev8: "rev8", OpBrev8: "brev8", OpOrcB: "orc.b",
	OpMin: "min", OpMinu: "minu", OpMax: "max", OpMaxu: "maxu",
	OpAndn: "andn", OpOrn: "orn", OpXnor: "xnor",
	OpSh1add: "sh1add", OpSh2add: "sh2add", OpSh3add: "sh3add", OpSlliUw: "slli.uw",
}

// String returns the canonical mnemonic, used in diagnostics and traces.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "op?"
}
