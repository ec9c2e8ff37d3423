package rv32

// Decode reads one instruction from b at address pc. It inspects the two
// low bits of the first byte to decide between a 16-bit compressed and a
// 32-bit uncompressed encoding, per the C extension's quadrant scheme.
func Decode(pc uint32, b []byte) (Inst, error) {
	if len(b) < 2 {
		return Inst{}, &ErrIllegalInstruction{PC: pc, Size: 2}
	}
	lo := uint32(b[0]) | uint32(b[1])<<8
	if lo&0x3 != 0x3 {
		return decodeCompressed(pc, lo)
	}
	if len(b) < 4 {
		return Inst{}, &ErrIllegalInstruction{PC: pc, Size: 4}
	}
	word := lo | uint32(b[2])<<16 | uint32(b[3])<<24
	return decode32(pc, word)
}

func decode32(pc, w uint32) (Inst, error) {
	op := w & 0x7F
	base := op >> 2
	rd := Gpr((w >> 7) & 0x1F)
	rs1 := Gpr((w >> 15) & 0x1F)
	rs2 := Gpr((w >> 20) & 0x1F)
	f3 := (w >> 12) & 0x7
	f7 := (w >> 25) & 0x7F
	i := Inst{Size: 4, Rd: rd, Rs1: rs1, Rs2: rs2}

	switch base {
	case baseLui:
		i.Op = OpLui
		i.Rs1, i.Rs2 = 0, 0
		i.Imm = int32(w & 0xFFFFF000)
		return i, nil
	case baseAuipc:
		i.Op = OpAuipc
		i.Rs1, i.Rs2 = 0, 0
		i.Imm = int32(w & 0xFFFFF000)
		return i, nil
	case baseJal:
		i.Op = OpJal
		i.Rs1, i.Rs2 = 0, 0
		imm := (w>>11)&(1<<20) | (w & 0xFF000) | ((w >> 9) & (1 << 11)) | ((w >> 20) & 0x7FE)
		i.Imm = signExt(imm, 21)
		return i, nil
	case baseJalr:
		if f3 != 0 {
			break
		}
		i.Op = OpJalr
		i.Rs2 = 0
		i.Imm = signExt(w>>20, 12)
		return i, nil
	case baseBranch:
		imm := (w>>19)&(1<<12) | (w<<4)&(1<<11) | (w>>20)&0x7E0 | (w>>7)&0x1E
		i.Imm = signExt(imm, 13)
		i.Rd = 0
		switch f3 {
		case f3Beq:
			i.Op = OpBeq
		case f3Bne:
			i.Op = OpBne
		case f3Blt:
			i.Op = OpBlt
		case f3Bge:
			i.Op = OpBge
		case f3Bltu:
			i.Op = OpBltu
		case f3Bgeu:
			i.Op = OpBgeu
		default:
			goto illegal
		}
		return i, nil
	case baseLoad:
		i.Imm = signExt(w>>20, 12)
		i.Rs2 = 0
		switch f3 {
		case f3Lb:
			i.Op = OpLb
		case f3Lh:
			i.Op = OpLh
		case f3Lw:
			i.Op = OpLw
		case f3Lbu:
			i.Op = OpLbu
		case f3Lhu:
			i.Op = OpLhu
		default:
			goto illegal
		}
		return i, nil
	case baseStore:
		imm := ((w >> 20) & 0xFE0) | ((w >> 7) & 0x1F)
		i.Imm = signExt(imm, 12)
		i.Rd = 0
		switch f3 {
		case f3Sb:
			i.Op = OpSb
		case f3Sh:
			i.Op = OpSh
		case f3Sw:
			i.Op = OpSw
		default:
			goto illegal
		}
		return i, nil
	case baseOpImm:
		imm := signExt(w>>20, 12)
		i.Imm = imm
		i.Shamt = uint32(rs2)
		i.Rs2 = 0
		switch f3 {
		case f3Add:
			i.Op = OpAddi
		case f3Slt:
			i.Op = OpSlti
		case f3Sltu:
			i.Op = OpSltiu
		case f3Xor:
			i.Op = OpXori
		case f3Or:
			i.Op = OpOri
		case f3And:
			i.Op = OpAndi
		case f3Sll:
			switch f7 {
			case f7Base:
				i.Op = OpSlli
			case f7Bclr:
				i.Op = OpBclri
			case f7Bset:
				i.Op = OpBseti
			case f7Binv:
				i.Op = OpBinvi
			case f7SlliUw:
				i.Op = OpSlliUw
			case f7RotClz:
				switch rs2 {
				case rs2Clz:
					i.Op = OpClz
				case rs2Ctz:
					i.Op = OpCtz
				case rs2Cpop:
					i.Op = OpCpop
				case rs2SextB:
					i.Op = OpSextB
				case rs2SextH:
					i.Op = OpSextH
				case rs2Rev8:
					i.Op = OpRev8
				case rs2OrcB:
					i.Op = OpOrcB
				default:
					goto illegal
				}
			default:
				goto illegal
			}
		case f3Srl:
			switch f7 {
			case f7Base:
				i.Op = OpSrli
			case f7Alt:
				i.Op = OpSrai
			case f7Bclr:
				i.Op = OpBexti
			case f7RotClz:
				i.Op = OpRori
			default:
				goto illegal
			}
		default:
			goto illegal
		}
		return i, nil
	case baseOp:
		switch f7 {
		case f7Base:
			switch f3 {
			case f3Add:
				i.Op = OpAdd
			case f3Slt:
				i.Op = OpSlt
			case f3Sltu:
				i.Op = OpSltu
			case f3And:
				i.Op = OpAnd
			case f3Or:
				i.Op = OpOr
			case f3Xor:
				i.Op = OpXor
			case f3Sll:
				i.Op = OpSll
			case f3Srl:
				i.Op = OpSrl
			default:
				goto illegal
			}
		case f7Alt:
			switch f3 {
			case f3Add:
				i.Op = OpSub
			case f3Srl:
				i.Op = OpSra
			case 0x7:
				i.Op = OpAndn
			case 0x6:
				i.Op = OpOrn
			case 0x4:
				i.Op = OpXnor
			default:
				goto illegal
			}
		case f7MulDiv:
			switch f3 {
			case f3Mul:
				i.Op = OpMul
			case f3Mulh:
				i.Op = OpMulh
			case f3Mulhsu:
				i.Op = OpMulhsu
			case f3Mulhu:
				i.Op = OpMulhu
			case f3Div:
				i.Op = OpDiv
			case f3Divu:
				i.Op = OpDivu
			case f3Rem:
				i.Op = OpRem
			case f3Remu:
				i.Op = OpRemu
			default:
				goto illegal
			}
		case f7MinMax:
			switch f3 {
			case 0x4:
				i.Op = OpMin
			case 0x5:
				i.Op = OpMinu
			case 0x6:
				i.Op = OpMax
			case 0x7:
				i.Op = OpMaxu
			default:
				goto illegal
			}
		case f7ShAdd:
			switch f3 {
			case 0x2:
				i.Op = OpSh1add
			case 0x4:
				i.Op = OpSh2add
			case 0x6:
				i.Op = OpSh3add
			default:
				goto illegal
			}
		case f7RotClz:
			switch f3 {
			case 0x1:
				i.Op = OpRol
			case 0x5:
				i.Op = OpRor
			default:
				goto illegal
			}
		case f7Bclr:
			switch f3 {
			case 0x1:
				i.Op = OpBclr
			case 0x5:
				i.Op = OpBext
			default:
				goto illegal
			}
		case f7Bset:
			i.Op = OpBset
		case f7Binv:
			i.Op = OpBinv
		case f7ZextH:
			if f3 == 0x4 && rs2 == rs2Zero {
				i.Op = OpZextH
			} else {
				goto illegal
			}
		default:
			goto illegal
		}
		return i, nil
	case baseMiscMem:
		switch f3 {
		case 0x0:
			i.Op = OpFence
			i.Pred = (w >> 24) & 0xF
			i.Succ = (w >> 20) & 0xF
		case 0x1:
			i.Op = OpFenceI
		default:
			goto illegal
		}
		return i, nil
	case baseSystem:
		switch f3 {
		case 0x0:
			imm := w >> 20
			if imm == 0 {
				i.Op = OpEcall
			} else if imm == 1 {
				i.Op = OpEbreak
			} else {
				goto illegal
			}
		case f3Csrrw:
			i.Op = OpCsrrw
			i.Csr = w >> 20
		case f3Csrrs:
			i.Op = OpCsrrs
			i.Csr = w >> 20
		case f3Csrrc:
			i.Op = OpCsrrc
			i.Csr = w >> 20
		case f3Csrrwi:
			i.Op = OpCsrrwi
			i.Csr = w >> 20
			i.Imm = int32(rs1)
		case f3Csrrsi:
			i.Op = OpCsrrsi
			i.Csr = w >> 20
			i.Imm = int32(rs1)
		case f3Csrrci:
			i.Op = OpCsrrci
			i.Csr = w >> 20
			i.Imm = int32(rs1)
		default:
			goto illegal
		}
		return i, nil
	case baseAmo:
		if f3 != f3AmoW {
			goto illegal
		}
		funct5 := f7 >> 2
		i.Aq = f7&0x2 != 0
		i.Rl = f7&0x1 != 0
		switch funct5 {
		case amoLr:
			i.Op = OpLrW
		case amoSc:
			i.Op = OpScW
		case amoSwap:
			i.Op = OpAmoswapW
		case amoAdd:
			i.Op = OpAmoaddW
		case amoXor:
			i.Op = OpAmoxorW
		case amoAnd:
			i.Op = OpAmoandW
		case amoOr:
			i.Op = OpAmoorW
		default:
			goto illegal
		}
		return i, nil
	}

illegal:
	return Inst{}, &ErrIllegalInstruction{PC: pc, Word: w, Size: 4}
}
