package rv32

// bit extracts a single bit from w at position pos.
func bit(w uint32, pos uint) uint32 { return (w >> pos) & 1 }

// bitsOf extracts an inclusive [hi:lo] field from w, right-aligned.
func bitsOf(w uint32, hi, lo uint) uint32 { return (w >> lo) & ((1 << (hi - lo + 1)) - 1) }

// cReg expands a 3-bit compressed register field (x8..x15) to a full Gpr.
func cReg(field uint32) Gpr { return Gpr(field + 8) }

// jImm reconstructs the 11-bit signed offset shared by C.J and C.JAL.
func jImm(w uint32) int32 {
	imm := bit(w, 12)<<11 | bit(w, 11)<<4 | bitsOf(w, 10, 9)<<8 | bit(w, 8)<<10 |
		bit(w, 7)<<6 | bit(w, 6)<<7 | bitsOf(w, 5, 3)<<1 | bit(w, 2)<<5
	return signExt(imm, 12)
}

// bImm reconstructs the 8-bit signed offset shared by C.BEQZ and C.BNEZ.
func bImm(w uint32) int32 {
	imm := bit(w, 12)<<8 | bitsOf(w, 11, 10)<<3 | bitsOf(w, 6, 5)<<6 | bitsOf(w, 4, 3)<<1 | bit(w, 2)<<5
	return signExt(imm, 9)
}

func decodeCompressed(pc uint32, w uint32) (Inst, error) {
	op := w & 0x3
	f3 := bitsOf(w, 15, 13)
	i := Inst{Size: 2}

	switch op {
	case 0x0: // quadrant 0
		rdp := cReg(bitsOf(w, 4, 2))
		rs1p := cReg(bitsOf(w, 9, 7))
		switch f3 {
		case 0x0: // C.ADDI4SPN
			nz := bitsOf(w, 10, 7)<<6 | bitsOf(w, 12, 11)<<4 | bit(w, 5)<<3 | bit(w, 6)<<2
			if nz == 0 {
				break
			}
			i.Op = OpCAddi4spn
			i.Rd = rdp
			i.Rs1 = 2 // sp
			i.Imm = int32(nz)
			return i, nil
		case 0x2: // C.LW
			imm := bit(w, 5)<<6 | bitsOf(w, 12, 10)<<3 | bit(w, 6)<<2
			i.Op = OpCLw
			i.Rd = rdp
			i.Rs1 = rs1p
			i.Imm = int32(imm)
			return i, nil
		case 0x6: // C.SW
			imm := bit(w, 5)<<6 | bitsOf(w, 12, 10)<<3 | bit(w, 6)<<2
			i.Op = OpCSw
			i.Rs1 = rs1p
			i.Rs2 = rdp
			i.Imm = int32(imm)
			return i, nil
		}
	case 0x1: // quadrant 1
		rd := Gpr(bitsOf(w, 11, 7))
		switch f3 {
		case 0x0: // C.ADDI / C.NOP
			imm := signExt(bit(w, 12)<<5|bitsOf(w, 6, 2), 6)
			if rd == 0 && imm == 0 {
				i.Op = OpCNop
				return i, nil
			}
			i.Op = OpCAddi
			i.Rd, i.Rs1 = rd, rd
			i.Imm = imm
			return i, nil
		case 0x1: // C.JAL
			i.Op = OpCJal
			i.Imm = jImm(w)
			return i, nil
		case 0x2: // C.LI
			i.Op = OpCLi
			i.Rd = rd
			i.Imm = signExt(bit(w, 12)<<5|bitsOf(w, 6, 2), 6)
			return i, nil
		case 0x3:
			if rd == 2 { // C.ADDI16SP
				imm := bit(w, 12)<<9 | bitsOf(w, 4, 3)<<7 | bit(w, 5)<<6 | bit(w, 2)<<5 | bit(w, 6)<<4
				if imm == 0 {
					break
				}
				i.Op = OpCAddi16sp
				i.Rd, i.Rs1 = 2, 2 // sp
				i.Imm = signExt(imm, 10)
				return i, nil
			}
			imm := bit(w, 12)<<5 | bitsOf(w, 6, 2)
			if imm == 0 {
				break
			}
			i.Op = OpCLui
			i.Rd = rd
			i.Imm = signExt(imm, 6) << 12
			return i, nil
		case 0x4:
			rdp := cReg(bitsOf(w, 9, 7))
			funct2 := bitsOf(w, 11, 10)
			switch funct2 {
			case 0x0: // C.SRLI
				i.Op = OpCSrli
				i.Rd, i.Rs1 = rdp, rdp
				i.Shamt = bit(w, 12)<<5 | bitsOf(w, 6, 2)
				return i, nil
			case 0x1: // C.SRAI
				i.Op = OpCSrai
				i.Rd, i.Rs1 = rdp, rdp
				i.Shamt = bit(w, 12)<<5 | bitsOf(w, 6, 2)
				return i, nil
			case 0x2: // C.ANDI
				i.Op = OpCAndi
				i.Rd, i.Rs1 = rdp, rdp
				i.Imm = signExt(bit(w, 12)<<5|bitsOf(w, 6, 2), 6)
				return i, nil
			case 0x3:
				rs2p := cReg(bitsOf(w, 4, 2))
				i.Rd, i.Rs1, i.Rs2 = rdp, rdp, rs2p
				switch bitsOf(w, 6, 5) {
				case 0x0:
					i.Op = OpCSub
				case 0x1:
					i.Op = OpCXor
				case 0x2:
					i.Op = OpCOr
				case 0x3:
					i.Op = OpCAnd
				}
				if i.Op != OpInvalid {
					return i, nil
				}
			}
		case 0x5: // C.J
			i.Op = OpCJ
			i.Imm = jImm(w)
			return i, nil
		case 0x6: // C.BEQZ
			i.Op = OpCBeqz
			i.Rs1 = cReg(bitsOf(w, 9, 7))
			i.Imm = bImm(w)
			return i, nil
		case 0x7: // C.BNEZ
			i.Op = OpCBnez
			i.Rs1 = cReg(bitsOf(w, 9, 7))
			i.Imm = bImm(w)
			return i, nil
		}
	case 0x2: // quadrant 2
		rd := Gpr(bitsOf(w, 11, 7))
		switch f3 {
		case 0x0: // C.SLLI
			shamt := bit(w, 12)<<5 | bitsOf(w, 6, 2)
			if rd == 0 || shamt == 0 {
				break
			}
			i.Op = OpCSlli
			i.Rd, i.Rs1 = rd, rd
			i.Shamt = shamt
			return i, nil
		case 0x2: // C.LWSP
			if rd == 0 {
				break
			}
			imm := bit(w, 12)<<5 | bitsOf(w, 6, 4)<<2 | bitsOf(w, 3, 2)<<6
			i.Op = OpCLwsp
			i.Rd = rd
			i.Rs1 = 2 // sp
			i.Imm = int32(imm)
			return i, nil
		case 0x4:
			rs2 := Gpr(bitsOf(w, 6, 2))
			bit12 := bit(w, 12)
			switch {
			case bit12 == 0 && rs2 == 0 && rd != 0:
				i.Op = OpCJr
				i.Rs1 = rd
				return i, nil
			case bit12 == 0 && rs2 != 0:
				i.Op = OpCMv
				i.Rd = rd
				i.Rs2 = rs2
				return i, nil
			case bit12 == 1 && rd == 0 && rs2 == 0:
				i.Op = OpCEbreak
				return i, nil
			case bit12 == 1 && rs2 == 0 && rd != 0:
				i.Op = OpCJalr
				i.Rs1 = rd
				return i, nil
			case bit12 == 1 && rs2 != 0:
				i.Op = OpCAdd
				i.Rd, i.Rs1, i.Rs2 = rd, rd, rs2
				return i, nil
			}
		case 0x6: // C.SWSP
			imm := bitsOf(w, 12, 9)<<2 | bitsOf(w, 8, 7)<<6
			i.Op = OpCSwsp
			i.Rs1 = 2 // sp
			i.Rs2 = Gpr(bitsOf(w, 6, 2))
			i.Imm = int32(imm)
			return i, nil
		}
	}

	return Inst{}, &ErrIllegalInstruction{PC: pc, Word: w, Size: 2}
}
