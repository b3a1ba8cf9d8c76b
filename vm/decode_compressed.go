package vm

// RV64C (compressed) decoding. A 16-bit instruction is identified by its low
// 2 bits (the "quadrant") being anything other than 11; 11 means a normal
// 32-bit instruction. Every compressed form expands to the same Op used by
// its 32-bit equivalent, tagged Compressed so the executor's PC-advance step
// knows to add 2 instead of 4.
//
// A few quadrant/funct3 groups contain more than one compressed form and the
// sub-patterns are not disjoint on funct3 alone; those are resolved in the
// exact priority spelled out inline below: C.ADDI16SP before C.LUI, C.JR
// before C.MV, C.EBREAK before C.JALR, C.JALR before C.ADD.

func cReg(bits uint16) int { return int(bits) + 8 }

func cQuadrant(h uint16) uint16 { return h & 0x3 }
func cFunct3(h uint16) uint16   { return (h >> 13) & 0x7 }
func cBit(h uint16, b uint) uint16 {
	return (h >> b) & 1
}
func cField(h uint16, hi, lo uint) uint16 {
	n := hi - lo + 1
	return (h >> lo) & ((1 << n) - 1)
}

func decode16(h uint16) Inst {
	base := Inst{Compressed: true, Raw: uint32(h)}

	switch cQuadrant(h) {
	case 0:
		return decode16Quadrant0(h, base)
	case 1:
		return decode16Quadrant1(h, base)
	case 2:
		return decode16Quadrant2(h, base)
	}
	return Inst{Op: OpIllegal, Compressed: true, Raw: uint32(h)}
}

func decode16Quadrant0(h uint16, base Inst) Inst {
	rdp := cReg(cField(h, 4, 2))
	rs1p := cReg(cField(h, 9, 7))

	switch cFunct3(h) {
	case 0: // C.ADDI4SPN
		imm := int64(cField(h, 10, 7)<<6 | cField(h, 12, 11)<<4 | cBit(h, 5)<<3 | cBit(h, 6)<<2)
		if imm == 0 {
			return Inst{Op: OpIllegal, Compressed: true, Raw: uint32(h)}
		}
		base.Op, base.Rd, base.Rs1, base.Imm = OpAddi, rdp, SP, imm
		return base
	case 1: // C.FLD
		imm := int64(cField(h, 12, 10)<<3 | cField(h, 6, 5)<<6)
		base.Op, base.Rd, base.Rs1, base.Imm = OpFld, rdp, rs1p, imm
		return base
	case 2: // C.LW
		imm := int64(cField(h, 12, 10)<<3 | cBit(h, 6)<<2 | cBit(h, 5)<<6)
		base.Op, base.Rd, base.Rs1, base.Imm = OpLw, rdp, rs1p, imm
		return base
	case 3: // C.LD
		imm := int64(cField(h, 12, 10)<<3 | cField(h, 6, 5)<<6)
		base.Op, base.Rd, base.Rs1, base.Imm = OpLd, rdp, rs1p, imm
		return base
	case 5: // C.FSD
		imm := int64(cField(h, 12, 10)<<3 | cField(h, 6, 5)<<6)
		base.Op, base.Rs1, base.Rs2, base.Imm = OpFsd, rs1p, rdp, imm
		return base
	case 6: // C.SW
		imm := int64(cField(h, 12, 10)<<3 | cBit(h, 6)<<2 | cBit(h, 5)<<6)
		base.Op, base.Rs1, base.Rs2, base.Imm = OpSw, rs1p, rdp, imm
		return base
	case 7: // C.SD
		imm := int64(cField(h, 12, 10)<<3 | cField(h, 6, 5)<<6)
		base.Op, base.Rs1, base.Rs2, base.Imm = OpSd, rs1p, rdp, imm
		return base
	}
	return Inst{Op: OpIllegal, Compressed: true, Raw: uint32(h)}
}

func ciImm6(h uint16) int64 {
	raw := uint64(cBit(h, 12))<<5 | uint64(cField(h, 6, 2))
	return signExtend(raw, 6)
}

func decode16Quadrant1(h uint16, base Inst) Inst {
	rd5 := int(cField(h, 11, 7))

	switch cFunct3(h) {
	case 0: // C.ADDI (rd=0,imm=0 is C.NOP)
		base.Op, base.Rd, base.Rs1, base.Imm = OpAddi, rd5, rd5, ciImm6(h)
		return base
	case 1: // C.ADDIW
		base.Op, base.Rd, base.Rs1, base.Imm = OpAddiw, rd5, rd5, ciImm6(h)
		return base
	case 2: // C.LI
		base.Op, base.Rd, base.Rs1, base.Imm = OpAddi, rd5, Zero, ciImm6(h)
		return base
	case 3:
		if rd5 == SP {
			// C.ADDI16SP must be matched before the general C.LUI form below:
			// both share funct3=011, and rd==2 is what distinguishes them.
			raw := uint64(cBit(h, 12))<<9 | uint64(cBit(h, 6))<<4 | uint64(cBit(h, 5))<<6 |
				uint64(cField(h, 4, 3))<<7 | uint64(cBit(h, 2))<<5
			imm := signExtend(raw, 10)
			if imm == 0 {
				return Inst{Op: OpIllegal, Compressed: true, Raw: uint32(h)}
			}
			base.Op, base.Rd, base.Rs1, base.Imm = OpAddi, SP, SP, imm
			return base
		}
		raw := uint64(cBit(h, 12))<<17 | uint64(cField(h, 6, 2))<<12
		imm := signExtend(raw, 18)
		if imm == 0 || rd5 == 0 {
			return Inst{Op: OpIllegal, Compressed: true, Raw: uint32(h)}
		}
		base.Op, base.Rd, base.Imm = OpLui, rd5, imm
		return base
	case 4:
		return decode16Quadrant1Arith(h, base)
	case 5: // C.J
		base.Op, base.Rd, base.Imm = OpJal, Zero, cjImm(h)
		return base
	case 6: // C.BEQZ
		rs1p := cReg(cField(h, 9, 7))
		base.Op, base.Rs1, base.Rs2, base.Imm = OpBeq, rs1p, Zero, cbImm(h)
		return base
	case 7: // C.BNEZ
		rs1p := cReg(cField(h, 9, 7))
		base.Op, base.Rs1, base.Rs2, base.Imm = OpBne, rs1p, Zero, cbImm(h)
		return base
	}
	return Inst{Op: OpIllegal, Compressed: true, Raw: uint32(h)}
}

func cjImm(h uint16) int64 {
	raw := uint64(cBit(h, 12))<<11 | uint64(cBit(h, 11))<<4 | uint64(cField(h, 10, 9))<<8 |
		uint64(cBit(h, 8))<<10 | uint64(cBit(h, 7))<<6 | uint64(cBit(h, 6))<<7 |
		uint64(cField(h, 5, 3))<<1 | uint64(cBit(h, 2))<<5
	return signExtend(raw, 12)
}

func cbImm(h uint16) int64 {
	raw := uint64(cBit(h, 12))<<8 | uint64(cField(h, 11, 10))<<3 | uint64(cField(h, 6, 5))<<6 |
		uint64(cField(h, 4, 3))<<1 | uint64(cBit(h, 2))<<5
	return signExtend(raw, 9)
}

func decode16Quadrant1Arith(h uint16, base Inst) Inst {
	rdp := cReg(cField(h, 9, 7))
	sel := cField(h, 11, 10)

	switch sel {
	case 0: // C.SRLI
		shamt := int64(cBit(h, 12))<<5 | int64(cField(h, 6, 2))
		base.Op, base.Rd, base.Rs1, base.Imm = OpSrli, rdp, rdp, shamt
		return base
	case 1: // C.SRAI
		shamt := int64(cBit(h, 12))<<5 | int64(cField(h, 6, 2))
		base.Op, base.Rd, base.Rs1, base.Imm = OpSrai, rdp, rdp, shamt
		return base
	case 2: // C.ANDI
		base.Op, base.Rd, base.Rs1, base.Imm = OpAndi, rdp, rdp, ciImm6(h)
		return base
	case 3:
		rs2p := cReg(cField(h, 4, 2))
		if cBit(h, 12) == 0 {
			switch cField(h, 6, 5) {
			case 0:
				base.Op, base.Rd, base.Rs1, base.Rs2 = OpSub, rdp, rdp, rs2p
			case 1:
				base.Op, base.Rd, base.Rs1, base.Rs2 = OpXor, rdp, rdp, rs2p
			case 2:
				base.Op, base.Rd, base.Rs1, base.Rs2 = OpOr, rdp, rdp, rs2p
			case 3:
				base.Op, base.Rd, base.Rs1, base.Rs2 = OpAnd, rdp, rdp, rs2p
			}
			return base
		}
		switch cField(h, 6, 5) {
		case 0:
			base.Op, base.Rd, base.Rs1, base.Rs2 = OpSubw, rdp, rdp, rs2p
		case 1:
			base.Op, base.Rd, base.Rs1, base.Rs2 = OpAddw, rdp, rdp, rs2p
		default:
			return Inst{Op: OpIllegal, Compressed: true, Raw: uint32(h)}
		}
		return base
	}
	return Inst{Op: OpIllegal, Compressed: true, Raw: uint32(h)}
}

func decode16Quadrant2(h uint16, base Inst) Inst {
	rd5 := int(cField(h, 11, 7))
	rs2_5 := int(cField(h, 6, 2))

	switch cFunct3(h) {
	case 0: // C.SLLI
		shamt := int64(cBit(h, 12))<<5 | int64(cField(h, 6, 2))
		base.Op, base.Rd, base.Rs1, base.Imm = OpSlli, rd5, rd5, shamt
		return base
	case 1: // C.FLDSP
		imm := int64(cBit(h, 12))<<5 | int64(cField(h, 6, 5))<<3 | int64(cField(h, 4, 2))<<6
		base.Op, base.Rd, base.Rs1, base.Imm = OpFld, rd5, SP, imm
		return base
	case 2: // C.LWSP
		imm := int64(cBit(h, 12))<<5 | int64(cField(h, 6, 4))<<2 | int64(cField(h, 3, 2))<<6
		base.Op, base.Rd, base.Rs1, base.Imm = OpLw, rd5, SP, imm
		return base
	case 3: // C.LDSP
		imm := int64(cBit(h, 12))<<5 | int64(cField(h, 6, 5))<<3 | int64(cField(h, 4, 2))<<6
		base.Op, base.Rd, base.Rs1, base.Imm = OpLd, rd5, SP, imm
		return base
	case 4:
		rs2NonZero := rs2_5 != 0
		if cBit(h, 12) == 0 {
			if !rs2NonZero {
				// C.JR: checked before C.MV below.
				base.Op, base.Rd, base.Rs1, base.Imm = OpJalr, Zero, rd5, 0
				return base
			}
			base.Op, base.Rd, base.Rs1, base.Rs2 = OpAdd, rd5, Zero, rs2_5
			return base
		}
		if rd5 == 0 && !rs2NonZero {
			// C.EBREAK: checked before C.JALR below.
			base.Op = OpEbreak
			return base
		}
		if !rs2NonZero {
			// C.JALR: checked before C.ADD below.
			base.Op, base.Rd, base.Rs1, base.Imm = OpJalr, RA, rd5, 0
			return base
		}
		base.Op, base.Rd, base.Rs1, base.Rs2 = OpAdd, rd5, rd5, rs2_5
		return base
	case 5: // C.FSDSP
		imm := int64(cField(h, 12, 10)<<3 | cField(h, 9, 7)<<6)
		base.Op, base.Rs1, base.Rs2, base.Imm = OpFsd, SP, rs2_5, imm
		return base
	case 6: // C.SWSP
		imm := int64(cField(h, 12, 9)<<2 | cField(h, 8, 7)<<6)
		base.Op, base.Rs1, base.Rs2, base.Imm = OpSw, SP, rs2_5, imm
		return base
	case 7: // C.SDSP
		imm := int64(cField(h, 12, 10)<<3 | cField(h, 9, 7)<<6)
		base.Op, base.Rs1, base.Rs2, base.Imm = OpSd, SP, rs2_5, imm
		return base
	}
	return Inst{Op: OpIllegal, Compressed: true, Raw: uint32(h)}
}
