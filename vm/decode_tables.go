package vm

// Base opcode field values (bits 6:0).
const (
	opLoad    uint32 = 0x03
	opLoadFP  uint32 = 0x07
	opMiscMem uint32 = 0x0F
	opOpImm   uint32 = 0x13
	opAuipc   uint32 = 0x17
	opOpImm32 uint32 = 0x1B
	opStore   uint32 = 0x23
	opStoreFP uint32 = 0x27
	opAmo     uint32 = 0x2F
	opOp      uint32 = 0x33
	opLui     uint32 = 0x37
	opOp32    uint32 = 0x3B
	opMadd    uint32 = 0x43
	opMsub    uint32 = 0x47
	opNmsub   uint32 = 0x4B
	opNmadd   uint32 = 0x4F
	opOpFP    uint32 = 0x53
	opBranch  uint32 = 0x63
	opJalr    uint32 = 0x67
	opJal     uint32 = 0x6F
	opSystem  uint32 = 0x73
)

const maskOpcode uint32 = 0x7F
const maskFunct3 uint32 = 0x7 << 12
const maskFunct7 uint32 = 0x7F << 25
const maskFunct6 uint32 = 0x3F << 26 // top 6 bits, for shift-immediate funct
const maskRs2Field uint32 = 0x1F << 20
const maskFmt uint32 = 0x3 << 25 // R4-type fmt bits

type buildFn32 func(word uint32) Inst

type entry32 struct {
	mask, pattern uint32
	build         buildFn32
}

func simple32(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rd: rd(word), Rs1: rs1(word), Rs2: rs2(word), Raw: word}
	}
}

func itype32(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rd: rd(word), Rs1: rs1(word), Imm: immI(word), Raw: word}
	}
}

func shift64type(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rd: rd(word), Rs1: rs1(word), Imm: shamt64(word), Raw: word}
	}
}

func shift32type(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rd: rd(word), Rs1: rs1(word), Imm: shamt32(word), Raw: word}
	}
}

func stype32(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rs1: rs1(word), Rs2: rs2(word), Imm: immS(word), Raw: word}
	}
}

func btype32(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rs1: rs1(word), Rs2: rs2(word), Imm: immB(word), Raw: word}
	}
}

func utype32(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rd: rd(word), Imm: immU(word), Raw: word}
	}
}

func amotype(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rd: rd(word), Rs1: rs1(word), Rs2: rs2(word), Raw: word}
	}
}

func fFloat3(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rd: rd(word), Rs1: rs1(word), Rs2: rs2(word), RM: funct3(word), Raw: word}
	}
}

func fFloat2(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rd: rd(word), Rs1: rs1(word), RM: funct3(word), Raw: word}
	}
}

func fR4(op Op) buildFn32 {
	return func(word uint32) Inst {
		return Inst{Op: op, Rd: rd(word), Rs1: rs1(word), Rs2: rs2(word), Rs3: rs3(word), RM: funct3(word), Raw: word}
	}
}

func fLoadStore(op Op) buildFn32 {
	return func(word uint32) Inst {
		if op == OpFlw || op == OpFld {
			return Inst{Op: op, Rd: rd(word), Rs1: rs1(word), Imm: immI(word), Raw: word}
		}
		return Inst{Op: op, Rs1: rs1(word), Rs2: rs2(word), Imm: immS(word), Raw: word}
	}
}

func entry(mask, pattern uint32, b buildFn32) entry32 {
	return entry32{mask: mask, pattern: pattern, build: b}
}

// table32 is the RV64IMAFD data-driven decode table: pattern × mask pairs,
// tried in order. Within this 32-bit table no two entries actually overlap
// (opcode+funct3+funct7 fully disambiguate), so ordering is immaterial here;
// the compressed table below is where ordering is load-bearing.
var table32 = buildTable32()

func buildTable32() []entry32 {
	var t []entry32
	add := func(op Op, opcode uint32, f3 *uint8, f7 *uint32, build buildFn32) {
		mask := maskOpcode
		pat := opcode
		if f3 != nil {
			mask |= maskFunct3
			pat |= uint32(*f3) << 12
		}
		if f7 != nil {
			mask |= maskFunct7
			pat |= *f7 << 25
		}
		t = append(t, entry(mask, pat, build))
	}
	f3 := func(v uint8) *uint8 { return &v }
	f7 := func(v uint32) *uint32 { return &v }

	// RV64I register-register (OP)
	add(OpAdd, opOp, f3(0), f7(0x00), simple32(OpAdd))
	add(OpSub, opOp, f3(0), f7(0x20), simple32(OpSub))
	add(OpSll, opOp, f3(1), f7(0x00), simple32(OpSll))
	add(OpSlt, opOp, f3(2), f7(0x00), simple32(OpSlt))
	add(OpSltu, opOp, f3(3), f7(0x00), simple32(OpSltu))
	add(OpXor, opOp, f3(4), f7(0x00), simple32(OpXor))
	add(OpSrl, opOp, f3(5), f7(0x00), simple32(OpSrl))
	add(OpSra, opOp, f3(5), f7(0x20), simple32(OpSra))
	add(OpOr, opOp, f3(6), f7(0x00), simple32(OpOr))
	add(OpAnd, opOp, f3(7), f7(0x00), simple32(OpAnd))

	// RV64M (OP, funct7=0000001)
	add(OpMul, opOp, f3(0), f7(0x01), simple32(OpMul))
	add(OpMulh, opOp, f3(1), f7(0x01), simple32(OpMulh))
	add(OpMulhsu, opOp, f3(2), f7(0x01), simple32(OpMulhsu))
	add(OpMulhu, opOp, f3(3), f7(0x01), simple32(OpMulhu))
	add(OpDiv, opOp, f3(4), f7(0x01), simple32(OpDiv))
	add(OpDivu, opOp, f3(5), f7(0x01), simple32(OpDivu))
	add(OpRem, opOp, f3(6), f7(0x01), simple32(OpRem))
	add(OpRemu, opOp, f3(7), f7(0x01), simple32(OpRemu))

	// RV64I OP-IMM
	add(OpAddi, opOpImm, f3(0), nil, itype32(OpAddi))
	add(OpSlti, opOpImm, f3(2), nil, itype32(OpSlti))
	add(OpSltiu, opOpImm, f3(3), nil, itype32(OpSltiu))
	add(OpXori, opOpImm, f3(4), nil, itype32(OpXori))
	add(OpOri, opOpImm, f3(6), nil, itype32(OpOri))
	add(OpAndi, opOpImm, f3(7), nil, itype32(OpAndi))
	{
		// SLLI/SRLI/SRAI: 6-bit shamt, top 6 bits of word select sub-op
		mk := func(op Op, f3v uint8, top6 uint32, b buildFn32) {
			mask := maskOpcode | maskFunct3 | maskFunct6
			pat := opOpImm | uint32(f3v)<<12 | top6<<26
			t = append(t, entry(mask, pat, b))
		}
		mk(OpSlli, 1, 0x00, shift64type(OpSlli))
		mk(OpSrli, 5, 0x00, shift64type(OpSrli))
		mk(OpSrai, 5, 0x10, shift64type(OpSrai))
	}

	// RV64I/M word-size variants (OP-32)
	add(OpAddw, opOp32, f3(0), f7(0x00), simple32(OpAddw))
	add(OpSubw, opOp32, f3(0), f7(0x20), simple32(OpSubw))
	add(OpSllw, opOp32, f3(1), f7(0x00), simple32(OpSllw))
	add(OpSrlw, opOp32, f3(5), f7(0x00), simple32(OpSrlw))
	add(OpSraw, opOp32, f3(5), f7(0x20), simple32(OpSraw))
	add(OpMulw, opOp32, f3(0), f7(0x01), simple32(OpMulw))
	add(OpDivw, opOp32, f3(4), f7(0x01), simple32(OpDivw))
	add(OpDivuw, opOp32, f3(5), f7(0x01), simple32(OpDivuw))
	add(OpRemw, opOp32, f3(6), f7(0x01), simple32(OpRemw))
	add(OpRemuw, opOp32, f3(7), f7(0x01), simple32(OpRemuw))

	// OP-IMM-32: ADDIW (full imm), SLLIW/SRLIW/SRAIW (5-bit shamt)
	add(OpAddiw, opOpImm32, f3(0), nil, itype32(OpAddiw))
	{
		mk := func(op Op, f3v uint8, top7 uint32, b buildFn32) {
			mask := maskOpcode | maskFunct3 | maskFunct7
			pat := opOpImm32 | uint32(f3v)<<12 | top7<<25
			t = append(t, entry(mask, pat, b))
		}
		mk(OpSlliw, 1, 0x00, shift32type(OpSlliw))
		mk(OpSrliw, 5, 0x00, shift32type(OpSrliw))
		mk(OpSraiw, 5, 0x20, shift32type(OpSraiw))
	}

	// LUI / AUIPC
	t = append(t, entry(maskOpcode, opLui, utype32(OpLui)))
	t = append(t, entry(maskOpcode, opAuipc, utype32(OpAuipc)))

	// Loads
	add(OpLb, opLoad, f3(0), nil, itype32(OpLb))
	add(OpLh, opLoad, f3(1), nil, itype32(OpLh))
	add(OpLw, opLoad, f3(2), nil, itype32(OpLw))
	add(OpLd, opLoad, f3(3), nil, itype32(OpLd))
	add(OpLbu, opLoad, f3(4), nil, itype32(OpLbu))
	add(OpLhu, opLoad, f3(5), nil, itype32(OpLhu))
	add(OpLwu, opLoad, f3(6), nil, itype32(OpLwu))

	// Stores
	add(OpSb, opStore, f3(0), nil, stype32(OpSb))
	add(OpSh, opStore, f3(1), nil, stype32(OpSh))
	add(OpSw, opStore, f3(2), nil, stype32(OpSw))
	add(OpSd, opStore, f3(3), nil, stype32(OpSd))

	// Branches
	add(OpBeq, opBranch, f3(0), nil, btype32(OpBeq))
	add(OpBne, opBranch, f3(1), nil, btype32(OpBne))
	add(OpBlt, opBranch, f3(4), nil, btype32(OpBlt))
	add(OpBge, opBranch, f3(5), nil, btype32(OpBge))
	add(OpBltu, opBranch, f3(6), nil, btype32(OpBltu))
	add(OpBgeu, opBranch, f3(7), nil, btype32(OpBgeu))

	// Jumps
	t = append(t, entry(maskOpcode, opJal, func(word uint32) Inst {
		return Inst{Op: OpJal, Rd: rd(word), Imm: immJ(word), Raw: word}
	}))
	add(OpJalr, opJalr, f3(0), nil, itype32(OpJalr))

	// Fence / system
	add(OpFence, opMiscMem, f3(0), nil, func(word uint32) Inst {
		return Inst{Op: OpFence, Raw: word}
	})
	add(OpFenceI, opMiscMem, f3(1), nil, func(word uint32) Inst {
		return Inst{Op: OpFenceI, Raw: word}
	})
	t = append(t, entry(0xFFFFFFFF, 0x00000073, func(word uint32) Inst {
		return Inst{Op: OpEcall, Raw: word}
	}))
	t = append(t, entry(0xFFFFFFFF, 0x00100073, func(word uint32) Inst {
		return Inst{Op: OpEbreak, Raw: word}
	}))

	// RV64A: LR/SC/AMO*, aq/rl bits (25,26) are don't-care.
	amoMask := maskOpcode | maskFunct3 | (0x1F << 27)
	addAmo := func(op Op, f3v uint8, funct5 uint32, b buildFn32) {
		pat := opAmo | uint32(f3v)<<12 | funct5<<27
		t = append(t, entry(amoMask, pat, b))
	}
	const (
		amoLR      = 0b00010
		amoSC      = 0b00011
		amoSWAP    = 0b00001
		amoADD     = 0b00000
		amoXOR     = 0b00100
		amoAND     = 0b01100
		amoOR      = 0b01000
		amoMIN     = 0b10000
		amoMAX     = 0b10100
		amoMINU    = 0b11000
		amoMAXU    = 0b11100
	)
	addAmo(OpLrW, 2, amoLR, func(word uint32) Inst {
		return Inst{Op: OpLrW, Rd: rd(word), Rs1: rs1(word), Raw: word}
	})
	addAmo(OpScW, 2, amoSC, amotype(OpScW))
	addAmo(OpAmoswapW, 2, amoSWAP, amotype(OpAmoswapW))
	addAmo(OpAmoaddW, 2, amoADD, amotype(OpAmoaddW))
	addAmo(OpAmoxorW, 2, amoXOR, amotype(OpAmoxorW))
	addAmo(OpAmoandW, 2, amoAND, amotype(OpAmoandW))
	addAmo(OpAmoorW, 2, amoOR, amotype(OpAmoorW))
	addAmo(OpAmominW, 2, amoMIN, amotype(OpAmominW))
	addAmo(OpAmomaxW, 2, amoMAX, amotype(OpAmomaxW))
	addAmo(OpAmominuW, 2, amoMINU, amotype(OpAmominuW))
	addAmo(OpAmomaxuW, 2, amoMAXU, amotype(OpAmomaxuW))

	addAmo(OpLrD, 3, amoLR, func(word uint32) Inst {
		return Inst{Op: OpLrD, Rd: rd(word), Rs1: rs1(word), Raw: word}
	})
	addAmo(OpScD, 3, amoSC, amotype(OpScD))
	addAmo(OpAmoswapD, 3, amoSWAP, amotype(OpAmoswapD))
	addAmo(OpAmoaddD, 3, amoADD, amotype(OpAmoaddD))
	addAmo(OpAmoxorD, 3, amoXOR, amotype(OpAmoxorD))
	addAmo(OpAmoandD, 3, amoAND, amotype(OpAmoandD))
	addAmo(OpAmoorD, 3, amoOR, amotype(OpAmoorD))
	addAmo(OpAmominD, 3, amoMIN, amotype(OpAmominD))
	addAmo(OpAmomaxD, 3, amoMAX, amotype(OpAmomaxD))
	addAmo(OpAmominuD, 3, amoMINU, amotype(OpAmominuD))
	addAmo(OpAmomaxuD, 3, amoMAXU, amotype(OpAmomaxuD))

	// RV64F/D load/store
	add(OpFlw, opLoadFP, f3(2), nil, fLoadStore(OpFlw))
	add(OpFld, opLoadFP, f3(3), nil, fLoadStore(OpFld))
	add(OpFsw, opStoreFP, f3(2), nil, fLoadStore(OpFsw))
	add(OpFsd, opStoreFP, f3(3), nil, fLoadStore(OpFsd))

	// RV64F/D arithmetic (OP-FP), funct7 selects op+fmt
	addFP := func(op Op, funct7 uint32, withFunct3 bool, build buildFn32) {
		mask := maskOpcode | maskFunct7
		pat := opOpFP | funct7<<25
		if withFunct3 {
			mask |= maskFunct3
		}
		t = append(t, entry(mask, pat, build))
	}
	addFP(OpFadds, 0x00, false, fFloat3(OpFadds))
	addFP(OpFsubs, 0x04, false, fFloat3(OpFsubs))
	addFP(OpFmuls, 0x08, false, fFloat3(OpFmuls))
	addFP(OpFdivs, 0x0C, false, fFloat3(OpFdivs))
	addFP(OpFaddd, 0x01, false, fFloat3(OpFaddd))
	addFP(OpFsubd, 0x05, false, fFloat3(OpFsubd))
	addFP(OpFmuld, 0x09, false, fFloat3(OpFmuld))
	addFP(OpFdivd, 0x0D, false, fFloat3(OpFdivd))

	fpFixedRs2 := func(op Op, funct7 uint32, rs2v uint32, withFunct3 bool, build buildFn32) {
		mask := maskOpcode | maskFunct7 | maskRs2Field
		pat := opOpFP | funct7<<25 | rs2v<<20
		if withFunct3 {
			mask |= maskFunct3
		}
		t = append(t, entry(mask, pat, build))
	}
	fpFixedRs2(OpFsqrts, 0x2C, 0, false, fFloat2(OpFsqrts))
	fpFixedRs2(OpFsqrtd, 0x2D, 0, false, fFloat2(OpFsqrtd))

	addFP3 := func(op Op, funct7 uint32, f3v uint8, build buildFn32) {
		mask := maskOpcode | maskFunct7 | maskFunct3
		pat := opOpFP | funct7<<25 | uint32(f3v)<<12
		t = append(t, entry(mask, pat, build))
	}
	addFP3(OpFsgnjs, 0x10, 0, fFloat3(OpFsgnjs))
	addFP3(OpFsgnjns, 0x10, 1, fFloat3(OpFsgnjns))
	addFP3(OpFsgnjxs, 0x10, 2, fFloat3(OpFsgnjxs))
	addFP3(OpFmins, 0x14, 0, fFloat3(OpFmins))
	addFP3(OpFmaxs, 0x14, 1, fFloat3(OpFmaxs))
	addFP3(OpFsgnjd, 0x11, 0, fFloat3(OpFsgnjd))
	addFP3(OpFsgnjnd, 0x11, 1, fFloat3(OpFsgnjnd))
	addFP3(OpFsgnjxd, 0x11, 2, fFloat3(OpFsgnjxd))
	addFP3(OpFmind, 0x15, 0, fFloat3(OpFmind))
	addFP3(OpFmaxd, 0x15, 1, fFloat3(OpFmaxd))
	addFP3(OpFeqs, 0x50, 2, fFloat3(OpFeqs))
	addFP3(OpFlts, 0x50, 1, fFloat3(OpFlts))
	addFP3(OpFles, 0x50, 0, fFloat3(OpFles))
	addFP3(OpFeqd, 0x51, 2, fFloat3(OpFeqd))
	addFP3(OpFltd, 0x51, 1, fFloat3(OpFltd))
	addFP3(OpFled, 0x51, 0, fFloat3(OpFled))

	// FCVT int<->float: funct7 + fixed rs2, rm field free. FMV/FCLASS below
	// match funct7 + funct3; their rs2 field is not checked.
	fpFixedRs2(OpFcvtws, 0x60, 0, false, fFloat2(OpFcvtws))
	fpFixedRs2(OpFcvtwus, 0x60, 1, false, fFloat2(OpFcvtwus))
	fpFixedRs2(OpFcvtls, 0x60, 2, false, fFloat2(OpFcvtls))
	fpFixedRs2(OpFcvtlus, 0x60, 3, false, fFloat2(OpFcvtlus))
	fpFixedRs2(OpFcvtwd, 0x61, 0, false, fFloat2(OpFcvtwd))
	fpFixedRs2(OpFcvtwud, 0x61, 1, false, fFloat2(OpFcvtwud))
	fpFixedRs2(OpFcvtld, 0x61, 2, false, fFloat2(OpFcvtld))
	fpFixedRs2(OpFcvtldu, 0x61, 3, false, fFloat2(OpFcvtldu))
	fpFixedRs2(OpFcvtsw, 0x68, 0, false, fFloat2(OpFcvtsw))
	fpFixedRs2(OpFcvtswu, 0x68, 1, false, fFloat2(OpFcvtswu))
	fpFixedRs2(OpFcvtsl, 0x68, 2, false, fFloat2(OpFcvtsl))
	fpFixedRs2(OpFcvtslu, 0x68, 3, false, fFloat2(OpFcvtslu))
	fpFixedRs2(OpFcvtdw, 0x69, 0, false, fFloat2(OpFcvtdw))
	fpFixedRs2(OpFcvtdwu, 0x69, 1, false, fFloat2(OpFcvtdwu))
	fpFixedRs2(OpFcvtdl, 0x69, 2, false, fFloat2(OpFcvtdl))
	fpFixedRs2(OpFcvtdlu, 0x69, 3, false, fFloat2(OpFcvtdlu))
	fpFixedRs2(OpFcvtsd, 0x20, 1, false, fFloat2(OpFcvtsd))
	fpFixedRs2(OpFcvtds, 0x21, 0, false, fFloat2(OpFcvtds))

	addFP3(OpFmvxw, 0x70, 0, fFloat2(OpFmvxw))
	addFP3(OpFclasss, 0x70, 1, fFloat2(OpFclasss))
	addFP3(OpFmvwx, 0x78, 0, fFloat2(OpFmvwx))
	addFP3(OpFmvxd, 0x71, 0, fFloat2(OpFmvxd))
	addFP3(OpFclassd, 0x71, 1, fFloat2(OpFclassd))
	addFP3(OpFmvdx, 0x79, 0, fFloat2(OpFmvdx))

	// Fused multiply-add (R4-type), fmt bits 26:25 select S/D.
	addR4 := func(op Op, opcode uint32, fmt uint32, build buildFn32) {
		mask := maskOpcode | maskFmt
		pat := opcode | fmt<<25
		t = append(t, entry(mask, pat, build))
	}
	addR4(OpFmadds, opMadd, 0, fR4(OpFmadds))
	addR4(OpFmaddd, opMadd, 1, fR4(OpFmaddd))
	addR4(OpFmsubs, opMsub, 0, fR4(OpFmsubs))
	addR4(OpFmsubd, opMsub, 1, fR4(OpFmsubd))
	addR4(OpFnmsubs, opNmsub, 0, fR4(OpFnmsubs))
	addR4(OpFnmsubd, opNmsub, 1, fR4(OpFnmsubd))
	addR4(OpFnmadds, opNmadd, 0, fR4(OpFnmadds))
	addR4(OpFnmaddd, opNmadd, 1, fR4(OpFnmaddd))

	return t
}

// decode32 finds the first table entry whose mask matches word and returns
// its decoded instruction. An empty match is reported via OpIllegal.
func decode32(word uint32) Inst {
	for _, e := range table32 {
		if word&e.mask == e.pattern {
			return e.build(word)
		}
	}
	return Inst{Op: OpIllegal, Raw: word}
}
