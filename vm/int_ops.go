package vm

// executeInt applies the semantic effect of an RV64I arithmetic/logical
// instruction (including the W-suffix 32-bit variants and LUI/AUIPC).
func (vm *VM) executeInt(pc uint64, inst Inst) error {
	c := vm.CPU
	switch inst.Op {
	case OpAdd:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)+c.GetX(inst.Rs2))
	case OpAddi:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)+uint64(inst.Imm))
	case OpSub:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)-c.GetX(inst.Rs2))
	case OpSlt:
		c.SetX(inst.Rd, boolToX(int64(c.GetX(inst.Rs1)) < int64(c.GetX(inst.Rs2))))
	case OpSlti:
		c.SetX(inst.Rd, boolToX(int64(c.GetX(inst.Rs1)) < inst.Imm))
	case OpSltu:
		c.SetX(inst.Rd, boolToX(c.GetX(inst.Rs1) < c.GetX(inst.Rs2)))
	case OpSltiu:
		c.SetX(inst.Rd, boolToX(c.GetX(inst.Rs1) < uint64(inst.Imm)))
	case OpXor:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)^c.GetX(inst.Rs2))
	case OpXori:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)^uint64(inst.Imm))
	case OpOr:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)|c.GetX(inst.Rs2))
	case OpOri:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)|uint64(inst.Imm))
	case OpAnd:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)&c.GetX(inst.Rs2))
	case OpAndi:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)&uint64(inst.Imm))
	case OpSll:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)<<(c.GetX(inst.Rs2)&0x3F))
	case OpSlli:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)<<(uint64(inst.Imm)&0x3F))
	case OpSrl:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)>>(c.GetX(inst.Rs2)&0x3F))
	case OpSrli:
		c.SetX(inst.Rd, c.GetX(inst.Rs1)>>(uint64(inst.Imm)&0x3F))
	case OpSra:
		c.SetX(inst.Rd, uint64(int64(c.GetX(inst.Rs1))>>(c.GetX(inst.Rs2)&0x3F)))
	case OpSrai:
		c.SetX(inst.Rd, uint64(int64(c.GetX(inst.Rs1))>>(uint64(inst.Imm)&0x3F)))
	case OpLui:
		c.SetX(inst.Rd, uint64(inst.Imm))
	case OpAuipc:
		c.SetX(inst.Rd, pc+uint64(inst.Imm))

	case OpAddw:
		c.SetX(inst.Rd, signExtW(int32(c.GetX(inst.Rs1))+int32(c.GetX(inst.Rs2))))
	case OpAddiw:
		c.SetX(inst.Rd, signExtW(int32(c.GetX(inst.Rs1))+int32(inst.Imm)))
	case OpSubw:
		c.SetX(inst.Rd, signExtW(int32(c.GetX(inst.Rs1))-int32(c.GetX(inst.Rs2))))
	case OpSllw:
		c.SetX(inst.Rd, signExtW(int32(uint32(c.GetX(inst.Rs1))<<(c.GetX(inst.Rs2)&0x1F))))
	case OpSlliw:
		c.SetX(inst.Rd, signExtW(int32(uint32(c.GetX(inst.Rs1))<<(uint64(inst.Imm)&0x1F))))
	case OpSrlw:
		c.SetX(inst.Rd, signExtW(int32(uint32(c.GetX(inst.Rs1))>>(c.GetX(inst.Rs2)&0x1F))))
	case OpSrliw:
		c.SetX(inst.Rd, signExtW(int32(uint32(c.GetX(inst.Rs1))>>(uint64(inst.Imm)&0x1F))))
	case OpSraw:
		c.SetX(inst.Rd, signExtW(int32(c.GetX(inst.Rs1))>>(c.GetX(inst.Rs2)&0x1F)))
	case OpSraiw:
		c.SetX(inst.Rd, signExtW(int32(c.GetX(inst.Rs1))>>(uint64(inst.Imm)&0x1F)))

	default:
		return &UnimplementedError{PC: pc, Name: "int"}
	}
	return nil
}

func boolToX(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// signExtW sign-extends a 32-bit result to 64 bits, per the W-suffix rule.
func signExtW(v int32) uint64 {
	return uint64(int64(v))
}
