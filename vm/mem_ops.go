package vm

// executeMem applies integer loads/stores and the system-class instructions
// (FENCE, ECALL, EBREAK).
func (vm *VM) executeMem(pc uint64, inst Inst) error {
	c := vm.CPU
	m := vm.Mem

	addr := func() uint64 { return c.GetX(inst.Rs1) + uint64(inst.Imm) }

	switch inst.Op {
	case OpLb:
		v, err := m.ReadU8(addr())
		if err != nil {
			return err
		}
		c.SetX(inst.Rd, uint64(int64(int8(v))))
	case OpLbu:
		v, err := m.ReadU8(addr())
		if err != nil {
			return err
		}
		c.SetX(inst.Rd, uint64(v))
	case OpLh:
		v, err := m.ReadU16(addr())
		if err != nil {
			return err
		}
		c.SetX(inst.Rd, uint64(int64(int16(v))))
	case OpLhu:
		v, err := m.ReadU16(addr())
		if err != nil {
			return err
		}
		c.SetX(inst.Rd, uint64(v))
	case OpLw:
		v, err := m.ReadU32(addr())
		if err != nil {
			return err
		}
		c.SetX(inst.Rd, uint64(int64(int32(v))))
	case OpLwu:
		v, err := m.ReadU32(addr())
		if err != nil {
			return err
		}
		c.SetX(inst.Rd, uint64(v))
	case OpLd:
		v, err := m.ReadU64(addr())
		if err != nil {
			return err
		}
		c.SetX(inst.Rd, v)

	case OpSb:
		if err := m.WriteU8(addr(), uint8(c.GetX(inst.Rs2))); err != nil {
			return err
		}
	case OpSh:
		if err := m.WriteU16(addr(), uint16(c.GetX(inst.Rs2))); err != nil {
			return err
		}
	case OpSw:
		if err := m.WriteU32(addr(), uint32(c.GetX(inst.Rs2))); err != nil {
			return err
		}
	case OpSd:
		if err := m.WriteU64(addr(), c.GetX(inst.Rs2)); err != nil {
			return err
		}

	case OpFence, OpFenceI:
		// no-op: single-hart, in-order execution needs no actual fence

	case OpEcall:
		return vm.handleSyscall()

	case OpEbreak:
		return &UnimplementedError{PC: pc, Name: "ebreak"}

	default:
		return &UnimplementedError{PC: pc, Name: "mem"}
	}
	return nil
}
