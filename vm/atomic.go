package vm

// executeAtomic applies RV64A load-reserved/store-conditional and AMO
// instructions. Single-hart execution means the read-modify-write has no
// observable race, so each AMO is applied as a plain non-atomic sequence and
// SC always succeeds.
func (vm *VM) executeAtomic(pc uint64, inst Inst) error {
	c := vm.CPU
	m := vm.Mem
	addr := c.GetX(inst.Rs1)

	isDouble := false
	switch inst.Op {
	case OpLrD, OpScD, OpAmoswapD, OpAmoaddD, OpAmoxorD, OpAmoandD, OpAmoorD,
		OpAmominD, OpAmomaxD, OpAmominuD, OpAmomaxuD:
		isDouble = true
	}

	loadOld := func() (uint64, error) {
		if isDouble {
			return m.ReadU64(addr)
		}
		v, err := m.ReadU32(addr)
		return uint64(int64(int32(v))), err
	}
	storeNew := func(v uint64) error {
		if isDouble {
			return m.WriteU64(addr, v)
		}
		return m.WriteU32(addr, uint32(v))
	}

	switch inst.Op {
	case OpLrW, OpLrD:
		old, err := loadOld()
		if err != nil {
			return err
		}
		c.SetX(inst.Rd, old)
		return nil
	case OpScW, OpScD:
		if err := storeNew(c.GetX(inst.Rs2)); err != nil {
			return err
		}
		c.SetX(inst.Rd, 0)
		return nil
	}

	old, err := loadOld()
	if err != nil {
		return err
	}
	rs2 := c.GetX(inst.Rs2)

	var result uint64
	switch inst.Op {
	case OpAmoswapW, OpAmoswapD:
		result = rs2
	case OpAmoaddW, OpAmoaddD:
		result = old + rs2
	case OpAmoxorW, OpAmoxorD:
		result = old ^ rs2
	case OpAmoandW, OpAmoandD:
		result = old & rs2
	case OpAmoorW, OpAmoorD:
		result = old | rs2
	case OpAmominW, OpAmominD:
		if less(old, rs2, isDouble) {
			result = old
		} else {
			result = rs2
		}
	case OpAmomaxW, OpAmomaxD:
		if less(old, rs2, isDouble) {
			result = rs2
		} else {
			result = old
		}
	case OpAmominuW, OpAmominuD:
		if lessU(old, rs2, isDouble) {
			result = old
		} else {
			result = rs2
		}
	case OpAmomaxuW, OpAmomaxuD:
		if lessU(old, rs2, isDouble) {
			result = rs2
		} else {
			result = old
		}
	default:
		return &UnimplementedError{PC: pc, Name: "atomic"}
	}

	if err := storeNew(result); err != nil {
		return err
	}
	c.SetX(inst.Rd, old)
	return nil
}

func less(a, b uint64, isDouble bool) bool {
	if isDouble {
		return int64(a) < int64(b)
	}
	return int32(a) < int32(b)
}

func lessU(a, b uint64, isDouble bool) bool {
	if isDouble {
		return a < b
	}
	return uint32(a) < uint32(b)
}
