package vm

// executeBranch applies branches and jumps. pc is the address of the
// instruction being executed; Step has already set CPU.PC to the default
// post-advance value, which these handlers overwrite when control transfers.
func (vm *VM) executeBranch(pc uint64, inst Inst) error {
	c := vm.CPU

	taken := func(cond bool) {
		if cond {
			c.PC = uint64(int64(pc) + inst.Imm)
		}
	}

	switch inst.Op {
	case OpBeq:
		taken(c.GetX(inst.Rs1) == c.GetX(inst.Rs2))
	case OpBne:
		taken(c.GetX(inst.Rs1) != c.GetX(inst.Rs2))
	case OpBlt:
		taken(int64(c.GetX(inst.Rs1)) < int64(c.GetX(inst.Rs2)))
	case OpBge:
		taken(int64(c.GetX(inst.Rs1)) >= int64(c.GetX(inst.Rs2)))
	case OpBltu:
		taken(c.GetX(inst.Rs1) < c.GetX(inst.Rs2))
	case OpBgeu:
		taken(c.GetX(inst.Rs1) >= c.GetX(inst.Rs2))

	case OpJal:
		link := pc + 4
		if inst.Compressed {
			link = pc + 2
		}
		c.SetX(inst.Rd, link)
		c.PC = uint64(int64(pc) + inst.Imm)

	case OpJalr:
		link := pc + 4
		if inst.Compressed {
			link = pc + 2
		}
		target := (c.GetX(inst.Rs1) + uint64(inst.Imm)) &^ 1
		c.SetX(inst.Rd, link)
		c.PC = target

	default:
		return &UnimplementedError{PC: pc, Name: "branch"}
	}
	return nil
}
