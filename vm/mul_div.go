package vm

import "math/bits"

// executeMulDiv applies RV64M multiply/divide semantics, including the
// division-by-zero and signed-overflow rules mandated by the architecture.
func (vm *VM) executeMulDiv(pc uint64, inst Inst) error {
	c := vm.CPU
	a := c.GetX(inst.Rs1)
	b := c.GetX(inst.Rs2)

	switch inst.Op {
	case OpMul:
		c.SetX(inst.Rd, a*b)
	case OpMulh:
		c.SetX(inst.Rd, uint64(mulhSigned(int64(a), int64(b))))
	case OpMulhu:
		hi, _ := bits.Mul64(a, b)
		c.SetX(inst.Rd, hi)
	case OpMulhsu:
		c.SetX(inst.Rd, mulhSU(int64(a), b))
	case OpDiv:
		c.SetX(inst.Rd, uint64(divSigned(int64(a), int64(b))))
	case OpDivu:
		c.SetX(inst.Rd, divUnsigned(a, b))
	case OpRem:
		c.SetX(inst.Rd, uint64(remSigned(int64(a), int64(b))))
	case OpRemu:
		c.SetX(inst.Rd, remUnsigned(a, b))

	case OpMulw:
		c.SetX(inst.Rd, signExtW(int32(a)*int32(b)))
	case OpDivw:
		c.SetX(inst.Rd, signExtW(int32(divSigned(int64(int32(a)), int64(int32(b))))))
	case OpDivuw:
		c.SetX(inst.Rd, signExtW(int32(divUnsigned(uint64(uint32(a)), uint64(uint32(b))))))
	case OpRemw:
		c.SetX(inst.Rd, signExtW(int32(remSigned(int64(int32(a)), int64(int32(b))))))
	case OpRemuw:
		c.SetX(inst.Rd, signExtW(int32(remUnsigned(uint64(uint32(a)), uint64(uint32(b))))))

	default:
		return &UnimplementedError{PC: pc, Name: "muldiv"}
	}
	return nil
}

func mulhSigned(a, b int64) int64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return int64(hi)
}

func mulhSU(a int64, b uint64) uint64 {
	hi, _ := bits.Mul64(uint64(a), b)
	if a < 0 {
		hi -= b
	}
	return hi
}

func divSigned(a, b int64) int64 {
	if b == 0 {
		return -1
	}
	if a == minInt64 && b == -1 {
		return a
	}
	return a / b
}

func remSigned(a, b int64) int64 {
	if b == 0 {
		return a
	}
	if a == minInt64 && b == -1 {
		return 0
	}
	return a % b
}

func divUnsigned(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return a / b
}

func remUnsigned(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

const minInt64 = -1 << 63
