package vm

import "math"

// executeFloat applies RV64F/D semantics: fused multiply-add, basic
// arithmetic, sign injection, min/max, compares, classification, the
// FMV/FCVT register-moving and conversion forms, and the FLW/FSW/FLD/FSD
// loads and stores.
//
// Arithmetic (add/sub/mul/div/sqrt and the single-precision FMA forms) is
// computed with Go's native float32/float64 operators, which round to
// nearest-even in hardware; the double-precision FMA forms use math.FMA,
// which rounds once. The instruction's rm field is honored explicitly only where this engine can
// control rounding directly — the float-to-integer conversions — matching
// the reference implementation, whose own round_f32/round_f64 helpers are
// likewise only ever reached from the conversion path.
func (vm *VM) executeFloat(pc uint64, inst Inst) error {
	c := vm.CPU
	m := vm.Mem

	switch inst.Op {
	case OpFlw:
		addr := c.GetX(inst.Rs1) + uint64(inst.Imm)
		v, err := m.ReadU32(addr)
		if err != nil {
			return err
		}
		c.SetF32(inst.Rd, v)
		return nil
	case OpFsw:
		addr := c.GetX(inst.Rs1) + uint64(inst.Imm)
		return m.WriteU32(addr, c.GetF32(inst.Rs2))
	case OpFld:
		addr := c.GetX(inst.Rs1) + uint64(inst.Imm)
		v, err := m.ReadU64(addr)
		if err != nil {
			return err
		}
		c.SetF(inst.Rd, v)
		return nil
	case OpFsd:
		addr := c.GetX(inst.Rs1) + uint64(inst.Imm)
		return m.WriteU64(addr, c.GetF(inst.Rs2))
	}

	switch inst.Op {
	case OpFmadds, OpFmsubs, OpFnmsubs, OpFnmadds:
		a, b, n := f32(c.GetF32(inst.Rs1)), f32(c.GetF32(inst.Rs2)), f32(c.GetF32(inst.Rs3))
		c.SetF32(inst.Rd, bits32(fma32(inst.Op, a, b, n)))
		return nil
	case OpFmaddd, OpFmsubd, OpFnmsubd, OpFnmaddd:
		a, b, n := f64(c.GetF(inst.Rs1)), f64(c.GetF(inst.Rs2)), f64(c.GetF(inst.Rs3))
		c.SetF(inst.Rd, bits64(fma64(inst.Op, a, b, n)))
		return nil

	case OpFadds:
		c.SetF32(inst.Rd, bits32(f32(c.GetF32(inst.Rs1))+f32(c.GetF32(inst.Rs2))))
		return nil
	case OpFsubs:
		c.SetF32(inst.Rd, bits32(f32(c.GetF32(inst.Rs1))-f32(c.GetF32(inst.Rs2))))
		return nil
	case OpFmuls:
		c.SetF32(inst.Rd, bits32(f32(c.GetF32(inst.Rs1))*f32(c.GetF32(inst.Rs2))))
		return nil
	case OpFdivs:
		c.SetF32(inst.Rd, bits32(f32(c.GetF32(inst.Rs1))/f32(c.GetF32(inst.Rs2))))
		return nil
	case OpFsqrts:
		c.SetF32(inst.Rd, bits32(float32(math.Sqrt(float64(f32(c.GetF32(inst.Rs1)))))))
		return nil

	case OpFaddd:
		c.SetF(inst.Rd, bits64(f64(c.GetF(inst.Rs1))+f64(c.GetF(inst.Rs2))))
		return nil
	case OpFsubd:
		c.SetF(inst.Rd, bits64(f64(c.GetF(inst.Rs1))-f64(c.GetF(inst.Rs2))))
		return nil
	case OpFmuld:
		c.SetF(inst.Rd, bits64(f64(c.GetF(inst.Rs1))*f64(c.GetF(inst.Rs2))))
		return nil
	case OpFdivd:
		c.SetF(inst.Rd, bits64(f64(c.GetF(inst.Rs1))/f64(c.GetF(inst.Rs2))))
		return nil
	case OpFsqrtd:
		c.SetF(inst.Rd, bits64(math.Sqrt(f64(c.GetF(inst.Rs1)))))
		return nil

	case OpFsgnjs:
		c.SetF32(inst.Rd, sgnj32(c.GetF32(inst.Rs1), c.GetF32(inst.Rs2), sgnjCopy))
		return nil
	case OpFsgnjns:
		c.SetF32(inst.Rd, sgnj32(c.GetF32(inst.Rs1), c.GetF32(inst.Rs2), sgnjNeg))
		return nil
	case OpFsgnjxs:
		c.SetF32(inst.Rd, sgnj32(c.GetF32(inst.Rs1), c.GetF32(inst.Rs2), sgnjXor))
		return nil
	case OpFsgnjd:
		c.SetF(inst.Rd, sgnj64(c.GetF(inst.Rs1), c.GetF(inst.Rs2), sgnjCopy))
		return nil
	case OpFsgnjnd:
		c.SetF(inst.Rd, sgnj64(c.GetF(inst.Rs1), c.GetF(inst.Rs2), sgnjNeg))
		return nil
	case OpFsgnjxd:
		c.SetF(inst.Rd, sgnj64(c.GetF(inst.Rs1), c.GetF(inst.Rs2), sgnjXor))
		return nil

	case OpFmins:
		// Widening to float64 quiets a signaling NaN, so check the raw bits.
		if isSNaN32(c.GetF32(inst.Rs1)) || isSNaN32(c.GetF32(inst.Rs2)) {
			c.FCSR.setNV()
		}
		c.SetF32(inst.Rd, bits32(float32(minMaxNum(float64(f32(c.GetF32(inst.Rs1))), float64(f32(c.GetF32(inst.Rs2))), &c.FCSR, true))))
		return nil
	case OpFmaxs:
		if isSNaN32(c.GetF32(inst.Rs1)) || isSNaN32(c.GetF32(inst.Rs2)) {
			c.FCSR.setNV()
		}
		c.SetF32(inst.Rd, bits32(float32(minMaxNum(float64(f32(c.GetF32(inst.Rs1))), float64(f32(c.GetF32(inst.Rs2))), &c.FCSR, false))))
		return nil
	case OpFmind:
		c.SetF(inst.Rd, bits64(minMaxNum(f64(c.GetF(inst.Rs1)), f64(c.GetF(inst.Rs2)), &c.FCSR, true)))
		return nil
	case OpFmaxd:
		c.SetF(inst.Rd, bits64(minMaxNum(f64(c.GetF(inst.Rs1)), f64(c.GetF(inst.Rs2)), &c.FCSR, false)))
		return nil

	case OpFeqs:
		c.SetX(inst.Rd, boolToX(feq(float64(f32(c.GetF32(inst.Rs1))), float64(f32(c.GetF32(inst.Rs2))), &c.FCSR)))
		return nil
	case OpFlts:
		c.SetX(inst.Rd, boolToX(flt(float64(f32(c.GetF32(inst.Rs1))), float64(f32(c.GetF32(inst.Rs2))), &c.FCSR)))
		return nil
	case OpFles:
		c.SetX(inst.Rd, boolToX(fle(float64(f32(c.GetF32(inst.Rs1))), float64(f32(c.GetF32(inst.Rs2))), &c.FCSR)))
		return nil
	case OpFeqd:
		c.SetX(inst.Rd, boolToX(feq(f64(c.GetF(inst.Rs1)), f64(c.GetF(inst.Rs2)), &c.FCSR)))
		return nil
	case OpFltd:
		c.SetX(inst.Rd, boolToX(flt(f64(c.GetF(inst.Rs1)), f64(c.GetF(inst.Rs2)), &c.FCSR)))
		return nil
	case OpFled:
		c.SetX(inst.Rd, boolToX(fle(f64(c.GetF(inst.Rs1)), f64(c.GetF(inst.Rs2)), &c.FCSR)))
		return nil

	case OpFclasss:
		c.SetX(inst.Rd, fclass32(c.GetF32(inst.Rs1)))
		return nil
	case OpFclassd:
		c.SetX(inst.Rd, fclass64(c.GetF(inst.Rs1)))
		return nil

	case OpFmvxw:
		c.SetX(inst.Rd, uint64(int64(int32(c.GetF32(inst.Rs1)))))
		return nil
	case OpFmvwx:
		c.SetF32(inst.Rd, uint32(c.GetX(inst.Rs1)))
		return nil
	case OpFmvxd:
		c.SetX(inst.Rd, c.GetF(inst.Rs1))
		return nil
	case OpFmvdx:
		c.SetF(inst.Rd, c.GetX(inst.Rs1))
		return nil

	case OpFcvtws:
		c.SetX(inst.Rd, f2i(float64(f32(c.GetF32(inst.Rs1))), c.effectiveRoundingMode(inst.RM), true, 32, &c.FCSR))
		return nil
	case OpFcvtwus:
		c.SetX(inst.Rd, f2i(float64(f32(c.GetF32(inst.Rs1))), c.effectiveRoundingMode(inst.RM), false, 32, &c.FCSR))
		return nil
	case OpFcvtls:
		c.SetX(inst.Rd, f2i(float64(f32(c.GetF32(inst.Rs1))), c.effectiveRoundingMode(inst.RM), true, 64, &c.FCSR))
		return nil
	case OpFcvtlus:
		c.SetX(inst.Rd, f2i(float64(f32(c.GetF32(inst.Rs1))), c.effectiveRoundingMode(inst.RM), false, 64, &c.FCSR))
		return nil
	case OpFcvtwd:
		c.SetX(inst.Rd, f2i(f64(c.GetF(inst.Rs1)), c.effectiveRoundingMode(inst.RM), true, 32, &c.FCSR))
		return nil
	case OpFcvtwud:
		c.SetX(inst.Rd, f2i(f64(c.GetF(inst.Rs1)), c.effectiveRoundingMode(inst.RM), false, 32, &c.FCSR))
		return nil
	case OpFcvtld:
		c.SetX(inst.Rd, f2i(f64(c.GetF(inst.Rs1)), c.effectiveRoundingMode(inst.RM), true, 64, &c.FCSR))
		return nil
	case OpFcvtldu:
		c.SetX(inst.Rd, f2i(f64(c.GetF(inst.Rs1)), c.effectiveRoundingMode(inst.RM), false, 64, &c.FCSR))
		return nil

	case OpFcvtsw:
		c.SetF32(inst.Rd, bits32(float32(int32(c.GetX(inst.Rs1)))))
		return nil
	case OpFcvtswu:
		c.SetF32(inst.Rd, bits32(float32(uint32(c.GetX(inst.Rs1)))))
		return nil
	case OpFcvtsl:
		c.SetF32(inst.Rd, bits32(float32(int64(c.GetX(inst.Rs1)))))
		return nil
	case OpFcvtslu:
		c.SetF32(inst.Rd, bits32(float32(c.GetX(inst.Rs1))))
		return nil
	case OpFcvtdw:
		c.SetF(inst.Rd, bits64(float64(int32(c.GetX(inst.Rs1)))))
		return nil
	case OpFcvtdwu:
		c.SetF(inst.Rd, bits64(float64(uint32(c.GetX(inst.Rs1)))))
		return nil
	case OpFcvtdl:
		c.SetF(inst.Rd, bits64(float64(int64(c.GetX(inst.Rs1)))))
		return nil
	case OpFcvtdlu:
		c.SetF(inst.Rd, bits64(float64(c.GetX(inst.Rs1))))
		return nil

	case OpFcvtsd:
		c.SetF32(inst.Rd, bits32(float32(f64(c.GetF(inst.Rs1)))))
		return nil
	case OpFcvtds:
		c.SetF(inst.Rd, bits64(float64(f32(c.GetF32(inst.Rs1)))))
		return nil
	}

	return &UnimplementedError{PC: pc, Name: "float"}
}

func f32(bits uint32) float32 { return math.Float32frombits(bits) }
func bits32(v float32) uint32 { return math.Float32bits(v) }
func f64(bits uint64) float64 { return math.Float64frombits(bits) }
func bits64(v float64) uint64 { return math.Float64bits(v) }

func fma32(op Op, a, b, n float32) float32 {
	switch op {
	case OpFmadds:
		return a*b + n
	case OpFmsubs:
		return a*b - n
	case OpFnmsubs:
		return -(a*b - n)
	case OpFnmadds:
		return -(a*b + n)
	}
	return 0
}

func fma64(op Op, a, b, n float64) float64 {
	switch op {
	case OpFmaddd:
		return math.FMA(a, b, n)
	case OpFmsubd:
		return math.FMA(a, b, -n)
	case OpFnmsubd:
		return -math.FMA(a, b, -n)
	case OpFnmaddd:
		return -math.FMA(a, b, n)
	}
	return 0
}

type sgnjMode int

const (
	sgnjCopy sgnjMode = iota
	sgnjNeg
	sgnjXor
)

func sgnj32(rs1, rs2 uint32, mode sgnjMode) uint32 {
	mag := rs1 &^ (1 << 31)
	var sign uint32
	switch mode {
	case sgnjCopy:
		sign = rs2 & (1 << 31)
	case sgnjNeg:
		sign = (^rs2) & (1 << 31)
	case sgnjXor:
		sign = (rs1 ^ rs2) & (1 << 31)
	}
	return mag | sign
}

func sgnj64(rs1, rs2 uint64, mode sgnjMode) uint64 {
	mag := rs1 &^ (1 << 63)
	var sign uint64
	switch mode {
	case sgnjCopy:
		sign = rs2 & (1 << 63)
	case sgnjNeg:
		sign = (^rs2) & (1 << 63)
	case sgnjXor:
		sign = (rs1 ^ rs2) & (1 << 63)
	}
	return mag | sign
}

// minMaxNum implements IEEE 754-2008 minNum/maxNum: a NaN operand is
// ignored in favor of the other (numeric) operand, and a signaling NaN
// additionally raises NV. If both operands are NaN, NaN is returned.
func minMaxNum(a, b float64, fcsr *FCSR, wantMin bool) float64 {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	if aNaN && isSNaN64(math.Float64bits(a)) {
		fcsr.setNV()
	}
	if bNaN && isSNaN64(math.Float64bits(b)) {
		fcsr.setNV()
	}
	switch {
	case aNaN && bNaN:
		return a
	case aNaN:
		return b
	case bNaN:
		return a
	}
	if wantMin {
		return math.Min(a, b)
	}
	return math.Max(a, b)
}

func feq(a, b float64, fcsr *FCSR) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		fcsr.setNV()
		return false
	}
	return a == b
}

func flt(a, b float64, fcsr *FCSR) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		fcsr.setNV()
		return false
	}
	return a < b
}

func fle(a, b float64, fcsr *FCSR) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		fcsr.setNV()
		return false
	}
	return a <= b
}

// f2i converts a float to a signed or unsigned integer of the given bit
// width (32 or 64), rounding per mode and saturating on overflow/NaN the
// way the RISC-V manual specifies for FCVT's invalid-operation case.
func f2i(v float64, mode RoundingMode, signed bool, bitsWide int, fcsr *FCSR) uint64 {
	if math.IsNaN(v) {
		fcsr.setNV()
		if signed {
			if bitsWide == 32 {
				return uint64(int64(math.MaxInt32))
			}
			return uint64(int64(math.MaxInt64))
		}
		if bitsWide == 32 {
			return uint64(math.MaxUint32)
		}
		return math.MaxUint64
	}

	rounded := roundFloat64(v, mode)

	if signed {
		var lo, hi float64
		if bitsWide == 32 {
			lo, hi = math.MinInt32, math.MaxInt32
		} else {
			lo, hi = math.MinInt64, math.MaxInt64
		}
		if rounded < lo {
			fcsr.setNV()
			return uint64(int64(lo))
		}
		// float64(MaxInt64) rounds up to 2^63, which is already out of range.
		if rounded > hi || (bitsWide == 64 && rounded == hi) {
			fcsr.setNV()
			if bitsWide == 32 {
				return uint64(int64(math.MaxInt32))
			}
			return uint64(int64(math.MaxInt64))
		}
		if bitsWide == 32 {
			return uint64(int64(int32(rounded)))
		}
		return uint64(int64(rounded))
	}

	var hi float64
	if bitsWide == 32 {
		hi = math.MaxUint32
	} else {
		hi = math.MaxUint64
	}
	if rounded < 0 {
		fcsr.setNV()
		return 0
	}
	// float64(MaxUint64) rounds up to 2^64, which is already out of range.
	if rounded > hi || (bitsWide == 64 && rounded == hi) {
		fcsr.setNV()
		if bitsWide == 32 {
			return math.MaxUint32
		}
		return math.MaxUint64
	}
	if bitsWide == 32 {
		return uint64(uint32(rounded))
	}
	return uint64(rounded)
}
