package vm

// Integer register indices with their conventional ABI names.
const (
	Zero = 0
	RA   = 1
	SP   = 2
	GP   = 3
	TP   = 4
	T0   = 5
	T1   = 6
	T2   = 7
	FP   = 8 // s0/fp
	S1   = 9
	A0   = 10
	A1   = 11
	A2   = 12
	A3   = 13
	A4   = 14
	A5   = 15
	A6   = 16
	A7   = 17
	S2   = 18
	S3   = 19
	S4   = 20
	S5   = 21
	S6   = 22
	S7   = 23
	S8   = 24
	S9   = 25
	S10  = 26
	S11  = 27
	T3   = 28
	T4   = 29
	T5   = 30
	T6   = 31
)

var intRegABINames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the conventional ABI name for integer register i.
func RegName(i int) string {
	if i < 0 || i > 31 {
		return "?"
	}
	return intRegABINames[i]
}

// CPU is the RV64GC register file: 32 general-purpose integer registers,
// the program counter, 32 floating-point registers, and the floating-point
// control/status register. x0 is architecturally wired to zero; SetX
// silently discards writes to it.
type CPU struct {
	X  [32]uint64
	PC uint64

	F    [32]uint64
	FCSR FCSR

	Cycles uint64
}

// NewCPU returns a CPU with all state zeroed.
func NewCPU() *CPU {
	return &CPU{}
}

// Reset zeroes all registers, the PC, and FCSR.
func (c *CPU) Reset() {
	*c = CPU{}
}

// GetX reads integer register i. Reading x0 always yields zero.
func (c *CPU) GetX(i int) uint64 {
	if i == Zero {
		return 0
	}
	return c.X[i]
}

// SetX writes integer register i. Writes to x0 are silently discarded.
func (c *CPU) SetX(i int, v uint64) {
	if i == Zero {
		return
	}
	c.X[i] = v
}

// GetF reads the raw 64-bit bit pattern of float register i.
func (c *CPU) GetF(i int) uint64 {
	return c.F[i]
}

// SetF writes the raw 64-bit bit pattern of float register i.
func (c *CPU) SetF(i int, v uint64) {
	c.F[i] = v
}

// GetF32 reads the low 32 bits of float register i as a single-precision
// bit pattern.
func (c *CPU) GetF32(i int) uint32 {
	return uint32(c.F[i])
}

// SetF32 writes a single-precision bit pattern into the low 32 bits of
// float register i and sets the upper 32 bits to all ones (NaN-boxing).
// GetF32 reads only the low 32 bits and does not check the box.
func (c *CPU) SetF32(i int, v uint32) {
	c.F[i] = uint64(v) | 0xFFFFFFFF00000000
}

// AssertZeroInvariant reports whether x0 still reads zero. Step checks it
// at the end of every step and panics if it is false; SetX already guards
// index 0, so the check documents the invariant from the step cycle.
func (c *CPU) AssertZeroInvariant() bool {
	return c.X[Zero] == 0
}
