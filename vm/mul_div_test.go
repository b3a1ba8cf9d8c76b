package vm_test

import (
	"bytes"
	"testing"

	"github.com/lookbusy1344/riscvm/vm"
)

// runMulDiv executes a small program against x5/x6 preset operands and
// returns the VM so the caller can inspect result registers.
func runMulDiv(t *testing.T, setup []uint32, op uint32) *vm.VM {
	t.Helper()
	m := vm.NewMemory()
	if err := m.AddRegion(0x1000, 0x1000, nil, "text", true); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}
	machine := &vm.VM{CPU: vm.NewCPU(), Mem: m, State: vm.Running, MaxCycles: vm.DefaultMaxCycles}
	machine.OutputWriter = &bytes.Buffer{}
	machine.ErrorWriter = &bytes.Buffer{}
	machine.CPU.PC = 0x1000

	program := append(append([]uint32{}, setup...), op)
	for i, w := range program {
		if err := m.WriteU32(0x1000+uint64(i*4), w); err != nil {
			t.Fatalf("WriteU32: %v", err)
		}
	}
	for range program {
		if err := machine.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	return machine
}

// DIV by zero returns all-ones (the architectural "quotient = -1" rule).
func TestMulDiv_DivByZeroReturnsAllOnes(t *testing.T) {
	// addi x5, x0, 7 ; addi x6, x0, 0 ; div x7, x5, x6
	machine := runMulDiv(t, []uint32{
		0x00700293, // addi x5, x0, 7
		0x00000313, // addi x6, x0, 0
	}, 0x0262c3b3) // div x7, x5, x6
	if got := machine.CPU.GetX(7); got != ^uint64(0) {
		t.Errorf("div by zero = 0x%x, want all-ones", got)
	}
}

// REM by zero returns the dividend unchanged.
func TestMulDiv_RemByZeroReturnsDividend(t *testing.T) {
	// addi x5, x0, 7 ; addi x6, x0, 0 ; rem x8, x5, x6
	machine := runMulDiv(t, []uint32{
		0x00700293, // addi x5, x0, 7
		0x00000313, // addi x6, x0, 0
	}, 0x0262e433) // rem x8, x5, x6
	if got := machine.CPU.GetX(8); got != 7 {
		t.Errorf("rem by zero = %d, want 7 (the dividend)", got)
	}
}

// DIV of INT64_MIN by -1 returns INT64_MIN (signed overflow is not trapped).
func TestMulDiv_DivOverflowReturnsDividend(t *testing.T) {
	// addi x5, x0, 1 ; slli x5, x5, 63 (x5 = INT64_MIN) ; addi x6, x0, -1 ; div x7, x5, x6
	machine := runMulDiv(t, []uint32{
		0x00100293, // addi x5, x0, 1
		0x03f29293, // slli x5, x5, 63
		0xfff00313, // addi x6, x0, -1
	}, 0x0262c3b3) // div x7, x5, x6
	want := uint64(1) << 63
	if got := machine.CPU.GetX(7); got != want {
		t.Errorf("div overflow = 0x%x, want 0x%x (INT64_MIN)", got, want)
	}
}

// REM of INT64_MIN by -1 returns 0.
func TestMulDiv_RemOverflowReturnsZero(t *testing.T) {
	machine := runMulDiv(t, []uint32{
		0x00100293, // addi x5, x0, 1
		0x03f29293, // slli x5, x5, 63
		0xfff00313, // addi x6, x0, -1
	}, 0x0262e433) // rem x8, x5, x6
	if got := machine.CPU.GetX(8); got != 0 {
		t.Errorf("rem overflow = %d, want 0", got)
	}
}

// DIVW of INT32_MIN by -1 returns INT32_MIN, sign-extended to 64 bits.
func TestMulDiv_DivwOverflowReturnsDividend(t *testing.T) {
	// addi x5, x0, 1 ; slliw x5, x5, 31 (x5 low32 = INT32_MIN) ; addi x6, x0, -1 ; divw x7, x5, x6
	machine := runMulDiv(t, []uint32{
		0x00100293, // addi x5, x0, 1
		0x01f2929b, // slliw x5, x5, 31
		0xfff00313, // addi x6, x0, -1
	}, 0x0262c3bb) // divw x7, x5, x6
	minInt32 := int32(-1) << 31
	want := uint64(int64(minInt32))
	if got := machine.CPU.GetX(7); got != want {
		t.Errorf("divw overflow = 0x%x, want 0x%x (INT32_MIN)", got, want)
	}
}

// REMW of INT32_MIN by -1 returns 0.
func TestMulDiv_RemwOverflowReturnsZero(t *testing.T) {
	machine := runMulDiv(t, []uint32{
		0x00100293, // addi x5, x0, 1
		0x01f2929b, // slliw x5, x5, 31
		0xfff00313, // addi x6, x0, -1
	}, 0x0262e43b) // remw x8, x5, x6
	if got := machine.CPU.GetX(8); got != 0 {
		t.Errorf("remw overflow = %d, want 0", got)
	}
}
