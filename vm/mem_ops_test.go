package vm_test

import (
	"bytes"
	"testing"

	"github.com/lookbusy1344/riscvm/vm"
)

// LB sign-extends a byte whose top bit is set; LBU zero-extends the same
// byte. A single SB writes 0xFF at the shared address so both loads read
// the identical byte.
func TestMem_LbSignExtendsLbuZeroExtends(t *testing.T) {
	m := vm.NewMemory()
	if err := m.AddRegion(0x1000, 0x1000, nil, "text", true); err != nil {
		t.Fatalf("AddRegion text: %v", err)
	}
	if err := m.AddRegion(0x2000, 0x10, nil, "data", false); err != nil {
		t.Fatalf("AddRegion data: %v", err)
	}
	machine := &vm.VM{CPU: vm.NewCPU(), Mem: m, State: vm.Running, MaxCycles: vm.DefaultMaxCycles}
	machine.OutputWriter = &bytes.Buffer{}
	machine.ErrorWriter = &bytes.Buffer{}
	machine.CPU.PC = 0x1000
	machine.CPU.SetX(10, 0x2000) // a0 = base address

	program := []uint32{
		0x0ff00313, // addi x6, x0, 0xFF
		0x00650023, // sb x6, 0(x10)
		0x00050383, // lb x7, 0(x10)
		0x00054403, // lbu x8, 0(x10)
	}
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
	if got := machine.CPU.GetX(7); got != ^uint64(0) {
		t.Errorf("lb of 0xFF = 0x%x, want 0x%x (sign-extended)", got, ^uint64(0))
	}
	if got := machine.CPU.GetX(8); got != 0xFF {
		t.Errorf("lbu of 0xFF = 0x%x, want 0xFF (zero-extended)", got)
	}
}
