package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// DefaultMaxCycles is the cycle limit NewVM installs, guarding against a
// runaway guest program. The cycle counter is never reset by Run, so the
// limit bounds the total number of steps over the VM's life.
const DefaultMaxCycles = 100_000_000

// VM ties together the register file, memory, and floating-point state and
// drives the fetch-decode-execute loop. It is the only component allowed to
// mutate CPU/Mem; callers interact with it through Step/Run and the syscall
// results it produces.
type VM struct {
	CPU *CPU
	Mem *Memory

	State State

	MaxCycles uint64
	ExitCode  int32

	// EntryPoint records the loaded program's entry address. The engine
	// does not read it; brk(0) takes the end of image from Mem.
	EntryPoint uint64

	OutputWriter io.Writer
	ErrorWriter  io.Writer

	// fdMu guards stdinReader: Go idiom protects shared mutable state even
	// though a single goroutine is expected to drive Step, since a future
	// caller running Step from a debugger goroutine must not race a
	// SetStdin call against an in-flight read syscall.
	fdMu        sync.Mutex
	stdinReader *bufio.Reader
}

// NewVM returns a VM with fresh CPU/FCSR/memory state and the engine's
// default cycle limit. Callers typically follow this with a loader call
// that populates Mem and sets CPU.PC before the first Step.
func NewVM() *VM {
	return &VM{
		CPU:          NewCPU(),
		Mem:          NewMemory(),
		State:        Running,
		MaxCycles:    DefaultMaxCycles,
		OutputWriter: os.Stdout,
		ErrorWriter:  os.Stderr,
		stdinReader:  bufio.NewReader(os.Stdin),
	}
}

// SetStdin overrides the reader used to service fd=0 reads, letting tests
// and embedders inject canned input instead of the host's real stdin.
func (vm *VM) SetStdin(r io.Reader) {
	vm.fdMu.Lock()
	defer vm.fdMu.Unlock()
	if br, ok := r.(*bufio.Reader); ok {
		vm.stdinReader = br
		return
	}
	vm.stdinReader = bufio.NewReader(r)
}

// Step fetches, decodes, and executes exactly one instruction, then
// advances PC by 2 or 4 per the low two bits of the fetched word, and
// re-asserts the x0-is-zero invariant. It returns a non-nil error for any
// engine-integrity failure (illegal encoding, invalid address, unimplemented
// op, cycle limit) — all of which are fatal.
func (vm *VM) Step() error {
	if vm.State != Running {
		return nil
	}
	if vm.MaxCycles > 0 && vm.CPU.Cycles >= vm.MaxCycles {
		return &CycleLimitError{Limit: vm.MaxCycles}
	}

	pc := vm.CPU.PC
	word, err := vm.fetch(pc)
	if err != nil {
		return fmt.Errorf("fetch at pc=0x%016x: %w", pc, err)
	}

	inst := Decode(word)
	if inst.Op == OpIllegal {
		return &IllegalInstructionError{PC: pc, Raw: inst.Raw}
	}

	advance := uint64(4)
	if inst.Compressed {
		advance = 2
	}
	vm.CPU.PC = pc + advance

	if err := vm.execute(pc, inst); err != nil {
		return fmt.Errorf("execute %s: %w", opName(inst.Op), err)
	}

	vm.CPU.Cycles++
	if !vm.CPU.AssertZeroInvariant() {
		panic("x0 invariant violated")
	}
	return nil
}

// fetch reads the 32-bit fetch window at pc. A compressed instruction only
// needs the low 16 bits to be mapped; reading 4 bytes first and falling
// back to a 2-byte read keeps decode uniform while tolerating a program
// whose last instruction sits at the very end of a mapped region.
func (vm *VM) fetch(pc uint64) (uint32, error) {
	word, err := vm.Mem.ReadU32(pc)
	if err == nil {
		return word, nil
	}
	half, halfErr := vm.Mem.ReadU16(pc)
	if halfErr != nil {
		return 0, err
	}
	return uint32(half), nil
}

// execute dispatches a decoded instruction to the family-specific executor.
func (vm *VM) execute(pc uint64, inst Inst) error {
	switch inst.Op {
	case OpAdd, OpAddi, OpAuipc, OpLui, OpSlt, OpSlti, OpSltu, OpSltiu,
		OpXor, OpXori, OpOr, OpOri, OpAnd, OpAndi,
		OpSll, OpSlli, OpSrl, OpSrli, OpSra, OpSrai, OpSub,
		OpAddw, OpAddiw, OpSubw, OpSllw, OpSlliw, OpSrlw, OpSrliw, OpSraw, OpSraiw:
		return vm.executeInt(pc, inst)

	case OpLb, OpLh, OpLw, OpLd, OpLbu, OpLhu, OpLwu,
		OpSb, OpSh, OpSw, OpSd,
		OpFence, OpFenceI, OpEcall, OpEbreak:
		return vm.executeMem(pc, inst)

	case OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu, OpJal, OpJalr:
		return vm.executeBranch(pc, inst)

	case OpMul, OpMulh, OpMulhsu, OpMulhu, OpDiv, OpDivu, OpRem, OpRemu,
		OpMulw, OpDivw, OpDivuw, OpRemw, OpRemuw:
		return vm.executeMulDiv(pc, inst)

	case OpLrW, OpScW, OpAmoswapW, OpAmoaddW, OpAmoxorW, OpAmoandW, OpAmoorW,
		OpAmominW, OpAmomaxW, OpAmominuW, OpAmomaxuW,
		OpLrD, OpScD, OpAmoswapD, OpAmoaddD, OpAmoxorD, OpAmoandD, OpAmoorD,
		OpAmominD, OpAmomaxD, OpAmominuD, OpAmomaxuD:
		return vm.executeAtomic(pc, inst)

	default:
		return vm.executeFloat(pc, inst)
	}
}

// opName renders an Op for diagnostics without a full mnemonic table; it is
// used only in error wrapping, so a compact numeric form is adequate.
func opName(op Op) string {
	return fmt.Sprintf("op#%d", int(op))
}

// Run steps the engine until it halts or a fatal error occurs.
func (vm *VM) Run() error {
	for vm.State == Running {
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return nil
}

// DumpState writes a human-readable summary to w: PC, run state, cycle
// count, exit code, and the 32 integer registers. Memory regions and float
// registers are not included.
func (vm *VM) DumpState(w io.Writer) {
	fmt.Fprintf(w, "pc=0x%016x state=%s cycles=%d exit=%d\n", vm.CPU.PC, vm.State, vm.CPU.Cycles, vm.ExitCode)
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(w, "x%-2d(%-4s)=0x%016x  x%-2d(%-4s)=0x%016x  x%-2d(%-4s)=0x%016x  x%-2d(%-4s)=0x%016x\n",
			i, RegName(i), vm.CPU.GetX(i),
			i+1, RegName(i+1), vm.CPU.GetX(i+1),
			i+2, RegName(i+2), vm.CPU.GetX(i+2),
			i+3, RegName(i+3), vm.CPU.GetX(i+3))
	}
}
