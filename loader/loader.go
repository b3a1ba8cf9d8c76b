// Package loader parses a statically-linked RISC-V ELF executable into a
// VM's memory and constructs the initial Linux-style user-mode stack frame
// (argv/envp/auxv) that the guest's startup code expects.
package loader

import (
	"crypto/rand"
	"debug/elf"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lookbusy1344/riscvm/vm"
)

// Stack layout constants for the initial argv/envp/auxv frame.
const (
	StackTop         uint64 = 0x7FFF_FFFF_FFFF_FFF0
	DefaultStackSize uint64 = 8 * 1024 * 1024

	auxPHDR   = 3
	auxPHENT  = 4
	auxPHNUM  = 5
	auxPAGESZ = 6
	auxENTRY  = 9
	auxUID    = 11
	auxEUID   = 12
	auxGID    = 13
	auxEGID   = 14
	auxCLKTCK = 17
	auxSECURE = 23
	auxRANDOM = 25
	auxEXECFN = 31
	auxNULL   = 0

	pageSize   = 4096
	defaultUID = 1000
	clockTicks = 100
)

// LoadResult carries everything the caller (typically package main) needs
// after a successful load: the entry PC (already also written into the
// VM's CPU) and the initial stack pointer.
type LoadResult struct {
	Entry uint64
	SP    uint64
}

// Load parses the ELF file at path, maps its PT_LOAD segments into m's
// memory, and builds the initial stack for argv=[basename(path),
// extraArgs...] and the host's own environment. stackSize selects the size of the stack
// region ending at StackTop; zero means DefaultStackSize. It returns the
// entry point and initial SP, and also writes both into cpu (PC and x2/sp)
// directly so callers can run the VM immediately.
func Load(path string, extraArgs []string, stackSize uint64, m *vm.Memory, cpu *vm.CPU) (*LoadResult, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf %q: %w", path, err)
	}
	defer f.Close()

	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("elf %q: wrong machine %s, want EM_RISCV", path, f.Machine)
	}
	if f.Class != elf.ELFCLASS64 {
		return nil, fmt.Errorf("elf %q: not a 64-bit ELF", path)
	}

	var phdrVaddr uint64
	imageMarked := false

	for _, prog := range f.Progs {
		if prog.Type == elf.PT_PHDR {
			phdrVaddr = prog.Vaddr
			continue
		}
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Filesz)
		if prog.Filesz > 0 {
			if _, err := prog.ReadAt(data, 0); err != nil {
				return nil, fmt.Errorf("read PT_LOAD segment at 0x%x: %w", prog.Vaddr, err)
			}
		}
		name := fmt.Sprintf("load:0x%x", prog.Vaddr)
		if err := m.AddRegion(prog.Vaddr, prog.Memsz, data, name, !imageMarked); err != nil {
			return nil, fmt.Errorf("map PT_LOAD segment at 0x%x: %w", prog.Vaddr, err)
		}
		imageMarked = true
	}

	if stackSize == 0 {
		stackSize = DefaultStackSize
	}
	stackStart := StackTop - stackSize
	if err := m.AddRegion(stackStart, stackSize, nil, ".stack", false); err != nil {
		return nil, fmt.Errorf("map stack: %w", err)
	}

	sp, err := buildStack(m, path, extraArgs, f, phdrVaddr)
	if err != nil {
		return nil, fmt.Errorf("build initial stack: %w", err)
	}

	cpu.PC = f.Entry
	cpu.SetX(vm.SP, sp)

	return &LoadResult{Entry: f.Entry, SP: sp}, nil
}

// buildStack populates the stack region top-down the way a Linux kernel
// sets up a new process image: random bytes, environment strings, argv
// strings, alignment, the auxv, and finally the argv/envp pointer vectors
// and argc. It returns the final stack pointer.
func buildStack(m *vm.Memory, guestName string, extraArgs []string, f *elf.File, phdrVaddr uint64) (uint64, error) {
	sp := StackTop

	push := func(n uint64) uint64 {
		sp -= n
		return sp
	}
	writeCString := func(s string) (uint64, error) {
		b := append([]byte(s), 0)
		addr := push(uint64(len(b)))
		if err := m.LoadBytes(addr, b); err != nil {
			return 0, err
		}
		return addr, nil
	}

	// 1. 16 random bytes for AT_RANDOM.
	randBuf := make([]byte, 16)
	if _, err := rand.Read(randBuf); err != nil {
		return 0, fmt.Errorf("generate AT_RANDOM bytes: %w", err)
	}
	randAddr := push(16)
	if err := m.LoadBytes(randAddr, randBuf); err != nil {
		return 0, err
	}

	// 2. Host environment variables, top-down. The bytes are written but
	// no pointer to them is linked into envp; only the NULL terminator is
	// pushed later, so the guest sees an empty environment.
	for _, kv := range hostEnviron() {
		if _, err := writeCString(kv); err != nil {
			return 0, err
		}
	}

	// 3. Extra command-line arguments (argv[2:]), in forward order so the
	// saved-pointer list below, once reversed, restores argv order.
	var argvPtrs []uint64
	for _, a := range extraArgs {
		addr, err := writeCString(a)
		if err != nil {
			return 0, err
		}
		argvPtrs = append(argvPtrs, addr)
	}

	// 4. argv[1], the guest's own basename.
	execfnAddr, err := writeCString(filepath.Base(guestName))
	if err != nil {
		return 0, err
	}
	argvPtrs = append([]uint64{execfnAddr}, argvPtrs...)

	// 5. Align SP to 16 bytes.
	sp &^= 0xF

	// 6. Auxv.
	type auxEntry struct{ key, val uint64 }
	var aux []auxEntry
	if phdrVaddr != 0 {
		aux = append(aux, auxEntry{auxPHDR, phdrVaddr})
	}
	aux = append(aux,
		auxEntry{auxPHENT, uint64(elfProgHeaderSize(f))},
		auxEntry{auxPHNUM, uint64(len(f.Progs))},
		auxEntry{auxPAGESZ, pageSize},
		auxEntry{auxENTRY, f.Entry},
		auxEntry{auxUID, defaultUID},
		auxEntry{auxEUID, defaultUID},
		auxEntry{auxGID, defaultUID},
		auxEntry{auxEGID, defaultUID},
		auxEntry{auxSECURE, 0},
		auxEntry{auxRANDOM, randAddr},
		auxEntry{auxCLKTCK, clockTicks},
		auxEntry{auxEXECFN, execfnAddr},
		auxEntry{auxNULL, 0},
	)
	for i := len(aux) - 1; i >= 0; i-- {
		if err := m.WriteU64(push(8), aux[i].val); err != nil {
			return 0, err
		}
		if err := m.WriteU64(push(8), aux[i].key); err != nil {
			return 0, err
		}
	}

	// 7. envp NULL terminator.
	if err := m.WriteU64(push(8), 0); err != nil {
		return 0, err
	}

	// 8. argv NULL terminator.
	if err := m.WriteU64(push(8), 0); err != nil {
		return 0, err
	}

	// 9. Saved argv pointers, in reverse push order (so argv[0] ends up
	// closest to argc, matching the C startup convention).
	for i := len(argvPtrs) - 1; i >= 0; i-- {
		if err := m.WriteU64(push(8), argvPtrs[i]); err != nil {
			return 0, err
		}
	}

	// 10. argc.
	if err := m.WriteU64(push(8), uint64(len(argvPtrs))); err != nil {
		return 0, err
	}

	return sp, nil
}

// hostEnviron returns the host process's environment as "K=V" strings.
// Their bytes land on the stack but no pointer to them is linked into
// envp; linking them corrupts libc startup on some static guests.
func hostEnviron() []string {
	return os.Environ()
}

func elfProgHeaderSize(f *elf.File) int {
	if f.Class == elf.ELFCLASS64 {
		return 56
	}
	return 32
}
