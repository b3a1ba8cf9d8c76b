package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/lookbusy1344/riscvm/loader"
	"github.com/lookbusy1344/riscvm/vm"
)

const (
	testEntry   = 0x10000
	emRISCV     = 243
	emX86_64    = 62
	elfHdrSize  = 64
	progHdrSize = 56
)

// writeTestELF writes a minimal statically-linked 64-bit little-endian ELF
// with a single PT_LOAD segment at testEntry: 4 code bytes (an ecall) backed
// by the file, plus 4 zero-filled bytes of memsz beyond filesz.
func writeTestELF(t *testing.T, name string, machine uint16) string {
	t.Helper()

	code := []byte{0x73, 0x00, 0x00, 0x00} // ecall
	codeOff := uint64(elfHdrSize + progHdrSize)

	buf := make([]byte, codeOff+uint64(len(code)))
	le := binary.LittleEndian

	// ELF header.
	copy(buf, []byte{0x7F, 'E', 'L', 'F', 2, 1, 1, 0}) // 64-bit, little-endian
	le.PutUint16(buf[16:], 2)                          // e_type = ET_EXEC
	le.PutUint16(buf[18:], machine)
	le.PutUint32(buf[20:], 1) // e_version
	le.PutUint64(buf[24:], testEntry)
	le.PutUint64(buf[32:], elfHdrSize) // e_phoff
	le.PutUint16(buf[52:], elfHdrSize)
	le.PutUint16(buf[54:], progHdrSize)
	le.PutUint16(buf[56:], 1) // e_phnum

	// Program header: one PT_LOAD, memsz = filesz + 4 zero bytes.
	ph := buf[elfHdrSize:]
	le.PutUint32(ph[0:], 1) // p_type = PT_LOAD
	le.PutUint32(ph[4:], 5) // p_flags = R+X
	le.PutUint64(ph[8:], codeOff)
	le.PutUint64(ph[16:], testEntry) // p_vaddr
	le.PutUint64(ph[24:], testEntry) // p_paddr
	le.PutUint64(ph[32:], uint64(len(code)))
	le.PutUint64(ph[40:], uint64(len(code))+4) // p_memsz

	copy(buf[codeOff:], code)

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf, 0o755); err != nil {
		t.Fatalf("write test elf: %v", err)
	}
	return path
}

func TestLoad_MapsSegmentsAndSetsEntry(t *testing.T) {
	path := writeTestELF(t, "guest", emRISCV)
	m := vm.NewMemory()
	cpu := vm.NewCPU()

	result, err := loader.Load(path, nil, 0, m, cpu)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Entry != testEntry {
		t.Errorf("entry = 0x%x, want 0x%x", result.Entry, testEntry)
	}
	if cpu.PC != testEntry {
		t.Errorf("cpu.PC = 0x%x, want 0x%x", cpu.PC, testEntry)
	}
	if cpu.GetX(vm.SP) != result.SP {
		t.Errorf("sp register = 0x%x, want 0x%x", cpu.GetX(vm.SP), result.SP)
	}

	// File-backed bytes are copied, the memsz tail is zero-filled.
	word, err := m.ReadU32(testEntry)
	if err != nil {
		t.Fatalf("ReadU32 at entry: %v", err)
	}
	if word != 0x00000073 {
		t.Errorf("code word = 0x%08x, want ecall", word)
	}
	tail, err := m.ReadU32(testEntry + 4)
	if err != nil {
		t.Fatalf("ReadU32 past filesz: %v", err)
	}
	if tail != 0 {
		t.Errorf("memsz tail = 0x%x, want zero-filled", tail)
	}

	// The first PT_LOAD region is the brk target.
	end, ok := m.FindImageEnd()
	if !ok || end != testEntry+8 {
		t.Errorf("image end = 0x%x (ok=%v), want 0x%x", end, ok, testEntry+8)
	}
}

func TestLoad_RejectsWrongMachine(t *testing.T) {
	path := writeTestELF(t, "guest", emX86_64)
	m := vm.NewMemory()
	cpu := vm.NewCPU()

	if _, err := loader.Load(path, nil, 0, m, cpu); err == nil {
		t.Fatal("expected an error for a non-RISC-V ELF")
	}
}

// readCString reads a NUL-terminated guest string for stack-frame assertions.
func readCString(t *testing.T, m *vm.Memory, addr uint64) string {
	t.Helper()
	var b []byte
	for {
		c, err := m.ReadU8(addr + uint64(len(b)))
		if err != nil {
			t.Fatalf("ReadU8 at 0x%x: %v", addr+uint64(len(b)), err)
		}
		if c == 0 {
			return string(b)
		}
		b = append(b, c)
	}
}

func TestLoad_InitialStackFrame(t *testing.T) {
	path := writeTestELF(t, "guest", emRISCV)
	m := vm.NewMemory()
	cpu := vm.NewCPU()

	result, err := loader.Load(path, []string{"alpha", "beta"}, 0, m, cpu)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sp := result.SP

	// argc first, then the argv pointers in order, then the NULL terminator.
	argc, err := m.ReadU64(sp)
	if err != nil {
		t.Fatalf("ReadU64 argc: %v", err)
	}
	if argc != 3 {
		t.Fatalf("argc = %d, want 3", argc)
	}

	argv0, _ := m.ReadU64(sp + 8)
	if got := readCString(t, m, argv0); got != "guest" {
		t.Errorf("argv[0] = %q, want the guest basename", got)
	}
	argv1, _ := m.ReadU64(sp + 16)
	if got := readCString(t, m, argv1); got != "alpha" {
		t.Errorf("argv[1] = %q, want %q", got, "alpha")
	}
	argv2, _ := m.ReadU64(sp + 24)
	if got := readCString(t, m, argv2); got != "beta" {
		t.Errorf("argv[2] = %q, want %q", got, "beta")
	}
	argvNull, _ := m.ReadU64(sp + 32)
	if argvNull != 0 {
		t.Errorf("argv terminator = 0x%x, want 0", argvNull)
	}

	// envp is a single NULL: the environment strings exist on the stack but
	// are deliberately not linked into the vector.
	envNull, _ := m.ReadU64(sp + 40)
	if envNull != 0 {
		t.Errorf("envp terminator = 0x%x, want 0", envNull)
	}

	// The auxv follows: scan for AT_RANDOM (25) and check it points at 16
	// readable bytes, and that the vector is AT_NULL terminated.
	auxStart := sp + 48
	foundRandom := false
	terminated := false
	for off := uint64(0); off < 64*16; off += 16 {
		key, err := m.ReadU64(auxStart + off)
		if err != nil {
			t.Fatalf("ReadU64 auxv key: %v", err)
		}
		val, _ := m.ReadU64(auxStart + off + 8)
		if key == 25 {
			foundRandom = true
			if _, err := m.ReadU64(val); err != nil {
				t.Errorf("AT_RANDOM points at unmapped memory 0x%x", val)
			}
		}
		if key == 0 {
			terminated = true
			break
		}
	}
	if !foundRandom {
		t.Error("auxv missing AT_RANDOM")
	}
	if !terminated {
		t.Error("auxv not AT_NULL terminated")
	}
}

func TestLoad_CustomStackSize(t *testing.T) {
	path := writeTestELF(t, "guest", emRISCV)
	m := vm.NewMemory()
	cpu := vm.NewCPU()

	const small = 64 * 1024
	if _, err := loader.Load(path, nil, small, m, cpu); err != nil {
		t.Fatalf("Load: %v", err)
	}
	// An address just below the shrunken stack region must be unmapped.
	if _, err := m.ReadU8(loader.StackTop - small - 1); err == nil {
		t.Error("expected memory below the smaller stack region to be unmapped")
	}
}
