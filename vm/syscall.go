package vm

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"

	"github.com/fatih/color"
)

// Linux-style syscall numbers this engine services. Any number not listed
// here is fatal.
const (
	sysLseek            = 62
	sysRead             = 63
	sysWrite            = 64
	sysWritev           = 66
	sysReadlink         = 78
	sysLstat            = 80
	sysExit             = 93
	sysExitGroup        = 94
	sysSetTidAddress    = 96
	sysFutex            = 98
	sysSetRobustList    = 99
	sysClockGettime     = 113
	sysTgkill           = 131
	sysRtSigaction      = 134
	sysRtSigprocmask    = 135
	sysGetpid           = 172
	sysGettid           = 178
	sysBrk              = 214
	sysMmap             = 222
	sysMprotect         = 226
	sysRiscvHwprobe     = 258
	sysPrlimit64        = 261
	sysGetrandom        = 278
)

var ebadf int64 = -9
var enomem int64 = -12

var errStderr = color.New(color.FgRed)

// handleSyscall services the instruction at a7's trap number, reading
// arguments from a0..a5 and writing the result back to a0. Guest-visible
// failures, including a failed brk or mmap allocation, are reported as
// failure values in a0 and never halt the engine; an unsupported syscall
// number is reported through the returned error, which is fatal.
func (vm *VM) handleSyscall() error {
	c := vm.CPU
	num := c.GetX(A7)
	a0, a1, a2 := c.GetX(A0), c.GetX(A1), c.GetX(A2)

	switch num {
	case sysLseek:
		c.SetX(A0, uint64(ebadf))

	case sysRead:
		c.SetX(A0, vm.sysRead(a0, a1, a2))

	case sysWrite:
		c.SetX(A0, vm.sysWrite(uint32(a0), a1, a2))

	case sysWritev:
		c.SetX(A0, vm.sysWritev(uint32(a0), a1, a2))

	case sysReadlink, sysLstat:
		c.SetX(A0, uint64(^uint64(0)))

	case sysExit, sysExitGroup:
		vm.ExitCode = int32(a0)
		vm.State = Halted

	case sysSetTidAddress, sysSetRobustList:
		c.SetX(A0, 0)

	case sysFutex:
		c.SetX(A0, 0)

	case sysClockGettime:
		c.SetX(A0, uint64(^uint64(0)))

	case sysTgkill, sysRtSigaction, sysRtSigprocmask:
		c.SetX(A0, uint64(^uint64(0)))

	case sysGetpid, sysGettid:
		c.SetX(A0, uint64(os.Getpid()))

	case sysBrk:
		c.SetX(A0, vm.sysBrk(a0))

	case sysMmap:
		c.SetX(A0, vm.sysMmap(a0, a1))

	case sysMprotect:
		c.SetX(A0, 0)

	case sysRiscvHwprobe, sysPrlimit64:
		c.SetX(A0, uint64(^uint64(0)))

	case sysGetrandom:
		c.SetX(A0, vm.sysGetrandom(a0, a1))

	default:
		return fmt.Errorf("unsupported syscall number %d at pc=0x%016x", num, c.PC-4)
	}
	return nil
}

func (vm *VM) sysRead(fd, buf, count uint64) uint64 {
	if fd != 0 {
		return uint64(ebadf)
	}
	data := make([]byte, count)
	n, err := vm.stdin().Read(data)
	if err != nil && n == 0 {
		return uint64(^uint64(0)) // -EIO-ish sentinel; reading past EOF is not modeled further
	}
	if err := vm.Mem.LoadBytes(buf, data[:n]); err != nil {
		return uint64(^uint64(0))
	}
	return uint64(n)
}

func (vm *VM) sysWrite(fd uint32, buf, count uint64) uint64 {
	data, err := vm.readGuestBuffer(buf, count)
	if err != nil {
		return uint64(^uint64(0))
	}
	// write goes to host stdout regardless of the guest's fd; only writev
	// does per-fd routing.
	vm.emitOut(data)
	return uint64(len(data))
}

// readGuestBuffer reads count bytes from buf, or (when count is zero) a
// NUL-terminated C string starting at buf, per the write/writev "count==0
// means string" convention.
func (vm *VM) readGuestBuffer(buf, count uint64) ([]byte, error) {
	if count != 0 {
		data := make([]byte, count)
		for i := uint64(0); i < count; i++ {
			b, err := vm.Mem.ReadU8(buf + i)
			if err != nil {
				return nil, err
			}
			data[i] = b
		}
		return data, nil
	}
	var data []byte
	for addr := buf; ; addr++ {
		b, err := vm.Mem.ReadU8(addr)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			break
		}
		data = append(data, b)
	}
	return data, nil
}

func (vm *VM) sysWritev(fd uint32, iov, iovcnt uint64) uint64 {
	var total uint64
	for i := uint64(0); i < iovcnt; i++ {
		entry := iov + i*16
		base, err := vm.Mem.ReadU64(entry)
		if err != nil {
			return total
		}
		length, err := vm.Mem.ReadU64(entry + 8)
		if err != nil {
			return total
		}
		data, err := vm.readGuestBuffer(base, length)
		if err != nil {
			return total
		}
		vm.emitVec(fd, data)
		total += uint64(len(data))
	}
	return total
}

// emitOut writes data to host stdout and flushes so output is observable
// immediately after the syscall returns.
func (vm *VM) emitOut(data []byte) {
	fmt.Fprint(vm.OutputWriter, string(data))
	if f, ok := vm.OutputWriter.(*os.File); ok {
		_ = f.Sync()
	}
}

// emitVec is writev's per-entry sink: fd 2 goes to the host error stream in
// red, anything else to stdout.
func (vm *VM) emitVec(fd uint32, data []byte) {
	if fd == 2 {
		errStderr.Fprint(vm.ErrorWriter, string(data))
		return
	}
	vm.emitOut(data)
}

func (vm *VM) sysBrk(addr uint64) uint64 {
	if addr == 0 {
		end, ok := vm.Mem.FindImageEnd()
		if !ok {
			return uint64(enomem)
		}
		return end
	}
	end, ok := vm.Mem.FindImageEnd()
	if !ok {
		return uint64(enomem)
	}
	if addr <= end {
		return 0
	}
	if err := vm.Mem.ExtendRegionToAddr(addr); err != nil {
		return uint64(enomem)
	}
	return 0
}

func (vm *VM) sysMmap(addr, length uint64) uint64 {
	base := addr
	if base == 0 {
		base = vm.Mem.LowWatermark + 16
	}
	name := fmt.Sprintf("mmap:0x%x", base)
	if err := vm.Mem.AddRegion(base, length, nil, name, false); err != nil {
		return ^uint64(0)
	}
	return base
}

func (vm *VM) sysGetrandom(buf, length uint64) uint64 {
	data := make([]byte, length)
	if _, err := rand.Read(data); err != nil {
		return uint64(^uint64(0))
	}
	if err := vm.Mem.LoadBytes(buf, data); err != nil {
		return uint64(^uint64(0))
	}
	return 0
}

func (vm *VM) stdin() *bufio.Reader {
	vm.fdMu.Lock()
	defer vm.fdMu.Unlock()
	return vm.stdinReader
}
