package vm

import "fmt"

// InvalidAddressError reports a memory access outside any mapped region.
type InvalidAddressError struct {
	Addr uint64
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid memory address: 0x%016x", e.Addr)
}

// RegionOverlapError reports an add_region call that would collide with an
// existing region.
type RegionOverlapError struct {
	ExistingStart uint64
}

func (e *RegionOverlapError) Error() string {
	return fmt.Sprintf("region overlaps existing region starting at 0x%016x", e.ExistingStart)
}

// IllegalInstructionError reports a fetched encoding the decoder could not
// match to any known instruction.
type IllegalInstructionError struct {
	PC  uint64
	Raw uint32
}

func (e *IllegalInstructionError) Error() string {
	return fmt.Sprintf("illegal instruction 0x%08x at pc=0x%016x", e.Raw, e.PC)
}

// UnimplementedError reports a decoded instruction whose executor arm is not
// (yet) implemented. This must always be fatal, never silently skipped.
type UnimplementedError struct {
	PC   uint64
	Name string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("unimplemented instruction %q at pc=0x%016x", e.Name, e.PC)
}

// CycleLimitError reports that the engine's configured step budget was
// exhausted without the guest program halting itself.
type CycleLimitError struct {
	Limit uint64
}

func (e *CycleLimitError) Error() string {
	return fmt.Sprintf("cycle limit of %d exceeded", e.Limit)
}
