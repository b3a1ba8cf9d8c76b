package vm

// Decode interprets a 32-bit fetch window as either one 32-bit instruction
// or one 16-bit compressed instruction, chosen by the low 2 bits of the
// window (the C extension's quadrant field; 11 means a full-width
// instruction). Callers are responsible for fetching only 16 bits from
// memory when a compressed form is returned, and for advancing PC by 2 or 4
// accordingly.
func Decode(word uint32) Inst {
	if word&0x3 == 0x3 {
		return decode32(word)
	}
	return decode16(uint16(word))
}
