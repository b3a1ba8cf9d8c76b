package vm

// Op tags every instruction this engine can execute, plus the sentinel
// OpIllegal for an encoding the decoder could not match.
type Op int

const (
	OpIllegal Op = iota

	// RV64I
	OpAdd
	OpAddi
	OpAuipc
	OpLui
	OpSlt
	OpSlti
	OpSltu
	OpSltiu
	OpXor
	OpXori
	OpOr
	OpOri
	OpAnd
	OpAndi
	OpSll
	OpSlli
	OpSrl
	OpSrli
	OpSra
	OpSrai
	OpSub
	OpAddw
	OpAddiw
	OpSubw
	OpSllw
	OpSlliw
	OpSrlw
	OpSrliw
	OpSraw
	OpSraiw
	OpLb
	OpLh
	OpLw
	OpLd
	OpLbu
	OpLhu
	OpLwu
	OpSb
	OpSh
	OpSw
	OpSd
	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu
	OpJal
	OpJalr
	OpFence
	OpFenceI
	OpEcall
	OpEbreak

	// RV64M
	OpMul
	OpMulh
	OpMulhsu
	OpMulhu
	OpDiv
	OpDivu
	OpRem
	OpRemu
	OpMulw
	OpDivw
	OpDivuw
	OpRemw
	OpRemuw

	// RV64A
	OpLrW
	OpScW
	OpAmoswapW
	OpAmoaddW
	OpAmoxorW
	OpAmoandW
	OpAmoorW
	OpAmominW
	OpAmomaxW
	OpAmominuW
	OpAmomaxuW
	OpLrD
	OpScD
	OpAmoswapD
	OpAmoaddD
	OpAmoxorD
	OpAmoandD
	OpAmoorD
	OpAmominD
	OpAmomaxD
	OpAmominuD
	OpAmomaxuD

	// RV64F/D
	OpFmadds
	OpFmsubs
	OpFnmsubs
	OpFnmadds
	OpFadds
	OpFsubs
	OpFmuls
	OpFdivs
	OpFsqrts
	OpFsgnjs
	OpFsgnjns
	OpFsgnjxs
	OpFmins
	OpFmaxs
	OpFcvtws
	OpFcvtwus
	OpFcvtls
	OpFcvtlus
	OpFmvxw
	OpFeqs
	OpFlts
	OpFles
	OpFclasss
	OpFcvtsw
	OpFcvtswu
	OpFcvtsl
	OpFcvtslu
	OpFmvwx
	OpFlw
	OpFsw

	OpFmaddd
	OpFmsubd
	OpFnmsubd
	OpFnmaddd
	OpFaddd
	OpFsubd
	OpFmuld
	OpFdivd
	OpFsqrtd
	OpFsgnjd
	OpFsgnjnd
	OpFsgnjxd
	OpFmind
	OpFmaxd
	OpFcvtwd
	OpFcvtwud
	OpFcvtld
	OpFcvtldu
	OpFmvxd
	OpFeqd
	OpFltd
	OpFled
	OpFclassd
	OpFcvtdw
	OpFcvtdwu
	OpFcvtdl
	OpFcvtdlu
	OpFcvtsd
	OpFcvtds
	OpFmvdx
	OpFld
	OpFsd
)

// Inst is a decoded instruction value. Not every field is meaningful for
// every Op; unused fields are left zero. Decoded instructions are values,
// never stored beyond the single step that produces and consumes them.
type Inst struct {
	Op         Op
	Rd         int
	Rs1        int
	Rs2        int
	Rs3        int
	Imm        int64
	RM         uint8 // rounding-mode field for F/D ops
	Compressed bool  // true if fetched from a 16-bit encoding
	Raw        uint32
}
