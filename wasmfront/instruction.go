package wasmfront

// Instruction is a single decoded opcode with its typed immediate, if any.
type Instruction struct {
	Opcode byte
	Imm    interface{}
}

// BlockImm holds the block type for block, loop, and if instructions.
type BlockImm struct {
	Type int32 // BlockTypeVoid/I32/I64/F32/F64, or a type-section index
}

// BranchImm holds the relative label depth for br and br_if.
type BranchImm struct {
	LabelIdx uint32
}

// BrTableImm holds the jump table for br_table.
type BrTableImm struct {
	Labels  []uint32
	Default uint32
}

// CallImm holds the callee function index for call.
type CallImm struct {
	FuncIdx uint32
}

// CallIndirectImm holds the signature and table index for call_indirect.
type CallIndirectImm struct {
	TypeIdx  uint32
	TableIdx uint32
}

// LocalImm holds the local slot index for local.get/set/tee.
type LocalImm struct {
	LocalIdx uint32
}

// GlobalImm holds the global index for global.get/set.
type GlobalImm struct {
	GlobalIdx uint32
}

// MemoryImm holds the static offset and alignment hint for a load/store.
type MemoryImm struct {
	Align  uint32
	Offset uint64
}

// MemoryIdxImm holds the memory index for memory.size/memory.grow; the
// MVP only ever encodes 0 here, but the byte is still present on the wire.
type MemoryIdxImm struct {
	MemIdx uint32
}

// I32Imm holds the constant operand of i32.const.
type I32Imm struct{ Value int32 }

// I64Imm holds the constant operand of i64.const.
type I64Imm struct{ Value int64 }

// F32Imm holds the constant operand of f32.const.
type F32Imm struct{ Value float32 }

// F64Imm holds the constant operand of f64.const.
type F64Imm struct{ Value float64 }

// SelectTypeImm holds the declared result type for typed select (0x1C).
type SelectTypeImm struct {
	Types []ValType
}
