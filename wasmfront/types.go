package wasmfront

// Module is a parsed WebAssembly MVP module: typed structures for every
// section, ready for function-level translation. There is no semantic
// resolution here beyond what the binary format itself encodes.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type indices for module-defined functions
	Tables   []TableType
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Elements []Element
	Code     []FuncBody
	Data     []DataSegment

	CustomSections []CustomSection
}

// ValType is a WebAssembly value type byte.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether v is one of the four MVP numeric types.
func (v ValType) IsNumeric() bool {
	switch v {
	case ValI32, ValI64, ValF32, ValF64:
		return true
	default:
		return false
	}
}

// FuncType is a function signature: zero or more parameter types mapping
// to zero or more result types. The MVP permits at most one result; this
// decoder does not enforce that, leaving validation to the translate
// package where the error carries more context.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Import describes a single imported function, table, memory, or global.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// ImportDesc is a tagged union over the four importable kinds, selected by
// Kind (KindFunc, KindTable, KindMemory, KindGlobal).
type ImportDesc struct {
	Kind    byte
	TypeIdx uint32 // valid when Kind == KindFunc
	Table   *TableType
	Memory  *MemoryType
	Global  *GlobalType
}

// TableType describes a table's element type and size limits. Tables are
// decoded but the translator does not read them; no table contents ever
// reach SPIR-V.
type TableType struct {
	ElemType byte
	Limits   Limits
}

// MemoryType describes a linear memory's size limits, in 64KiB pages.
type MemoryType struct {
	Limits Limits
}

// Limits bounds a table or memory.
type Limits struct {
	Min uint64
	Max *uint64
}

// GlobalType describes a global variable's value type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global is a module-defined global with its constant init expression,
// still in raw opcode form (only constant instructions are legal here).
type Global struct {
	Type GlobalType
	Init []byte
}

// Export maps a name to an item in one of the four index spaces.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Element is an active or passive element segment. The translator does
// not read element segments (it rejects call_indirect as unsupported).
type Element struct {
	Flags    uint32
	TableIdx uint32
	Offset   []byte
	FuncIdxs []uint32
}

// FuncBody is a function's local declarations plus its raw instruction
// stream (including the trailing end opcode).
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// LocalEntry groups a run of locals sharing a single declared type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// DataSegment is an active or passive data segment.
type DataSegment struct {
	Flags  uint32
	MemIdx uint32
	Offset []byte
	Init   []byte
}

// CustomSection holds one named custom section verbatim.
type CustomSection struct {
	Name string
	Data []byte
}

// NumImportedFuncs returns how many imports are functions, i.e. the size
// of the imported prefix of the function index space.
func (m *Module) NumImportedFuncs() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			n++
		}
	}
	return n
}

// NumImportedGlobals returns how many imports are globals.
func (m *Module) NumImportedGlobals() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindGlobal {
			n++
		}
	}
	return n
}

// FuncTypeOf returns the signature of the function at the given index in
// the combined (imports-first) function index space, or nil if out of
// range.
func (m *Module) FuncTypeOf(funcIdx uint32) *FuncType {
	imported := uint32(m.NumImportedFuncs())
	if funcIdx < imported {
		seen := uint32(0)
		for _, imp := range m.Imports {
			if imp.Desc.Kind != KindFunc {
				continue
			}
			if seen == funcIdx {
				return m.typeAt(imp.Desc.TypeIdx)
			}
			seen++
		}
		return nil
	}
	local := funcIdx - imported
	if int(local) >= len(m.Funcs) {
		return nil
	}
	return m.typeAt(m.Funcs[local])
}

func (m *Module) typeAt(idx uint32) *FuncType {
	if int(idx) >= len(m.Types) {
		return nil
	}
	return &m.Types[idx]
}

// GlobalTypeOf returns the type of the global at the given index in the
// combined (imports-first) global index space, or nil if out of range.
func (m *Module) GlobalTypeOf(globalIdx uint32) *GlobalType {
	imported := uint32(m.NumImportedGlobals())
	if globalIdx < imported {
		seen := uint32(0)
		for _, imp := range m.Imports {
			if imp.Desc.Kind != KindGlobal {
				continue
			}
			if seen == globalIdx {
				return imp.Desc.Global
			}
			seen++
		}
		return nil
	}
	local := globalIdx - imported
	if int(local) >= len(m.Globals) {
		return nil
	}
	return &m.Globals[local].Type
}
