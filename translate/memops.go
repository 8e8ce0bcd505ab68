package translate

import (
	"github.com/gowasm/wasm2spirv/config"
	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/memory"
	"github.com/gowasm/wasm2spirv/wasmfront"
)

// memAccess describes one load/store opcode's shape: the width it
// touches in linear memory, the Wasm stack type it produces/consumes,
// and, for loads narrower than that stack type, whether the extension
// is sign- or zero-preserving.
type memAccess struct {
	width    uint8
	valType  valueKind
	signed   bool
	isStore  bool
	isLoad   bool
}

var memAccesses = map[byte]memAccess{
	wasmfront.OpI32Load:    {4, wasmfront.ValI32, false, false, true},
	wasmfront.OpI64Load:    {8, wasmfront.ValI64, false, false, true},
	wasmfront.OpF32Load:    {4, wasmfront.ValF32, false, false, true},
	wasmfront.OpF64Load:    {8, wasmfront.ValF64, false, false, true},
	wasmfront.OpI32Load8S:  {1, wasmfront.ValI32, true, false, true},
	wasmfront.OpI32Load8U:  {1, wasmfront.ValI32, false, false, true},
	wasmfront.OpI32Load16S: {2, wasmfront.ValI32, true, false, true},
	wasmfront.OpI32Load16U: {2, wasmfront.ValI32, false, false, true},
	wasmfront.OpI64Load8S:  {1, wasmfront.ValI64, true, false, true},
	wasmfront.OpI64Load8U:  {1, wasmfront.ValI64, false, false, true},
	wasmfront.OpI64Load16S: {2, wasmfront.ValI64, true, false, true},
	wasmfront.OpI64Load16U: {2, wasmfront.ValI64, false, false, true},
	wasmfront.OpI64Load32S: {4, wasmfront.ValI64, true, false, true},
	wasmfront.OpI64Load32U: {4, wasmfront.ValI64, false, false, true},

	wasmfront.OpI32Store:   {4, wasmfront.ValI32, false, true, false},
	wasmfront.OpI64Store:   {8, wasmfront.ValI64, false, true, false},
	wasmfront.OpF32Store:   {4, wasmfront.ValF32, false, true, false},
	wasmfront.OpF64Store:   {8, wasmfront.ValF64, false, true, false},
	wasmfront.OpI32Store8:  {1, wasmfront.ValI32, false, true, false},
	wasmfront.OpI32Store16: {2, wasmfront.ValI32, false, true, false},
	wasmfront.OpI64Store8:  {1, wasmfront.ValI64, false, true, false},
	wasmfront.OpI64Store16: {2, wasmfront.ValI64, false, true, false},
	wasmfront.OpI64Store32: {4, wasmfront.ValI64, false, true, false},
}

// emitMemoryOp lowers any load/store opcode: it computes the byte
// address (dynamic base from the stack plus the instruction's static
// offset immediate), validates static alignment via
// memory.LinearMemory.CheckAlignment, and dispatches to the exact-word
// or sub-word path depending on how the access width relates to the
// configured word size.
func (t *functionTranslator) emitMemoryOp(insn wasmfront.Instruction) ([]ir.Statement, error) {
	access, ok := memAccesses[insn.Opcode]
	if !ok {
		return nil, &errs.UnsupportedFeature{Feature: "memory opcode not recognized"}
	}
	imm := insn.Imm.(wasmfront.MemoryImm)

	if err := t.mem.CheckAlignment(uint32(imm.Offset), memory.AccessWidth(access.width)); err != nil {
		return nil, &errs.ConfigError{Message: err.Error()}
	}

	if access.isStore {
		value := t.stack.popTyped(insn.Opcode, access.valType)
		base := t.stack.popTyped(insn.Opcode, wasmfront.ValI32)
		byteOffset := t.addressOf(base.Expr, imm.Offset)
		return t.storeAt(byteOffset, access.width, value.Expr, access.valType), nil
	}

	base := t.stack.popTyped(insn.Opcode, wasmfront.ValI32)
	byteOffset := t.addressOf(base.Expr, imm.Offset)
	result := t.loadAt(byteOffset, access.width, access.signed, access.valType)
	t.stack.pushExpr(result, access.valType)
	return nil, nil
}

// addressOf combines the dynamic base address (already on the stack as
// an i32, reinterpreted unsigned) with the instruction's static offset
// immediate into a single byte-offset expression.
func (t *functionTranslator) addressOf(base ir.ExpressionHandle, staticOffset uint64) ir.ExpressionHandle {
	baseU := appendExpr(t.fn, ir.ExprAs{Expr: base, Kind: ir.ScalarUint})
	offsetLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(uint32(staticOffset))})
	return appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryAdd, Left: baseU, Right: offsetLit})
}

// loadAt reads width bytes starting at byteOffset and returns them as
// resultType (a 32- or 64-bit Wasm value, sign- or zero-extended per
// signed when width is narrower than resultType).
func (t *functionTranslator) loadAt(byteOffset ir.ExpressionHandle, width uint8, signed bool, resultType valueKind) ir.ExpressionHandle {
	wb := uint8(t.mem.WordBytes)
	if width < wb {
		return t.loadSubWord(byteOffset, width, signed, resultType, wb)
	}
	return t.loadWords(byteOffset, width, signed, resultType, wb)
}

// loadSubWord reads a value narrower than one word (only possible in
// u32-addressed mode for 1- or 2-byte accesses): loads the containing
// word, shifts by the runtime-computed intra-word byte offset, masks
// to width, and sign-extends if requested.
func (t *functionTranslator) loadSubWord(byteOffset ir.ExpressionHandle, width uint8, signed bool, resultType valueKind, wordBytes uint8) ir.ExpressionHandle {
	ptr := t.mem.EmitElementPointer(t.fn, byteOffset)
	word := appendExpr(t.fn, ir.ExprLoad{Pointer: ptr})

	wbLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(uint32(wordBytes))})
	byteInWord := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryModulo, Left: byteOffset, Right: wbLit})
	eightLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(8)})
	shiftBits := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryMultiply, Left: byteInWord, Right: eightLit})

	shifted := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryShiftRight, Left: word, Right: shiftBits})
	maskLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(widthMask(width))})
	masked := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryAnd, Left: shifted, Right: maskLit})

	value32 := masked
	if signed {
		fillLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(uint32(32 - width*8))})
		asSint := appendExpr(t.fn, ir.ExprAs{Expr: masked, Kind: ir.ScalarSint})
		shl := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryShiftLeft, Left: asSint, Right: fillLit})
		value32 = appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryShiftRight, Left: shl, Right: fillLit})
	}
	return t.widenTo(value32, resultType, signed)
}

// loadWords reads a value whose width is an exact multiple of the word
// size by loading ceil(width/wordBytes) consecutive elements and
// composing them little-endian.
func (t *functionTranslator) loadWords(byteOffset ir.ExpressionHandle, width uint8, signed bool, resultType valueKind, wordBytes uint8) ir.ExpressionHandle {
	n := int(width / wordBytes)
	var acc ir.ExpressionHandle
	for i := 0; i < n; i++ {
		off := byteOffset
		if i > 0 {
			delta := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(uint32(i) * uint32(wordBytes))})
			off = appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryAdd, Left: byteOffset, Right: delta})
		}
		ptr := t.mem.EmitElementPointer(t.fn, off)
		word := appendExpr(t.fn, ir.ExprLoad{Pointer: ptr})
		wide := word
		if resultType == wasmfront.ValI64 || resultType == wasmfront.ValF64 {
			wide = appendExpr(t.fn, ir.ExprAs{Expr: word, Kind: ir.ScalarUint, Convert: byteWidth(8)})
		}
		if i == 0 {
			acc = wide
			continue
		}
		shiftLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(uint32(i) * uint32(wordBytes) * 8)})
		shifted := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryShiftLeft, Left: wide, Right: shiftLit})
		acc = appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryInclusiveOr, Left: acc, Right: shifted})
	}

	switch resultType {
	case wasmfront.ValI32:
		kind := ir.ScalarUint
		if signed {
			kind = ir.ScalarSint
		}
		return appendExpr(t.fn, ir.ExprAs{Expr: acc, Kind: kind})
	case wasmfront.ValI64:
		kind := ir.ScalarUint
		if signed {
			kind = ir.ScalarSint
		}
		return appendExpr(t.fn, ir.ExprAs{Expr: acc, Kind: kind})
	case wasmfront.ValF32:
		return appendExpr(t.fn, ir.ExprAs{Expr: acc, Kind: ir.ScalarFloat})
	case wasmfront.ValF64:
		return appendExpr(t.fn, ir.ExprAs{Expr: acc, Kind: ir.ScalarFloat})
	default:
		return acc
	}
}

// widenTo sign- or zero-extends a 32-bit narrow-load result up to
// resultType (a no-op cast when resultType is already i32).
func (t *functionTranslator) widenTo(value32 ir.ExpressionHandle, resultType valueKind, signed bool) ir.ExpressionHandle {
	kind := ir.ScalarUint
	if signed {
		kind = ir.ScalarSint
	}
	if resultType == wasmfront.ValI64 {
		return appendExpr(t.fn, ir.ExprAs{Expr: value32, Kind: kind, Convert: byteWidth(8)})
	}
	return appendExpr(t.fn, ir.ExprAs{Expr: value32, Kind: kind})
}

func byteWidth(w uint8) *uint8 { return &w }

func widthMask(width uint8) uint32 {
	if width >= 4 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << (width * 8)) - 1
}

// storeAt is loadAt's mirror for the store direction.
func (t *functionTranslator) storeAt(byteOffset ir.ExpressionHandle, width uint8, value ir.ExpressionHandle, valType valueKind) []ir.Statement {
	wb := uint8(t.mem.WordBytes)
	if width < wb {
		return t.storeSubWord(byteOffset, width, value, wb)
	}
	return t.storeWords(byteOffset, width, value, wb)
}

// storeSubWord performs a read-modify-write on the single containing
// word: clear the target bits, OR in the shifted value.
func (t *functionTranslator) storeSubWord(byteOffset ir.ExpressionHandle, width uint8, value ir.ExpressionHandle, wordBytes uint8) []ir.Statement {
	ptr := t.mem.EmitElementPointer(t.fn, byteOffset)
	word := appendExpr(t.fn, ir.ExprLoad{Pointer: ptr})

	wbLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(uint32(wordBytes))})
	byteInWord := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryModulo, Left: byteOffset, Right: wbLit})
	eightLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(8)})
	shiftBits := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryMultiply, Left: byteInWord, Right: eightLit})

	maskLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(widthMask(width))})
	valueU := appendExpr(t.fn, ir.ExprAs{Expr: value, Kind: ir.ScalarUint})
	valueMasked := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryAnd, Left: valueU, Right: maskLit})
	valueShifted := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryShiftLeft, Left: valueMasked, Right: shiftBits})

	shiftedMask := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryShiftLeft, Left: maskLit, Right: shiftBits})
	invMask := appendExpr(t.fn, ir.ExprUnary{Op: ir.UnaryBitwiseNot, Expr: shiftedMask})
	cleared := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryAnd, Left: word, Right: invMask})
	newWord := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryInclusiveOr, Left: cleared, Right: valueShifted})

	return []ir.Statement{{Kind: ir.StmtStore{Pointer: ptr, Value: newWord}}}
}

// storeWords writes a value whose width is an exact multiple of the
// word size across ceil(width/wordBytes) consecutive elements, no
// read-modify-write needed since every touched element is fully
// overwritten.
func (t *functionTranslator) storeWords(byteOffset ir.ExpressionHandle, width uint8, value ir.ExpressionHandle, wordBytes uint8) []ir.Statement {
	n := int(width / wordBytes)
	valueU := appendExpr(t.fn, ir.ExprAs{Expr: value, Kind: ir.ScalarUint})

	var stmts []ir.Statement
	for i := 0; i < n; i++ {
		off := byteOffset
		if i > 0 {
			delta := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(uint32(i) * uint32(wordBytes))})
			off = appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryAdd, Left: byteOffset, Right: delta})
		}
		chunk := valueU
		if i > 0 {
			shiftLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralU32(uint32(i) * uint32(wordBytes) * 8)})
			chunk = appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryShiftRight, Left: valueU, Right: shiftLit})
		}
		narrowed := appendExpr(t.fn, ir.ExprAs{Expr: chunk, Kind: ir.ScalarUint, Convert: byteWidth(wordBytes)})
		ptr := t.mem.EmitElementPointer(t.fn, off)
		stmts = append(stmts, ir.Statement{Kind: ir.StmtStore{Pointer: ptr, Value: narrowed}})
	}
	return stmts
}

// emitMemorySizeOrGrow lowers memory.size (always -1, since a
// storage-buffer-backed linear memory has no runtime notion of a page
// count the shader can query) and memory.grow per
// config.MemoryGrowErrorKind: Hard rejects it outright, Soft replaces
// the result with the constant -1 and has no other effect.
func (t *functionTranslator) emitMemorySizeOrGrow(insn wasmfront.Instruction) ([]ir.Statement, error) {
	switch insn.Opcode {
	case wasmfront.OpMemorySize:
		neg1 := appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(-1)})
		t.stack.pushExpr(neg1, wasmfront.ValI32)
		return nil, nil
	case wasmfront.OpMemoryGrow:
		t.stack.pop() // the requested delta, in pages; unused under both policies
		if t.growPolicy == config.MemoryGrowHard {
			return nil, &errs.MemoryGrowRejected{FuncIndex: t.funcIdx}
		}
		neg1 := appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(-1)})
		t.stack.pushExpr(neg1, wasmfront.ValI32)
		return nil, nil
	}
	return nil, nil
}
