package memory

import (
	"fmt"

	"github.com/gowasm/wasm2spirv/ir"
)

// LinearMemory is the declared storage-buffer backing for a Wasm
// module's linear memory: a single Block/BufferBlock struct holding
// one runtime-sized array member.
type LinearMemory struct {
	Global      ir.GlobalVariableHandle
	StructType  ir.TypeHandle
	ElementType ir.TypeHandle
	WordBytes   uint32 // 4 for u32-addressed memory, 1 for byte-addressed
}

// DeclareLinearMemory registers the element scalar type, the runtime
// array type, and the wrapping Block struct in types, then appends the
// storage-buffer global variable to module and returns a handle to work
// with it. byteAddressable selects u8 (word = 1 byte) over the default
// u32 (word = 4 bytes) element representation.
func DeclareLinearMemory(module *ir.Module, types *ir.TypeRegistry, byteAddressable bool, set, binding uint32) *LinearMemory {
	wordBytes := uint32(4)
	scalarName := "u32"
	scalar := ir.ScalarType{Kind: ir.ScalarUint, Width: 4}
	if byteAddressable {
		wordBytes = 1
		scalarName = "u8"
		scalar = ir.ScalarType{Kind: ir.ScalarUint, Width: 1}
	}
	elemType := types.GetOrCreate(scalarName, scalar)

	arrayType := types.GetOrCreate("", ir.ArrayType{
		Base:   elemType,
		Size:   ir.ArraySize{Constant: nil},
		Stride: wordBytes,
	})

	structType := types.GetOrCreate("LinearMemory", ir.StructType{
		Members: []ir.StructMember{
			{Name: "words", Type: arrayType, Offset: 0},
		},
		Span: 0, // runtime-sized; Span is meaningless for the trailing member
	})

	handle := ir.GlobalVariableHandle(len(module.GlobalVariables))
	module.GlobalVariables = append(module.GlobalVariables, ir.GlobalVariable{
		Name:  "linear_memory",
		Space: ir.SpaceStorage,
		Binding: &ir.ResourceBinding{
			Group:   set,
			Binding: binding,
		},
		Type: structType,
	})

	return &LinearMemory{
		Global:      handle,
		StructType:  structType,
		ElementType: elemType,
		WordBytes:   wordBytes,
	}
}

// AccessWidth describes the byte width of a single Wasm memory access
// (e.g. 1 for i32.load8_u, 4 for i32.load, 8 for i64.load).
type AccessWidth uint8

// CheckAlignment validates a statically known byte offset against the
// configured word width. u8-addressed memory never rejects: every
// access is already word-exact. u32-addressed memory rejects any
// offset that isn't a multiple of 4, unless the access itself is
// narrower than a word (1 or 2 bytes), since narrow accesses are
// decomposed into a masked load/store by the translator regardless of
// alignment.
func (lm *LinearMemory) CheckAlignment(staticOffset uint32, width AccessWidth) error {
	if lm.WordBytes == 1 {
		return nil
	}
	if width <= 2 {
		return nil
	}
	if staticOffset%lm.WordBytes != 0 {
		return fmt.Errorf("unaligned linear memory access: offset %d is not a multiple of the %d-byte word width", staticOffset, lm.WordBytes)
	}
	return nil
}

// EmitElementPointer appends the expressions needed to turn a byte
// offset expression (already summing the instruction's static offset
// immediate and the dynamic base operand) into a pointer to the word
// element at that address, and returns the handle of the final
// ExprAccess. The caller is responsible for wrapping the newly appended
// expressions in a StmtEmit range before using the result.
//
// byteOffset is divided by WordBytes to produce the element index; for
// WordBytes == 1 this is the offset itself.
func (lm *LinearMemory) EmitElementPointer(fn *ir.Function, byteOffset ir.ExpressionHandle) ir.ExpressionHandle {
	base := appendExpr(fn, ir.ExprGlobalVariable{Variable: lm.Global})
	arrayPtr := appendExpr(fn, ir.ExprAccessIndex{Base: base, Index: 0})

	index := byteOffset
	if lm.WordBytes != 1 {
		divisor := appendExpr(fn, ir.Literal{Value: ir.LiteralU32(lm.WordBytes)})
		index = appendExpr(fn, ir.ExprBinary{
			Op:    ir.BinaryDivide,
			Left:  byteOffset,
			Right: divisor,
		})
	}

	return appendExpr(fn, ir.ExprAccess{Base: arrayPtr, Index: index})
}

func appendExpr(fn *ir.Function, kind ir.ExpressionKind) ir.ExpressionHandle {
	handle := ir.ExpressionHandle(len(fn.Expressions))
	fn.Expressions = append(fn.Expressions, ir.Expression{Kind: kind})
	return handle
}
