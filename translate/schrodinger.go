package translate

import "github.com/gowasm/wasm2spirv/ir"

// schrodingerState is the dual representation allocated for a Wasm i32
// local whose static role oscillates between "integer offset" and
// "pointer", per spec.md §4.3. It owns three Function-storage local
// slots: the integer value, the pointer value, and a boolean tag
// recording which of the two was written most recently.
type schrodingerState struct {
	localIdx uint32 // Wasm local index this state backs

	intVar uint32 // index into Function.LocalVars: i32
	ptrVar uint32 // index into Function.LocalVars: pointer into linear memory
	tagVar uint32 // index into Function.LocalVars: bool, true = pointer slot is current

	ptrType ir.TypeHandle // pointer<linear memory element> type, used to build ExprLocalVariable loads
}

// localUsage records, for one local, what scanLocalUsage's pre-scan of
// the function's instruction stream found; needsSchrodinger decides: a
// local is promoted to the dual representation only if its uses
// include both an arithmetic/comparison consumption and a memory-access
// consumption (address-of) of the same local across the function body.
// A local used only as an integer, or only ever dereferenced, needs no
// extra slots.
type localUsage struct {
	usedAsInt bool
	usedAsPtr bool
}

// markArithmeticUse records that localIdx was consumed by a numeric or
// comparison operator.
func (u *localUsage) markArithmeticUse() { u.usedAsInt = true }

// markPointerUse records that localIdx was consumed as the base address
// of a memory access.
func (u *localUsage) markPointerUse() { u.usedAsPtr = true }

func (u *localUsage) needsSchrodinger() bool { return u.usedAsInt && u.usedAsPtr }

// readInt emits the load sequence that yields the local's integer
// value, materializing it from the pointer slot first if the pointer
// slot is the one currently live. fn is the function being built;
// emit appends the necessary expressions/statements.
func (st *schrodingerState) readInt(fn *ir.Function, intType ir.TypeHandle) ir.ExpressionHandle {
	tagPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.tagVar})
	tag := appendExpr(fn, ir.ExprLoad{Pointer: tagPtr})

	intPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.intVar})
	ptrPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.ptrVar})

	// If tag says the pointer slot is current, its value converted to an
	// integer is the result; otherwise the integer slot already holds the
	// current value. Both slots are loaded and a select picks one; nothing
	// is stored back, so the integer slot stays stale until the next
	// writeInt.
	ptrAsInt := appendExpr(fn, ir.ExprAs{Expr: appendExpr(fn, ir.ExprLoad{Pointer: ptrPtr}), Kind: ir.ScalarUint})
	materialized := appendExpr(fn, ir.ExprSelect{
		Condition: tag,
		Accept:    ptrAsInt,
		Reject:    appendExpr(fn, ir.ExprLoad{Pointer: intPtr}),
	})
	_ = intType
	return materialized
}

// readPointer is the mirror of readInt: yields the local's pointer
// value, converting from the integer slot when that's the one current.
func (st *schrodingerState) readPointer(fn *ir.Function) ir.ExpressionHandle {
	tagPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.tagVar})
	tag := appendExpr(fn, ir.ExprLoad{Pointer: tagPtr})

	intPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.intVar})
	ptrPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.ptrVar})

	intAsPtr := appendExpr(fn, ir.ExprAs{Expr: appendExpr(fn, ir.ExprLoad{Pointer: intPtr}), Kind: ir.ScalarUint})
	return appendExpr(fn, ir.ExprSelect{
		Condition: tag,
		Accept:    appendExpr(fn, ir.ExprLoad{Pointer: ptrPtr}),
		Reject:    intAsPtr,
	})
}

// writeInt stores value into the integer slot and clears the tag so a
// subsequent readPointer knows to reconvert from the integer slot.
func (st *schrodingerState) writeInt(fn *ir.Function, value ir.ExpressionHandle) []ir.Statement {
	intPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.intVar})
	tagPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.tagVar})
	falseLit := appendExpr(fn, ir.Literal{Value: ir.LiteralBool(false)})
	return []ir.Statement{
		{Kind: ir.StmtStore{Pointer: intPtr, Value: value}},
		{Kind: ir.StmtStore{Pointer: tagPtr, Value: falseLit}},
	}
}

// writePointer is the mirror of writeInt, setting the tag so the
// pointer slot is treated as current.
func (st *schrodingerState) writePointer(fn *ir.Function, value ir.ExpressionHandle) []ir.Statement {
	ptrPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.ptrVar})
	tagPtr := appendExpr(fn, ir.ExprLocalVariable{Variable: st.tagVar})
	trueLit := appendExpr(fn, ir.Literal{Value: ir.LiteralBool(true)})
	return []ir.Statement{
		{Kind: ir.StmtStore{Pointer: ptrPtr, Value: value}},
		{Kind: ir.StmtStore{Pointer: tagPtr, Value: trueLit}},
	}
}
