package translate

import (
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/wasmfront"
)

// localSlot is the per-Wasm-local bookkeeping the translator needs:
// either a single Function-storage variable, or, for a local promoted
// to the dual representation, its schrodingerState.
type localSlot struct {
	varIdx      uint32 // index into Function.LocalVars, valid when schrodinger == nil
	valType     wasmfront.ValType
	schrodinger *schrodingerState
}

// localTable owns every Wasm local's translation-time state (parameters
// followed by declared locals, in Wasm's combined index space) and the
// Function whose LocalVars/Expressions/Body they're being built into.
type localTable struct {
	fn     *ir.Function
	types  *ir.TypeRegistry
	slots  []localSlot
	ptrTyp ir.TypeHandle // Function-storage pointer<linear memory element> type, for schrodinger ptr slots
}

// newLocalTable allocates one Function.LocalVars entry (or three, for a
// promoted local) per Wasm local, in order, and emits the initial store
// from the parameter value for every parameter slot. usage is the
// pre-scan result from scanLocalUsage, indexed the same way as
// paramTypes+declTypes' concatenation.
func newLocalTable(fn *ir.Function, types *ir.TypeRegistry, memElemType ir.TypeHandle, paramTypes []wasmfront.ValType, declTypes []wasmfront.ValType, usage []localUsage) *localTable {
	ptrTyp := types.GetOrCreate("", ir.PointerType{Base: memElemType, Space: ir.SpaceStorage})
	lt := &localTable{fn: fn, types: types, ptrTyp: ptrTyp}

	allTypes := append(append([]wasmfront.ValType{}, paramTypes...), declTypes...)
	for i, vt := range allTypes {
		var u localUsage
		if i < len(usage) {
			u = usage[i]
		}
		lt.slots = append(lt.slots, lt.allocate(vt, u))
	}

	// Parameters are loaded from ExprFunctionArgument and stored into
	// their backing slot before any instruction runs.
	for i := range paramTypes {
		arg := appendExpr(fn, ir.ExprFunctionArgument{Index: uint32(i)})
		lt.storeInitial(uint32(i), arg)
	}
	return lt
}

func (lt *localTable) allocate(vt wasmfront.ValType, u localUsage) localSlot {
	scalarType := wasmValTypeToIR(vt)
	typeHandle := lt.types.GetOrCreate("", scalarType)

	if vt == wasmfront.ValI32 && u.needsSchrodinger() {
		intVar := lt.declareVar(typeHandle)
		ptrVar := lt.declareVar(lt.ptrTyp)
		boolType := lt.types.GetOrCreate("bool", ir.ScalarType{Kind: ir.ScalarBool, Width: 1})
		tagVar := lt.declareVar(boolType)
		return localSlot{
			valType: vt,
			schrodinger: &schrodingerState{
				intVar: intVar, ptrVar: ptrVar, tagVar: tagVar, ptrType: lt.ptrTyp,
			},
		}
	}

	return localSlot{varIdx: lt.declareVar(typeHandle), valType: vt}
}

func (lt *localTable) declareVar(t ir.TypeHandle) uint32 {
	idx := uint32(len(lt.fn.LocalVars))
	lt.fn.LocalVars = append(lt.fn.LocalVars, ir.LocalVariable{Type: t})
	return idx
}

// storeInitial writes value into localIdx's slot (the integer slot, via
// writeInt, for a Schrödinger local) as the parameter's initial value.
// Parameters never start out
// needing the pointer slot; a use later in the body is what triggers
// promotion, and the pre-scan already happened before allocate ran.
func (lt *localTable) storeInitial(localIdx uint32, value ir.ExpressionHandle) {
	slot := lt.slots[localIdx]
	if slot.schrodinger != nil {
		lt.fn.Body = append(lt.fn.Body, slot.schrodinger.writeInt(lt.fn, value)...)
		return
	}
	ptr := appendExpr(lt.fn, ir.ExprLocalVariable{Variable: slot.varIdx})
	lt.fn.Body = append(lt.fn.Body, ir.Statement{Kind: ir.StmtStore{Pointer: ptr, Value: value}})
}

// readAsInt emits local.get's lowering when the consuming context wants
// an integer value.
func (lt *localTable) readAsInt(localIdx uint32) ir.ExpressionHandle {
	slot := lt.slots[localIdx]
	if slot.schrodinger != nil {
		return slot.schrodinger.readInt(lt.fn, 0)
	}
	ptr := appendExpr(lt.fn, ir.ExprLocalVariable{Variable: slot.varIdx})
	return appendExpr(lt.fn, ir.ExprLoad{Pointer: ptr})
}

// readAsPointer emits local.get's lowering when the consuming context
// wants a pointer (a memory-access base address).
func (lt *localTable) readAsPointer(localIdx uint32) ir.ExpressionHandle {
	slot := lt.slots[localIdx]
	if slot.schrodinger != nil {
		return slot.schrodinger.readPointer(lt.fn)
	}
	ptr := appendExpr(lt.fn, ir.ExprLocalVariable{Variable: slot.varIdx})
	return appendExpr(lt.fn, ir.ExprLoad{Pointer: ptr})
}

// writeInt emits local.set/local.tee's lowering for an integer value.
func (lt *localTable) writeInt(localIdx uint32, value ir.ExpressionHandle) {
	slot := lt.slots[localIdx]
	if slot.schrodinger != nil {
		lt.fn.Body = append(lt.fn.Body, slot.schrodinger.writeInt(lt.fn, value)...)
		return
	}
	ptr := appendExpr(lt.fn, ir.ExprLocalVariable{Variable: slot.varIdx})
	lt.fn.Body = append(lt.fn.Body, ir.Statement{Kind: ir.StmtStore{Pointer: ptr, Value: value}})
}

// writePointer emits local.set/local.tee's lowering for a pointer
// value (a local consistently used as a memory-access base never goes
// through this path without the schrodinger slot, since allocate only
// gives a plain local a single, correctly-typed variable).
func (lt *localTable) writePointer(localIdx uint32, value ir.ExpressionHandle) {
	slot := lt.slots[localIdx]
	if slot.schrodinger != nil {
		lt.fn.Body = append(lt.fn.Body, slot.schrodinger.writePointer(lt.fn, value)...)
		return
	}
	ptr := appendExpr(lt.fn, ir.ExprLocalVariable{Variable: slot.varIdx})
	lt.fn.Body = append(lt.fn.Body, ir.Statement{Kind: ir.StmtStore{Pointer: ptr, Value: value}})
}

func (lt *localTable) valueType(localIdx uint32) wasmfront.ValType {
	return lt.slots[localIdx].valType
}

// wasmValTypeToIR maps a Wasm MVP value type to its IR scalar type.
func wasmValTypeToIR(vt wasmfront.ValType) ir.ScalarType {
	switch vt {
	case wasmfront.ValI32:
		return ir.ScalarType{Kind: ir.ScalarSint, Width: 4}
	case wasmfront.ValI64:
		return ir.ScalarType{Kind: ir.ScalarSint, Width: 8}
	case wasmfront.ValF32:
		return ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	case wasmfront.ValF64:
		return ir.ScalarType{Kind: ir.ScalarFloat, Width: 8}
	default:
		return ir.ScalarType{Kind: ir.ScalarSint, Width: 4}
	}
}

// scanLocalUsage walks code once to classify every local's use sites as
// arithmetic, pointer (memory-access base), or both, feeding
// needsSchrodinger's promotion decision. Only i32 locals are classified
// as pointer-eligible; other types can never back a memory access base
// in this translator.
func scanLocalUsage(code []wasmfront.Instruction, numLocals int) []localUsage {
	usage := make([]localUsage, numLocals)
	for _, insn := range code {
		switch insn.Opcode {
		case wasmfront.OpI32Load, wasmfront.OpI64Load, wasmfront.OpF32Load, wasmfront.OpF64Load,
			wasmfront.OpI32Load8S, wasmfront.OpI32Load8U, wasmfront.OpI32Load16S, wasmfront.OpI32Load16U,
			wasmfront.OpI64Load8S, wasmfront.OpI64Load8U, wasmfront.OpI64Load16S, wasmfront.OpI64Load16U, wasmfront.OpI64Load32S, wasmfront.OpI64Load32U,
			wasmfront.OpI32Store, wasmfront.OpI64Store, wasmfront.OpF32Store, wasmfront.OpF64Store,
			wasmfront.OpI32Store8, wasmfront.OpI32Store16, wasmfront.OpI64Store8, wasmfront.OpI64Store16, wasmfront.OpI64Store32:
			// The address operand is whatever is on the stack at this
			// point, not statically attributable to a single local from
			// a linear scan alone; a real data-flow pass would track
			// this precisely. As a conservative approximation, any
			// local.get immediately preceding a memory op in program
			// order is treated as a pointer use site below.
		}
	}
	// Conservative two-pass approximation: mark a local.get as a
	// pointer use when the next instruction is a memory op, and as an
	// arithmetic use otherwise (including when it's the second operand
	// of a binary numeric op or any other non-memory context).
	for i, insn := range code {
		if insn.Opcode != wasmfront.OpLocalGet {
			continue
		}
		imm, ok := insn.Imm.(wasmfront.LocalImm)
		if !ok || int(imm.LocalIdx) >= numLocals {
			continue
		}
		if i+1 < len(code) && isMemoryOp(code[i+1].Opcode) {
			usage[imm.LocalIdx].markPointerUse()
		} else {
			usage[imm.LocalIdx].markArithmeticUse()
		}
	}
	return usage
}

func isMemoryOp(op byte) bool {
	switch op {
	case wasmfront.OpI32Load, wasmfront.OpI64Load, wasmfront.OpF32Load, wasmfront.OpF64Load,
		wasmfront.OpI32Load8S, wasmfront.OpI32Load8U, wasmfront.OpI32Load16S, wasmfront.OpI32Load16U,
		wasmfront.OpI64Load8S, wasmfront.OpI64Load8U, wasmfront.OpI64Load16S, wasmfront.OpI64Load16U, wasmfront.OpI64Load32S, wasmfront.OpI64Load32U,
		wasmfront.OpI32Store, wasmfront.OpI64Store, wasmfront.OpF32Store, wasmfront.OpF64Store,
		wasmfront.OpI32Store8, wasmfront.OpI32Store16, wasmfront.OpI64Store8, wasmfront.OpI64Store16, wasmfront.OpI64Store32:
		return true
	default:
		return false
	}
}
