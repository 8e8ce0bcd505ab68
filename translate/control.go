package translate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gowasm/wasm2spirv/config"
	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/memory"
	"github.com/gowasm/wasm2spirv/spirv"
	"github.com/gowasm/wasm2spirv/wasmfront"
)

// requireCapability records, against the compilation's own capability
// policy, that feature needs cap — panicking (recovered at
// translateFunction's boundary, per the rest of this package's
// fast-fail convention) with CapabilityMissing if a Static policy never
// allow-listed it. A nil t.cfg (only possible from a test harness that
// builds a functionTranslator directly) is treated as unconstrained.
func (t *functionTranslator) requireCapability(cap spirv.Capability, feature string) {
	if t.cfg == nil {
		return
	}
	if !t.cfg.RequireCapability(cap) {
		panic(&errs.CapabilityMissing{Capability: fmt.Sprintf("%s (capability %d, needed by %s)", capabilityName(cap), cap, feature)})
	}
}

func capabilityName(cap spirv.Capability) string {
	switch cap {
	case spirv.CapabilityInt64:
		return "Int64"
	case spirv.CapabilityFloat64:
		return "Float64"
	case spirv.CapabilityVariablePointers:
		return "VariablePointers"
	case spirv.CapabilityVariablePointersStorageBuffer:
		return "VariablePointersStorageBuffer"
	default:
		return fmt.Sprintf("Capability(%d)", cap)
	}
}

// labelKind distinguishes the three Wasm structured constructs for the
// purpose of lowering a branch that targets them.
type labelKind int

const (
	labelBlock labelKind = iota
	labelLoop
	labelIf
)

// labelFrame is one entry of the translator's label stack, pushed on
// block/loop/if and popped at the matching end. branchedPast, when
// non-nil, names the Function-storage bool local a deeper construct's
// branch sets before unwinding through this frame; allocated lazily,
// since most constructs are never the target of anything but an
// innermost br/br_if.
type labelFrame struct {
	kind          labelKind
	hasResult     bool
	resultType    valueKind
	stackDepth    int // operand stack depth at the label's entry (br truncates back to this)
	branchedPast  *uint32
}

// functionTranslator owns every piece of per-function translation
// state: the operand stack, the local variable table, the label stack
// for structured-branch lowering, and the ir.Function being built into.
type functionTranslator struct {
	fn      *ir.Function
	stack   *valueStack
	locals  *localTable
	types   *ir.TypeRegistry
	module  *ir.Module
	mem     *memory.LinearMemory
	wasmMod *wasmfront.Module
	globals     []globalBinding
	funcHandles []ir.FunctionHandle
	funcIdx     uint32
	growPolicy  config.MemoryGrowErrorKind
	cfg         *config.Configuration
	log         *zap.Logger

	labels []*labelFrame
}

// globalBinding is the translation-time resolution of one Wasm global
// index (import or module-defined) to its backing IR global variable.
type globalBinding struct {
	variable ir.GlobalVariableHandle
	valType  wasmfront.ValType
}

// resolveGlobal looks up the IR global variable and Wasm value type
// backing globalIdx, populated by module.go before translateFunction
// runs.
func (t *functionTranslator) resolveGlobal(globalIdx uint32) (ir.GlobalVariableHandle, wasmfront.ValType, bool) {
	if int(globalIdx) >= len(t.globals) {
		return 0, 0, false
	}
	g := t.globals[globalIdx]
	return g.variable, g.valType, true
}

// translateFunction runs the structured CFG reconstructor over one
// function body and returns the completed Body block. Panics raised by
// the operand stack (UnbalancedStack, StackTypeMismatch) are recovered
// here and turned into a real error, per spec.md §4.4's failure modes.
func (t *functionTranslator) translateFunction(code []wasmfront.Instruction) (err error) {
	t.log.Debug("translating function", zap.Uint32("funcIdx", t.funcIdx), zap.Int("instructions", len(code)))
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				t.log.Warn("function translation failed", zap.Uint32("funcIdx", t.funcIdx), zap.Error(e))
				err = e
				return
			}
			panic(r)
		}
	}()

	c := &cursor{insns: code}
	body, terr := t.translateRegion(c, nil)
	if terr != nil {
		return terr
	}
	t.fn.Body = append(t.fn.Body, body...)
	return nil
}

// cursor walks a flat instruction stream; translateRegion advances it
// past whichever terminator (end, or end/else for an if) closes the
// region it was asked to translate.
type cursor struct {
	insns []wasmfront.Instruction
	pos   int
}

func (c *cursor) peek() (wasmfront.Instruction, bool) {
	if c.pos >= len(c.insns) {
		return wasmfront.Instruction{}, false
	}
	return c.insns[c.pos], true
}

func (c *cursor) advance() wasmfront.Instruction {
	insn := c.insns[c.pos]
	c.pos++
	return insn
}

// translateRegion translates instructions up to (and consuming) the
// next OpEnd at this nesting depth. If stopAt also contains OpElse, it
// stops at (and consumes) the matching OpElse too, returning with the
// cursor positioned after it so the caller can translate the else arm
// with a second call.
func (t *functionTranslator) translateRegion(c *cursor, stopAt map[byte]bool) (ir.Block, error) {
	var body ir.Block
	for {
		insn, ok := c.peek()
		if !ok {
			return body, nil
		}
		if stopAt != nil && stopAt[insn.Opcode] {
			c.advance()
			return body, nil
		}
		c.advance()

		stmts, err := t.translateInstruction(c, insn)
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)

		if insn.Opcode == wasmfront.OpEnd {
			return body, nil
		}
	}
}

var endOnly = map[byte]bool{wasmfront.OpEnd: true}
var endOrElse = map[byte]bool{wasmfront.OpEnd: true, wasmfront.OpElse: true}

// translateInstruction dispatches one instruction (already consumed
// from c) to the right lowering and returns the statements it expands
// to, recursing into translateRegion for block/loop/if bodies.
func (t *functionTranslator) translateInstruction(c *cursor, insn wasmfront.Instruction) ([]ir.Statement, error) {
	switch insn.Opcode {
	case wasmfront.OpNop, wasmfront.OpEnd:
		return nil, nil

	case wasmfront.OpUnreachable:
		return []ir.Statement{{Kind: ir.StmtKill{}}}, nil

	case wasmfront.OpBlock:
		return t.translateBlock(c, insn)
	case wasmfront.OpLoop:
		return t.translateLoop(c, insn)
	case wasmfront.OpIf:
		return t.translateIf(c, insn)

	case wasmfront.OpBr:
		imm := insn.Imm.(wasmfront.BranchImm)
		return t.emitBranch(imm.LabelIdx)
	case wasmfront.OpBrIf:
		imm := insn.Imm.(wasmfront.BranchImm)
		return t.emitConditionalBranch(imm.LabelIdx)
	case wasmfront.OpBrTable:
		imm := insn.Imm.(wasmfront.BrTableImm)
		return t.emitBrTable(imm)

	case wasmfront.OpReturn:
		return t.emitReturn()

	case wasmfront.OpDrop:
		t.stack.pop()
		return nil, nil
	case wasmfront.OpSelect:
		return t.emitSelect()

	case wasmfront.OpLocalGet, wasmfront.OpLocalSet, wasmfront.OpLocalTee:
		return t.emitLocalOp(insn)
	case wasmfront.OpGlobalGet, wasmfront.OpGlobalSet:
		return t.emitGlobalOp(insn)

	case wasmfront.OpI32Const:
		t.stack.pushExpr(appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(insn.Imm.(wasmfront.I32Imm).Value)}), wasmfront.ValI32)
		return nil, nil
	case wasmfront.OpI64Const:
		t.stack.pushExpr(appendExpr(t.fn, ir.Literal{Value: ir.LiteralI64(insn.Imm.(wasmfront.I64Imm).Value)}), wasmfront.ValI64)
		return nil, nil
	case wasmfront.OpF32Const:
		t.stack.pushExpr(appendExpr(t.fn, ir.Literal{Value: ir.LiteralF32(insn.Imm.(wasmfront.F32Imm).Value)}), wasmfront.ValF32)
		return nil, nil
	case wasmfront.OpF64Const:
		t.stack.pushExpr(appendExpr(t.fn, ir.Literal{Value: ir.LiteralF64(insn.Imm.(wasmfront.F64Imm).Value)}), wasmfront.ValF64)
		return nil, nil

	case wasmfront.OpCall, wasmfront.OpCallIndirect:
		return t.emitCall(insn)

	case wasmfront.OpI32Eqz:
		t.emitEqz(insn.Opcode, wasmfront.ValI32)
		return nil, nil
	case wasmfront.OpI64Eqz:
		t.emitEqz(insn.Opcode, wasmfront.ValI64)
		return nil, nil

	default:
		if op, ok := binaryOps[insn.Opcode]; ok {
			t.emitBinary(insn.Opcode, op)
			return nil, nil
		}
		if op, ok := unaryOps[insn.Opcode]; ok {
			t.emitUnary(insn.Opcode, op)
			return nil, nil
		}
		if op, ok := mathBinaryOps[insn.Opcode]; ok {
			t.emitMathBinary(insn.Opcode, op)
			return nil, nil
		}
		if isMemoryOp(insn.Opcode) {
			return t.emitMemoryOp(insn)
		}
		if insn.Opcode == wasmfront.OpMemorySize || insn.Opcode == wasmfront.OpMemoryGrow {
			return t.emitMemorySizeOrGrow(insn)
		}
		if _, ok := conversions[insn.Opcode]; ok {
			return nil, t.emitConversion(insn.Opcode)
		}
		return nil, &errs.UnsupportedFeature{Feature: "unsupported opcode"}
	}
}

func blockResult(t *functionTranslator, imm wasmfront.BlockImm) (hasResult bool, vt valueKind) {
	switch imm.Type {
	case wasmfront.BlockTypeVoid:
		return false, 0
	case wasmfront.BlockTypeI32:
		return true, wasmfront.ValI32
	case wasmfront.BlockTypeI64:
		return true, wasmfront.ValI64
	case wasmfront.BlockTypeF32:
		return true, wasmfront.ValF32
	case wasmfront.BlockTypeF64:
		return true, wasmfront.ValF64
	default:
		// A positive block type is a multi-value function-type index.
		// This translator's target scenarios (SPEC_FULL.md §4.3) never
		// need multi-value blocks; treat as void rather than reject
		// outright, matching every other opcode's "translate what
		// occurs, leave the rest for a future pass" posture.
		return false, 0
	}
}

// translateBlock lowers a bare Wasm block to a single-trip ir.StmtLoop
// whose body ends in an unconditional StmtBreak, giving it a merge
// point via the existing loop backend path (see SPEC_FULL.md §4.4).
func (t *functionTranslator) translateBlock(c *cursor, insn wasmfront.Instruction) ([]ir.Statement, error) {
	imm := insn.Imm.(wasmfront.BlockImm)
	hasResult, vt := blockResult(t, imm)
	frame := &labelFrame{kind: labelBlock, hasResult: hasResult, resultType: vt, stackDepth: t.stack.len()}
	t.labels = append(t.labels, frame)

	body, err := t.translateRegion(c, endOnly)
	t.labels = t.labels[:len(t.labels)-1]
	if err != nil {
		return nil, err
	}

	body = append(body, ir.Statement{Kind: ir.StmtBreak{}})
	stmts := []ir.Statement{{Kind: ir.StmtLoop{Body: body}}}
	stmts = append(stmts, t.unwindCheck(frame)...)
	return stmts, nil
}

// translateLoop lowers a Wasm loop to ir.StmtLoop directly: a Wasm `br`
// to the loop label is StmtContinue, matching naga's
// continuing-then-loop-back semantics to Wasm's "br re-enters the
// header" behavior exactly.
func (t *functionTranslator) translateLoop(c *cursor, insn wasmfront.Instruction) ([]ir.Statement, error) {
	imm := insn.Imm.(wasmfront.BlockImm)
	hasResult, vt := blockResult(t, imm)
	frame := &labelFrame{kind: labelLoop, hasResult: hasResult, resultType: vt, stackDepth: t.stack.len()}
	t.labels = append(t.labels, frame)

	body, err := t.translateRegion(c, endOnly)
	t.labels = t.labels[:len(t.labels)-1]
	if err != nil {
		return nil, err
	}

	// A Wasm loop falls through to after itself when its body runs to
	// completion without an explicit branch; naga's StmtLoop only exits
	// via Break/Return/Kill, so an implicit fallthrough needs its own
	// trailing break.
	body = append(body, ir.Statement{Kind: ir.StmtBreak{}})
	stmts := []ir.Statement{{Kind: ir.StmtLoop{Body: body}}}
	stmts = append(stmts, t.unwindCheck(frame)...)
	return stmts, nil
}

// translateIf lowers Wasm if/else/end to ir.StmtIf.
func (t *functionTranslator) translateIf(c *cursor, insn wasmfront.Instruction) ([]ir.Statement, error) {
	imm := insn.Imm.(wasmfront.BlockImm)
	hasResult, vt := blockResult(t, imm)
	cond := t.stack.popTyped(insn.Opcode, wasmfront.ValI32)

	frame := &labelFrame{kind: labelIf, hasResult: hasResult, resultType: vt, stackDepth: t.stack.len()}
	t.labels = append(t.labels, frame)

	accept, err := t.translateRegion(c, endOrElse)
	if err != nil {
		t.labels = t.labels[:len(t.labels)-1]
		return nil, err
	}

	var reject ir.Block
	if c.pos > 0 && c.insns[c.pos-1].Opcode == wasmfront.OpElse {
		reject, err = t.translateRegion(c, endOnly)
		if err != nil {
			t.labels = t.labels[:len(t.labels)-1]
			return nil, err
		}
	}
	t.labels = t.labels[:len(t.labels)-1]

	stmts := []ir.Statement{{Kind: ir.StmtIf{Condition: boolFromI32(t, cond.Expr), Accept: accept, Reject: reject}}}
	stmts = append(stmts, t.unwindCheck(frame)...)
	return stmts, nil
}

// boolFromI32 reinterprets a Wasm i32 condition (0/1, per MVP
// validation) as a SPIR-V bool via a not-equal-zero comparison, since
// naga's StmtIf.Condition must be a bool-typed expression.
func boolFromI32(t *functionTranslator, v ir.ExpressionHandle) ir.ExpressionHandle {
	zero := appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(0)})
	return appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryNotEqual, Left: v, Right: zero})
}

// unwindCheck emits, right after a construct's own lowering, the check
// that propagates a branch targeting an enclosing label past this one:
// if this frame was allocated an unwind flag and something set it while
// translating its body, break/continue again immediately so the
// branch keeps unwinding toward its real target. No-op for frames
// never referenced by a non-innermost branch.
func (t *functionTranslator) unwindCheck(frame *labelFrame) []ir.Statement {
	if frame.branchedPast == nil {
		return nil
	}
	flagPtr := appendExpr(t.fn, ir.ExprLocalVariable{Variable: *frame.branchedPast})
	flag := appendExpr(t.fn, ir.ExprLoad{Pointer: flagPtr})

	var again ir.Statement
	if t.currentLoopEnclosing() {
		again = ir.Statement{Kind: ir.StmtContinue{}}
	} else {
		again = ir.Statement{Kind: ir.StmtBreak{}}
	}
	return []ir.Statement{{Kind: ir.StmtIf{Condition: flag, Accept: ir.Block{again}}}}
}

// currentLoopEnclosing reports whether the nearest still-open label
// frame is a loop (so the unwind continuation should StmtContinue
// rather than StmtBreak). Used only by unwindCheck's caller context,
// which runs with frame already popped, so this looks at the new top.
func (t *functionTranslator) currentLoopEnclosing() bool {
	if len(t.labels) == 0 {
		return false
	}
	return t.labels[len(t.labels)-1].kind == labelLoop
}

// branchTargetFlag lazily allocates frame's unwind flag local,
// returning its LocalVars index.
func (t *functionTranslator) branchTargetFlag(frame *labelFrame) uint32 {
	if frame.branchedPast != nil {
		return *frame.branchedPast
	}
	boolType := t.types.GetOrCreate("bool", ir.ScalarType{Kind: ir.ScalarBool, Width: 1})
	idx := uint32(len(t.fn.LocalVars))
	t.fn.LocalVars = append(t.fn.LocalVars, ir.LocalVariable{Type: boolType})
	falseLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralBool(false)})
	ptr := appendExpr(t.fn, ir.ExprLocalVariable{Variable: idx})
	t.fn.Body = append(t.fn.Body, ir.Statement{Kind: ir.StmtStore{Pointer: ptr, Value: falseLit}})
	frame.branchedPast = &idx
	return idx
}

// emitBranch lowers an unconditional br. labelIdx 0 always means the
// innermost enclosing construct: StmtContinue for a loop (re-enter the
// header, matching Wasm's br-to-loop-label semantics) or StmtBreak for
// a block/if (exit to the merge point). A deeper labelIdx sets that
// frame's unwind flag and breaks/continues out of every level between
// here and there, each level's unwindCheck then propagating further.
func (t *functionTranslator) emitBranch(labelIdx uint32) ([]ir.Statement, error) {
	if int(labelIdx) >= len(t.labels) {
		return nil, &errs.BranchTypeMismatch{FuncIndex: t.funcIdx, LabelIdx: labelIdx, Message: "branch target out of range"}
	}
	targetDepth := len(t.labels) - 1 - int(labelIdx)
	target := t.labels[targetDepth]
	t.stack.truncateTo(target.stackDepth)

	innermost := t.labels[len(t.labels)-1]
	var jump ir.Statement
	if innermost.kind == labelLoop {
		jump = ir.Statement{Kind: ir.StmtContinue{}}
	} else {
		jump = ir.Statement{Kind: ir.StmtBreak{}}
	}

	if labelIdx == 0 {
		return []ir.Statement{jump}, nil
	}

	flagIdx := t.branchTargetFlag(target)
	ptr := appendExpr(t.fn, ir.ExprLocalVariable{Variable: flagIdx})
	trueLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralBool(true)})
	setFlag := ir.Statement{Kind: ir.StmtStore{Pointer: ptr, Value: trueLit}}
	return []ir.Statement{setFlag, jump}, nil
}

// emitConditionalBranch lowers br_if: wrap emitBranch's statements in
// an ir.StmtIf guarded by the popped condition.
func (t *functionTranslator) emitConditionalBranch(labelIdx uint32) ([]ir.Statement, error) {
	cond := t.stack.popTyped(wasmfront.OpBrIf, wasmfront.ValI32)
	branch, err := t.emitBranch(labelIdx)
	if err != nil {
		return nil, err
	}
	return []ir.Statement{{Kind: ir.StmtIf{Condition: boolFromI32(t, cond.Expr), Accept: branch}}}, nil
}

// emitBrTable lowers br_table to a chain of nested if/else comparisons
// against the selector value, per SPEC_FULL.md §4.4 (naga IR's
// StmtSwitch only supports i32/u32 selectors with distinct case
// values and no computed jump table, so a table whose targets repeat
// is expressed as a cascade of equality tests rather than a single
// switch).
func (t *functionTranslator) emitBrTable(imm wasmfront.BrTableImm) ([]ir.Statement, error) {
	selector := t.stack.popTyped(wasmfront.OpBrTable, wasmfront.ValI32)

	def, err := t.emitBranch(imm.Default)
	if err != nil {
		return nil, err
	}
	chain := def
	for i := len(imm.Labels) - 1; i >= 0; i-- {
		branch, err := t.emitBranch(imm.Labels[i])
		if err != nil {
			return nil, err
		}
		idxLit := appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(int32(i))})
		eq := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryEqual, Left: selector.Expr, Right: idxLit})
		chain = []ir.Statement{{Kind: ir.StmtIf{Condition: eq, Accept: branch, Reject: chain}}}
	}
	return chain, nil
}

// emitReturn lowers return, popping the function's result value off
// the operand stack if it has one.
func (t *functionTranslator) emitReturn() ([]ir.Statement, error) {
	if t.fn.Result == nil {
		return []ir.Statement{{Kind: ir.StmtReturn{}}}, nil
	}
	v := t.stack.pop()
	expr := v.Expr
	return []ir.Statement{{Kind: ir.StmtReturn{Value: &expr}}}, nil
}

// emitSelect lowers select to ir.ExprSelect. Wasm's condition operand
// is i32; ExprSelect wants bool.
func (t *functionTranslator) emitSelect() ([]ir.Statement, error) {
	cond := t.stack.popTyped(wasmfront.OpSelect, wasmfront.ValI32)
	b := t.stack.pop()
	a := t.stack.popTyped(wasmfront.OpSelect, b.Type)
	result := appendExpr(t.fn, ir.ExprSelect{Condition: boolFromI32(t, cond.Expr), Accept: a.Expr, Reject: b.Expr})
	t.stack.pushExpr(result, a.Type)
	return nil, nil
}

func (t *functionTranslator) emitLocalOp(insn wasmfront.Instruction) ([]ir.Statement, error) {
	imm := insn.Imm.(wasmfront.LocalImm)
	vt := t.locals.valueType(imm.LocalIdx)
	switch insn.Opcode {
	case wasmfront.OpLocalGet:
		t.stack.pushExpr(t.locals.readAsInt(imm.LocalIdx), vt)
	case wasmfront.OpLocalSet:
		v := t.stack.popTyped(insn.Opcode, vt)
		t.locals.writeInt(imm.LocalIdx, v.Expr)
	case wasmfront.OpLocalTee:
		v := t.stack.popTyped(insn.Opcode, vt)
		t.locals.writeInt(imm.LocalIdx, v.Expr)
		t.stack.pushExpr(v.Expr, vt)
	}
	return nil, nil
}

func (t *functionTranslator) emitGlobalOp(insn wasmfront.Instruction) ([]ir.Statement, error) {
	imm := insn.Imm.(wasmfront.GlobalImm)
	global, vt, ok := t.resolveGlobal(imm.GlobalIdx)
	if !ok {
		return nil, &errs.ConfigError{Message: "global.get/set referenced an unresolved global index"}
	}
	switch insn.Opcode {
	case wasmfront.OpGlobalGet:
		ptr := appendExpr(t.fn, ir.ExprGlobalVariable{Variable: global})
		t.stack.pushExpr(appendExpr(t.fn, ir.ExprLoad{Pointer: ptr}), vt)
		return nil, nil
	case wasmfront.OpGlobalSet:
		v := t.stack.popTyped(insn.Opcode, vt)
		ptr := appendExpr(t.fn, ir.ExprGlobalVariable{Variable: global})
		return []ir.Statement{{Kind: ir.StmtStore{Pointer: ptr, Value: v.Expr}}}, nil
	}
	return nil, nil
}
