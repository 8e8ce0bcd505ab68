package translate

import (
	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/wasmfront"
)

// valueKind is the static Wasm-level type of a stack value. It mirrors
// wasmfront.ValType but stays local to this package since a Schrödinger
// value (kind i32 that is also live as a pointer) needs a representation
// wasmfront's wire-format type can't carry.
type valueKind = wasmfront.ValType

// TypedValue is the operand-stack element: the ir.Expression producing
// it, its static Wasm type, and, for values eligible to be a
// Schrödinger value, the paired schrodingerState carrying the extra
// pointer-slot bookkeeping.
type TypedValue struct {
	Expr        ir.ExpressionHandle
	Type        valueKind
	Schrodinger *schrodingerState // non-nil only for a dual-natured i32 local read
}

// valueStack is the Wasm operand stack for one function's translation.
type valueStack struct {
	funcIdx uint32
	values  []TypedValue
}

func newValueStack(funcIdx uint32) *valueStack {
	return &valueStack{funcIdx: funcIdx}
}

func (s *valueStack) push(v TypedValue) {
	s.values = append(s.values, v)
}

func (s *valueStack) pushExpr(expr ir.ExpressionHandle, t valueKind) {
	s.push(TypedValue{Expr: expr, Type: t})
}

// pop removes and returns the top value. It is a translator-internal
// invariant violation (not a user-facing error) to pop an empty stack
// during correct MVP-validated Wasm, so this panics; the CFG
// reconstructor recovers panics at the function boundary and reports
// UnbalancedStack (see control.go).
func (s *valueStack) pop() TypedValue {
	if len(s.values) == 0 {
		panic(&errs.UnbalancedStack{FuncIndex: s.funcIdx, Message: "pop from empty operand stack"})
	}
	top := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return top
}

// popTyped pops the top value and checks its type matches want, failing
// with StackTypeMismatch (via panic, recovered at the function boundary)
// otherwise.
func (s *valueStack) popTyped(opcode byte, want valueKind) TypedValue {
	v := s.pop()
	if v.Type != want {
		panic(&errs.StackTypeMismatch{
			FuncIndex: s.funcIdx,
			Opcode:    opcode,
			Expected:  want.String(),
			Got:       v.Type.String(),
		})
	}
	return v
}

// len reports the current stack depth.
func (s *valueStack) len() int { return len(s.values) }

// snapshotTypes returns the static types of the top n values, in
// bottom-to-top order, without popping them. Used to compare a block's
// live stack shape against its declared result signature at `end` or a
// branch site.
func (s *valueStack) snapshotTypes(n int) []valueKind {
	if n > len(s.values) {
		n = len(s.values)
	}
	start := len(s.values) - n
	out := make([]valueKind, n)
	for i, v := range s.values[start:] {
		out[i] = v.Type
	}
	return out
}

// truncateTo resets the stack to depth n, discarding everything above
// it. Used when entering unreachable code after br/return/unreachable,
// and when restoring the stack to a label frame's entry depth on
// br/br_if.
func (s *valueStack) truncateTo(n int) {
	if n < len(s.values) {
		s.values = s.values[:n]
	}
}

// appendExpr appends an expression to fn and returns its handle. Shared
// by every file in this package that synthesizes IR expressions.
func appendExpr(fn *ir.Function, kind ir.ExpressionKind) ir.ExpressionHandle {
	handle := ir.ExpressionHandle(len(fn.Expressions))
	fn.Expressions = append(fn.Expressions, ir.Expression{Kind: kind})
	return handle
}
