package translate

import (
	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/wasmfront"
)

// emitCall lowers call and call_indirect. Only direct calls are
// supported: Wasm's call_indirect has no SPIR-V analogue in a
// shader-stage function (no function pointers), so it is rejected
// with UnsupportedFeature, per SPEC_FULL.md's scoping of the calls.go
// component to direct calls and builtin-global reads.
func (t *functionTranslator) emitCall(insn wasmfront.Instruction) ([]ir.Statement, error) {
	if insn.Opcode == wasmfront.OpCallIndirect {
		return nil, &errs.UnsupportedFeature{Feature: "call_indirect"}
	}

	imm := insn.Imm.(wasmfront.CallImm)
	sig := t.wasmMod.FuncTypeOf(imm.FuncIdx)
	if sig == nil {
		return nil, &errs.ConfigError{Message: "call referenced an unresolved function index"}
	}
	if int(imm.FuncIdx) >= len(t.funcHandles) {
		return nil, &errs.ConfigError{Message: "call referenced a function not yet assembled"}
	}
	callee := t.funcHandles[imm.FuncIdx]

	args := make([]ir.ExpressionHandle, len(sig.Params))
	for i := len(sig.Params) - 1; i >= 0; i-- {
		args[i] = t.stack.popTyped(insn.Opcode, sig.Params[i]).Expr
	}

	if len(sig.Results) == 0 {
		return []ir.Statement{{Kind: ir.StmtCall{Function: callee, Arguments: args}}}, nil
	}

	result := appendExpr(t.fn, ir.ExprCallResult{Function: callee})
	stmt := ir.Statement{Kind: ir.StmtCall{Function: callee, Arguments: args, Result: &result}}
	t.stack.pushExpr(result, sig.Results[0])
	return []ir.Statement{stmt}, nil
}
