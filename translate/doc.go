// Package translate converts a single decoded Wasm function
// (wasmfront.FuncBody plus its signature) into a naga IR function body:
// an operand-stack-driven walk of the instruction stream that builds
// ir.Expression/ir.Statement trees the spirv package already knows how
// to emit.
//
// The walk keeps three pieces of state per function: the TypedValue
// operand stack (stack.go), the label stack used to reconstruct
// structured control flow (control.go), and the local variable map,
// including any locals that need the dual integer/pointer Schrödinger
// representation (locals.go, schrodinger.go).
package translate
