// Package errs holds the compiler's error taxonomy. It exists as its
// own package, separate from the root wasm2spirv package, so that
// config, memory, translate, and spirv can all construct and return
// these errors without an import cycle back through the root facade;
// the root package re-exports every type here as a type alias so
// callers see them at their documented import path.
package errs

import "fmt"

// ParseError reports a malformed Wasm module.
type ParseError struct {
	Message string
	Offset  int // byte offset into the module, -1 if unknown
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("parse error: %s", e.Message)
	}
	return fmt.Sprintf("parse error at byte %d: %s", e.Offset, e.Message)
}

// NewParseError wraps a decode failure as a ParseError.
func NewParseError(offset int, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Offset: offset}
}

// UnsupportedFeature reports a Wasm operator, section, or feature flag
// outside the translator's scope (tables, bulk memory beyond §4.2's
// limits, threads, call_indirect).
type UnsupportedFeature struct {
	Feature string
}

func (e *UnsupportedFeature) Error() string {
	return fmt.Sprintf("unsupported feature: %s", e.Feature)
}

// ConfigError reports a configuration that cannot drive compilation,
// such as a missing parameter binding or an unknown execution model. A
// capability absent under a Static policy is a CapabilityMissing.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Message)
}

// StackTypeMismatch reports an operator whose operand types on the
// Wasm value stack disagree with its declared signature.
type StackTypeMismatch struct {
	FuncIndex uint32
	Opcode    byte
	Expected  string
	Got       string
}

func (e *StackTypeMismatch) Error() string {
	return fmt.Sprintf("func %d: opcode 0x%02x: stack type mismatch: expected %s, got %s",
		e.FuncIndex, e.Opcode, e.Expected, e.Got)
}

// BranchTypeMismatch reports a br/br_if/br_table whose stack shape at
// the branch site disagrees with the target label's declared result
// types.
type BranchTypeMismatch struct {
	FuncIndex uint32
	LabelIdx  uint32
	Message   string
}

func (e *BranchTypeMismatch) Error() string {
	return fmt.Sprintf("func %d: branch to label %d: %s", e.FuncIndex, e.LabelIdx, e.Message)
}

// UnbalancedStack reports a block/function whose operand stack at
// `end` does not match its declared result arity.
type UnbalancedStack struct {
	FuncIndex uint32
	Message   string
}

func (e *UnbalancedStack) Error() string {
	return fmt.Sprintf("func %d: unbalanced stack: %s", e.FuncIndex, e.Message)
}

// PointerDisciplineError reports an attempt to cross SPIR-V storage
// classes illegally, or to dereference a Schrödinger value in the
// wrong slot without first materializing it.
type PointerDisciplineError struct {
	Message string
}

func (e *PointerDisciplineError) Error() string {
	return fmt.Sprintf("pointer discipline violated: %s", e.Message)
}

// MemoryGrowRejected reports a memory.grow instruction encountered
// under the Hard memory_grow_error_kind policy.
type MemoryGrowRejected struct {
	FuncIndex uint32
}

func (e *MemoryGrowRejected) Error() string {
	return fmt.Sprintf("func %d: memory.grow rejected (memory_grow_error_kind = Hard)", e.FuncIndex)
}

// CapabilityMissing reports a capability the emitted module requires
// that is absent from a Static capability policy's allow-list.
type CapabilityMissing struct {
	Capability string
}

func (e *CapabilityMissing) Error() string {
	return fmt.Sprintf("capability %s required but not declared under static policy", e.Capability)
}

// PassError reports an external validator, optimizer, or
// cross-compiler that rejected the emitted module. Diagnostic carries
// whatever the adapter captured from its side channel (stderr-like).
type PassError struct {
	Pass       string
	Diagnostic string
	Err        error
}

func (e *PassError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("pass %q failed: %v: %s", e.Pass, e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("pass %q failed: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }
