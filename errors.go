package wasm2spirv

import "github.com/gowasm/wasm2spirv/errs"

// The compiler's error taxonomy lives in errs, so that config, memory,
// translate, and spirv can construct these errors themselves without
// importing this root package. These aliases keep the documented
// import path (wasm2spirv.ParseError, etc.) for callers of the facade.
type (
	ParseError             = errs.ParseError
	UnsupportedFeature     = errs.UnsupportedFeature
	ConfigError            = errs.ConfigError
	StackTypeMismatch      = errs.StackTypeMismatch
	BranchTypeMismatch     = errs.BranchTypeMismatch
	UnbalancedStack        = errs.UnbalancedStack
	PointerDisciplineError = errs.PointerDisciplineError
	MemoryGrowRejected     = errs.MemoryGrowRejected
	CapabilityMissing      = errs.CapabilityMissing
	PassError              = errs.PassError
)

// NewParseError wraps a decode failure as a ParseError.
func NewParseError(offset int, format string, args ...any) *ParseError {
	return errs.NewParseError(offset, format, args...)
}
