package passes

import (
	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/glsl"
	"github.com/gowasm/wasm2spirv/hlsl"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/msl"
	"github.com/gowasm/wasm2spirv/wgsl"
)

// GLSLAdapter cross-compiles module's ir.Module to GLSL, ignoring the
// already-assembled SPIR-V words: naga-style backends translate from
// the IR directly rather than disassembling SPIR-V back to a source
// language, per spec.md §4.7's description of cross-compilation as
// sharing the IR the SPIR-V backend itself consumed.
func GLSLAdapter(module *ir.Module, _ []byte) (Result, error) {
	src, info, err := glsl.Compile(module, glsl.DefaultOptions())
	if err != nil {
		return Result{}, &errs.PassError{Pass: "glsl", Err: err}
	}
	return Result{Text: src, Diagnostic: extensionsDiagnostic(info.UsedExtensions)}, nil
}

// HLSLAdapter cross-compiles module to HLSL.
func HLSLAdapter(module *ir.Module, _ []byte) (Result, error) {
	src, _, err := hlsl.Compile(module, hlsl.DefaultOptions())
	if err != nil {
		return Result{}, &errs.PassError{Pass: "hlsl", Err: err}
	}
	return Result{Text: src}, nil
}

// MSLAdapter cross-compiles module to Metal Shading Language.
func MSLAdapter(module *ir.Module, _ []byte) (Result, error) {
	src, info, err := msl.Compile(module, msl.DefaultOptions())
	if err != nil {
		return Result{}, &errs.PassError{Pass: "msl", Err: err}
	}
	diagnostic := ""
	if info.RequiresSizesBuffer {
		diagnostic = "requires a runtime-array sizes buffer"
	}
	return Result{Text: src, Diagnostic: diagnostic}, nil
}

// WGSLAdapter renders module back to WGSL source, the one direction the
// teacher's wgsl package never needed (it only ever parsed WGSL into
// the IR).
func WGSLAdapter(module *ir.Module, _ []byte) (Result, error) {
	src, err := wgsl.Print(module)
	if err != nil {
		return Result{}, &errs.PassError{Pass: "wgsl", Err: err}
	}
	return Result{Text: src}, nil
}

func extensionsDiagnostic(used []string) string {
	if len(used) == 0 {
		return ""
	}
	diag := "extensions used:"
	for _, e := range used {
		diag += " " + e
	}
	return diag
}
