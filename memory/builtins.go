package memory

import "github.com/gowasm/wasm2spirv/ir"

// BuiltinModuleName is the fixed Wasm import module name under which a
// host-provided shader built-in is imported, e.g.
// (import "spir_global" "global_invocation_id" (global i32)).
const BuiltinModuleName = "spir_global"

// builtinNames maps the closed set of spir_global.<name> import names
// onto the IR's shader-agnostic BuiltinValue. This mirrors the role the
// teacher's WGSL front end gives its @builtin(<ident>) attribute table,
// reimplemented here since a Wasm import has no attribute syntax of its
// own to carry the same information.
var builtinNames = map[string]ir.BuiltinValue{
	"position":             ir.BuiltinPosition,
	"vertex_index":         ir.BuiltinVertexIndex,
	"instance_index":       ir.BuiltinInstanceIndex,
	"front_facing":         ir.BuiltinFrontFacing,
	"frag_depth":           ir.BuiltinFragDepth,
	"sample_index":         ir.BuiltinSampleIndex,
	"sample_mask":          ir.BuiltinSampleMask,
	"local_invocation_id":  ir.BuiltinLocalInvocationID,
	"local_invocation_idx": ir.BuiltinLocalInvocationIndex,
	"global_invocation_id": ir.BuiltinGlobalInvocationID,
	"workgroup_id":         ir.BuiltinWorkGroupID,
	"num_workgroups":       ir.BuiltinNumWorkGroups,
}

// ResolveBuiltin reports the BuiltinValue a spir_global.<name> import
// refers to. ok is false for any module name other than
// BuiltinModuleName, or for a name not in the closed table — both are
// reported by the caller as UnsupportedFeature, never silently ignored.
func ResolveBuiltin(importModule, importName string) (ir.BuiltinValue, bool) {
	if importModule != BuiltinModuleName {
		return 0, false
	}
	v, ok := builtinNames[importName]
	return v, ok
}

// builtinIsInput reports whether a built-in is read-only from the
// shader's point of view (an Input interface variable) as opposed to
// one of the handful the shader may write (gl_FragDepth and similar
// Output built-ins). Every built-in importable through spir_global
// today is an Input; this exists so memory/bindings.go has a single
// place to extend if an Output built-in import is added later.
func builtinIsInput(ir.BuiltinValue) bool {
	return true
}
