package config

import "github.com/gowasm/wasm2spirv/spirv"

// ExecutionMode is a declarative execution mode entry, e.g.
// {"local_size": [1,1,1]} or {"origin_upper_left": true}.
type ExecutionMode struct {
	Mode   spirv.ExecutionMode
	Params []uint32
}

// FunctionConfig is the compilation directive for one exported Wasm
// function: which execution model to compile it under, its execution
// modes, and how each parameter maps onto a SPIR-V binding.
type FunctionConfig struct {
	ExecutionModel spirv.ExecutionModel
	ExecutionModes []ExecutionMode
	Params         map[uint32]ParamConfig
}

// PointerSize discriminates whether a Schrödinger-eligible i32 param
// is treated as a bare integer handle ("thin") or promoted to a real
// SPIR-V pointer up front ("fat"). It is parsed and stored on
// ParamConfig; the translator does not read it, and whether a local
// gets the dual representation depends only on its uses in the body.
type PointerSize uint8

const (
	PointerThin PointerSize = iota
	PointerFat
)

// ParamKind is a closed, self-tagging discriminated union over the
// ways a Wasm function parameter can be bound to a SPIR-V resource.
// Every variant implements paramKind so a switch over the concrete
// type is exhaustive-checkable; unknown JSON "kind" tags are rejected
// at load time in json.go before a ParamKind is ever constructed.
type ParamKind interface {
	paramKind()
}

// DescriptorSetBinding binds a parameter to a descriptor-set/binding
// pair in the given storage class (Uniform or StorageBuffer).
type DescriptorSetBinding struct {
	Set          uint32
	Binding      uint32
	StorageClass spirv.StorageClass
}

func (DescriptorSetBinding) paramKind() {}

// PushConstantBinding binds a parameter to a byte offset within the
// module's push-constant block.
type PushConstantBinding struct {
	Offset uint32
}

func (PushConstantBinding) paramKind() {}

// BuiltinInputBinding binds a parameter to a SPIR-V built-in Input
// variable (GlobalInvocationId, VertexIndex, FrontFacing, …).
type BuiltinInputBinding struct {
	Builtin spirv.BuiltIn
}

func (BuiltinInputBinding) paramKind() {}

// BuiltinOutputBinding binds a parameter to a SPIR-V built-in Output
// variable (FragDepth, Position, …), written via OpStore.
type BuiltinOutputBinding struct {
	Builtin spirv.BuiltIn
}

func (BuiltinOutputBinding) paramKind() {}

// LocationBinding binds a parameter to an Input or Output interface
// variable at a numbered location (a vertex attribute or fragment
// varying).
type LocationBinding struct {
	Location uint32
	Output   bool
}

func (LocationBinding) paramKind() {}

// InlineBinding marks a parameter that carries no external binding: it
// is materialized purely as a Function-storage local seeded from a
// spec constant or a fixed literal supplied at build time.
type InlineBinding struct {
	ConstantValue uint64
}

func (InlineBinding) paramKind() {}

// ParamConfig is the per-parameter binding directive.
type ParamConfig struct {
	Kind        ParamKind
	PointerSize PointerSize
}
