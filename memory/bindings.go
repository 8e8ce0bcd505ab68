package memory

import (
	"fmt"

	"github.com/gowasm/wasm2spirv/config"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/spirv"
)

// spirvBuiltinToIR inverts spirv.go's builtinValueToBuiltIn for the
// handful of built-ins a ParamConfig can name. Kept local to this
// package rather than exported from spirv, since only a resource
// binding resolution needs the reverse direction.
var spirvBuiltinToIR = map[spirv.BuiltIn]ir.BuiltinValue{
	spirv.BuiltInPosition:             ir.BuiltinPosition,
	spirv.BuiltInVertexIndex:          ir.BuiltinVertexIndex,
	spirv.BuiltInInstanceIndex:        ir.BuiltinInstanceIndex,
	spirv.BuiltInFrontFacing:          ir.BuiltinFrontFacing,
	spirv.BuiltInFragDepth:            ir.BuiltinFragDepth,
	spirv.BuiltInSampleId:             ir.BuiltinSampleIndex,
	spirv.BuiltInSampleMask:           ir.BuiltinSampleMask,
	spirv.BuiltInLocalInvocationId:    ir.BuiltinLocalInvocationID,
	spirv.BuiltInLocalInvocationIndex: ir.BuiltinLocalInvocationIndex,
	spirv.BuiltInGlobalInvocationId:   ir.BuiltinGlobalInvocationID,
	spirv.BuiltInWorkgroupId:          ir.BuiltinWorkGroupID,
	spirv.BuiltInNumWorkgroups:        ir.BuiltinNumWorkGroups,
}

// ResolvedParam is the IR-level counterpart of a config.ParamConfig:
// either a global variable a function parameter reads/writes through
// (descriptor-set resource, push constant, or built-in/location
// interface variable), or an inline value with no backing global.
type ResolvedParam struct {
	Global  *ir.GlobalVariableHandle // nil for InlineBinding
	Literal *uint64                  // set only for InlineBinding
}

// ResolveParam turns a single function parameter's ParamConfig into
// module-scope IR: it appends a new GlobalVariable (deduplicated by
// nothing — each parameter gets its own binding site, since SPIR-V
// resource bindings are never shared across declared variables) and
// returns a handle to it, or, for InlineBinding, the literal value with
// no global at all.
func ResolveParam(module *ir.Module, types *ir.TypeRegistry, name string, paramType ir.TypeHandle, kind config.ParamKind) (ResolvedParam, error) {
	switch k := kind.(type) {
	case config.DescriptorSetBinding:
		space, err := storageClassToAddressSpace(k.StorageClass)
		if err != nil {
			return ResolvedParam{}, err
		}
		handle := declareGlobal(module, ir.GlobalVariable{
			Name:  name,
			Space: space,
			Binding: &ir.ResourceBinding{
				Group:   k.Set,
				Binding: k.Binding,
			},
			Type: paramType,
		})
		return ResolvedParam{Global: &handle}, nil

	case config.PushConstantBinding:
		handle := declareGlobal(module, ir.GlobalVariable{
			Name:  name,
			Space: ir.SpacePushConstant,
			Type:  paramType,
		})
		return ResolvedParam{Global: &handle}, nil

	case config.BuiltinInputBinding:
		return resolveBuiltinBinding(module, name, paramType, k.Builtin, ir.SpaceInput)

	case config.BuiltinOutputBinding:
		return resolveBuiltinBinding(module, name, paramType, k.Builtin, ir.SpaceOutput)

	case config.LocationBinding:
		space := ir.SpaceInput
		if k.Output {
			space = ir.SpaceOutput
		}
		handle := declareGlobal(module, ir.GlobalVariable{
			Name:  name,
			Space: space,
			Type:  paramType,
		})
		return ResolvedParam{Global: &handle}, nil

	case config.InlineBinding:
		v := k.ConstantValue
		return ResolvedParam{Literal: &v}, nil

	default:
		return ResolvedParam{}, fmt.Errorf("memory: unknown ParamKind %T", kind)
	}
}

func resolveBuiltinBinding(module *ir.Module, name string, paramType ir.TypeHandle, b spirv.BuiltIn, space ir.AddressSpace) (ResolvedParam, error) {
	value, ok := spirvBuiltinToIR[b]
	if !ok {
		return ResolvedParam{}, fmt.Errorf("memory: unsupported built-in %d for parameter %q", b, name)
	}
	handle := declareGlobal(module, ir.GlobalVariable{
		Name:    name,
		Space:   space,
		Type:    paramType,
		Builtin: &value,
	})
	return ResolvedParam{Global: &handle}, nil
}

func declareGlobal(module *ir.Module, g ir.GlobalVariable) ir.GlobalVariableHandle {
	handle := ir.GlobalVariableHandle(len(module.GlobalVariables))
	module.GlobalVariables = append(module.GlobalVariables, g)
	return handle
}

// storageClassToAddressSpace maps the two storage classes a
// DescriptorSetBinding may legally name onto their IR address space.
func storageClassToAddressSpace(sc spirv.StorageClass) (ir.AddressSpace, error) {
	switch sc {
	case spirv.StorageClassUniform:
		return ir.SpaceUniform, nil
	case spirv.StorageClassStorageBuffer:
		return ir.SpaceStorage, nil
	default:
		return 0, fmt.Errorf("memory: descriptor-set bindings must use Uniform or StorageBuffer, got storage class %d", sc)
	}
}

// ResolveImportedBuiltin resolves a (module, name) Wasm global import
// pair to a module-scope built-in Input variable, or reports ok=false
// if the pair doesn't name a recognized spir_global built-in.
func ResolveImportedBuiltin(module *ir.Module, importModule, importName string, valueType ir.TypeHandle) (ir.GlobalVariableHandle, bool) {
	value, ok := ResolveBuiltin(importModule, importName)
	if !ok {
		return 0, false
	}
	handle := declareGlobal(module, ir.GlobalVariable{
		Name:    importName,
		Space:   ir.SpaceInput,
		Type:    valueType,
		Builtin: &value,
	})
	return handle, true
}
