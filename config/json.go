package config

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gowasm/wasm2spirv/spirv"
)

// jsonDocument mirrors SPEC_FULL.md §6's JSON schema.
type jsonDocument struct {
	Platform        map[string]string            `json:"platform"`
	AddressingModel string                        `json:"addressing_model"`
	MemoryModel     string                        `json:"memory_model"`
	Capabilities    map[string][]string           `json:"capabilities"`
	Extensions      []string                      `json:"extensions"`
	WasmFeatures    *jsonWasmFeatures             `json:"wasm_features,omitempty"`
	MemoryGrowErrorKind string                     `json:"memory_grow_error_kind,omitempty"`
	Functions       map[string]jsonFunctionConfig `json:"functions"`
}

type jsonWasmFeatures struct {
	Memory64              bool `json:"memory64"`
	SaturatingFloatToInt   bool `json:"saturating_float_to_int"`
	SignExtension          bool `json:"sign_extension"`
	BulkMemory             bool `json:"bulk_memory"`
	ByteAddressableMemory  bool `json:"byte_addressable_memory"`
}

type jsonFunctionConfig struct {
	ExecutionModel string                      `json:"execution_model"`
	ExecutionModes []map[string]json.RawMessage `json:"execution_modes"`
	Params         map[string]jsonParamConfig   `json:"params"`
}

type jsonParamConfig struct {
	Kind        string `json:"kind"`
	PointerSize string `json:"pointer_size,omitempty"`

	// DescriptorSet
	Set          *uint32 `json:"set,omitempty"`
	Binding      *uint32 `json:"binding,omitempty"`
	StorageClass string  `json:"storage_class,omitempty"`

	// PushConstant
	Offset *uint32 `json:"offset,omitempty"`

	// BuiltIn
	Builtin string `json:"builtin,omitempty"`
	Output  bool   `json:"output,omitempty"`

	// Location
	Location *uint32 `json:"location,omitempty"`

	// Inline
	ConstantValue *uint64 `json:"constant_value,omitempty"`
}

// LoadJSON parses data per SPEC_FULL.md §6's schema. Unknown "kind" or
// "execution_model" tags are rejected here, at load time, rather than
// deferred to translation.
func LoadJSON(data []byte) (*Configuration, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	target, err := decodeTarget(doc.Platform)
	if err != nil {
		return nil, err
	}
	b := NewBuilder(target)

	if doc.AddressingModel != "" {
		am, err := decodeAddressingModel(doc.AddressingModel)
		if err != nil {
			return nil, err
		}
		b.AddressingModel(am)
	}
	if doc.MemoryModel != "" {
		mm, err := decodeMemoryModel(doc.MemoryModel)
		if err != nil {
			return nil, err
		}
		b.MemoryModel(mm)
	}
	if len(doc.Capabilities) > 0 {
		policy, err := decodeCapabilityPolicy(doc.Capabilities)
		if err != nil {
			return nil, err
		}
		b.Capabilities(policy)
	}
	for _, ext := range doc.Extensions {
		b.Extension(ext)
	}
	if doc.WasmFeatures != nil {
		b.WasmFeatures(WasmFeatures{
			Memory64:              doc.WasmFeatures.Memory64,
			SaturatingFloatToInt:  doc.WasmFeatures.SaturatingFloatToInt,
			SignExtension:         doc.WasmFeatures.SignExtension,
			BulkMemory:            doc.WasmFeatures.BulkMemory,
			ByteAddressableMemory: doc.WasmFeatures.ByteAddressableMemory,
		})
	}
	if doc.MemoryGrowErrorKind != "" {
		switch doc.MemoryGrowErrorKind {
		case "Hard":
			b.MemoryGrowErrorKind(MemoryGrowHard)
		case "Soft":
			b.MemoryGrowErrorKind(MemoryGrowSoft)
		default:
			return nil, fmt.Errorf("config: unknown memory_grow_error_kind %q", doc.MemoryGrowErrorKind)
		}
	}

	for idxStr, jfc := range doc.Functions {
		idx, err := strconv.ParseUint(idxStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("config: function index %q: %w", idxStr, err)
		}
		fc, err := decodeFunctionConfig(jfc)
		if err != nil {
			return nil, err
		}
		b.Function(uint32(idx), fc)
	}

	return b.Build()
}

func decodeTarget(platform map[string]string) (Target, error) {
	if v, ok := platform["vulkan"]; ok {
		ver, err := decodeVersion(v)
		if err != nil {
			return Target{}, err
		}
		return Target{Platform: PlatformVulkan, Version: ver}, nil
	}
	if v, ok := platform["universal"]; ok {
		ver, err := decodeVersion(v)
		if err != nil {
			return Target{}, err
		}
		return Target{Platform: PlatformUniversal, Version: ver}, nil
	}
	return Target{}, fmt.Errorf("config: platform must name exactly one of \"vulkan\" or \"universal\"")
}

func decodeVersion(s string) (spirv.Version, error) {
	var major, minor uint8
	if _, err := fmt.Sscanf(s, "%d.%d", &major, &minor); err != nil {
		return spirv.Version{}, fmt.Errorf("config: malformed version %q: %w", s, err)
	}
	return spirv.Version{Major: major, Minor: minor}, nil
}

func decodeAddressingModel(s string) (spirv.AddressingModel, error) {
	switch s {
	case "logical":
		return spirv.AddressingModelLogical, nil
	case "physical":
		return spirv.AddressingModelPhysical32, nil
	case "physical_storage_buffer":
		return spirv.AddressingModelPhysicalStorageBuffer64, nil
	default:
		return 0, fmt.Errorf("config: unknown addressing_model %q", s)
	}
}

func decodeMemoryModel(s string) (spirv.MemoryModel, error) {
	switch s {
	case "Simple":
		return spirv.MemoryModelSimple, nil
	case "GLSL450":
		return spirv.MemoryModelGLSL450, nil
	case "OpenCL":
		return spirv.MemoryModelOpenCL, nil
	case "Vulkan":
		return spirv.MemoryModelVulkan, nil
	default:
		return 0, fmt.Errorf("config: unknown memory_model %q", s)
	}
}

func decodeCapabilityPolicy(m map[string][]string) (CapabilityPolicy, error) {
	names, ok := m["static"]
	dynamic := false
	if !ok {
		names, ok = m["dynamic"]
		dynamic = true
	}
	if !ok {
		return CapabilityPolicy{}, fmt.Errorf("config: capabilities must name exactly one of \"static\" or \"dynamic\"")
	}
	caps := make([]spirv.Capability, 0, len(names))
	for _, name := range names {
		cap, err := decodeCapability(name)
		if err != nil {
			return CapabilityPolicy{}, err
		}
		caps = append(caps, cap)
	}
	if dynamic {
		return NewDynamicPolicy(caps...), nil
	}
	return NewStaticPolicy(caps...), nil
}

var capabilityNames = map[string]spirv.Capability{
	"Matrix":                      spirv.CapabilityMatrix,
	"Shader":                      spirv.CapabilityShader,
	"Geometry":                    spirv.CapabilityGeometry,
	"Tessellation":                spirv.CapabilityTessellation,
	"Addresses":                   spirv.CapabilityAddresses,
	"Linkage":                     spirv.CapabilityLinkage,
	"Kernel":                      spirv.CapabilityKernel,
	"Float16Buffer":               spirv.CapabilityFloat16Buffer,
	"Float16":                     spirv.CapabilityFloat16,
	"Float64":                     spirv.CapabilityFloat64,
	"Int64":                       spirv.CapabilityInt64,
	"Int16":                       spirv.CapabilityInt16,
	"Int8":                        spirv.CapabilityInt8,
	"ImageGatherExtended":         spirv.CapabilityImageGatherExtended,
	"ClipDistance":                spirv.CapabilityClipDistance,
	"CullDistance":                spirv.CapabilityCullDistance,
	"ImageCubeArray":              spirv.CapabilityImageCubeArray,
	"SampleRateShading":           spirv.CapabilitySampleRateShading,
	"InputAttachment":             spirv.CapabilityInputAttachment,
	"SparseResidency":             spirv.CapabilitySparseResidency,
	"MinLod":                      spirv.CapabilityMinLod,
	"ImageQuery":                  spirv.CapabilityImageQuery,
	"DerivativeControl":           spirv.CapabilityDerivativeControl,
	"StorageImageExtendedFormats": spirv.CapabilityStorageImageExtendedFormats,
	"MultiViewport":               spirv.CapabilityMultiViewport,
	"VariablePointersStorageBuffer": spirv.CapabilityVariablePointersStorageBuffer,
	"VariablePointers":            spirv.CapabilityVariablePointers,
	"DotProduct":                  spirv.CapabilityDotProduct,
	"DotProductInputAll":          spirv.CapabilityDotProductInputAll,
	"DotProductInput4x8Bit":       spirv.CapabilityDotProductInput4x8Bit,
	"DotProductInput4x8BitPacked": spirv.CapabilityDotProductInput4x8BitPacked,
}

func decodeCapability(name string) (spirv.Capability, error) {
	cap, ok := capabilityNames[name]
	if !ok {
		return 0, fmt.Errorf("config: unknown capability %q", name)
	}
	return cap, nil
}

func decodeExecutionModel(s string) (spirv.ExecutionModel, error) {
	switch s {
	case "Vertex":
		return spirv.ExecutionModelVertex, nil
	case "Fragment":
		return spirv.ExecutionModelFragment, nil
	case "GLCompute":
		return spirv.ExecutionModelGLCompute, nil
	default:
		return 0, fmt.Errorf("config: unknown execution_model %q", s)
	}
}

func decodeFunctionConfig(jfc jsonFunctionConfig) (FunctionConfig, error) {
	model, err := decodeExecutionModel(jfc.ExecutionModel)
	if err != nil {
		return FunctionConfig{}, err
	}
	fc := FunctionConfig{
		ExecutionModel: model,
		Params:         make(map[uint32]ParamConfig, len(jfc.Params)),
	}
	for _, modeMap := range jfc.ExecutionModes {
		mode, err := decodeExecutionMode(modeMap)
		if err != nil {
			return FunctionConfig{}, err
		}
		fc.ExecutionModes = append(fc.ExecutionModes, mode)
	}
	for idxStr, jpc := range jfc.Params {
		idx, err := strconv.ParseUint(idxStr, 10, 32)
		if err != nil {
			return FunctionConfig{}, fmt.Errorf("config: param index %q: %w", idxStr, err)
		}
		pc, err := decodeParamConfig(jpc)
		if err != nil {
			return FunctionConfig{}, err
		}
		fc.Params[uint32(idx)] = pc
	}
	return fc, nil
}

func decodeExecutionMode(m map[string]json.RawMessage) (ExecutionMode, error) {
	if raw, ok := m["local_size"]; ok {
		var xyz [3]uint32
		if err := json.Unmarshal(raw, &xyz); err != nil {
			return ExecutionMode{}, fmt.Errorf("config: local_size: %w", err)
		}
		return ExecutionMode{Mode: spirv.ExecutionModeLocalSize, Params: xyz[:]}, nil
	}
	if _, ok := m["origin_upper_left"]; ok {
		return ExecutionMode{Mode: spirv.ExecutionModeOriginUpperLeft}, nil
	}
	if _, ok := m["origin_lower_left"]; ok {
		return ExecutionMode{Mode: spirv.ExecutionModeOriginLowerLeft}, nil
	}
	if _, ok := m["depth_replacing"]; ok {
		return ExecutionMode{Mode: spirv.ExecutionModeDepthReplacing}, nil
	}
	return ExecutionMode{}, fmt.Errorf("config: unknown execution mode tag in %v", m)
}

func decodeStorageClass(s string) (spirv.StorageClass, error) {
	switch s {
	case "UniformConstant":
		return spirv.StorageClassUniformConstant, nil
	case "Input":
		return spirv.StorageClassInput, nil
	case "Uniform":
		return spirv.StorageClassUniform, nil
	case "Output":
		return spirv.StorageClassOutput, nil
	case "Workgroup":
		return spirv.StorageClassWorkgroup, nil
	case "Private":
		return spirv.StorageClassPrivate, nil
	case "Function":
		return spirv.StorageClassFunction, nil
	case "PushConstant":
		return spirv.StorageClassPushConstant, nil
	case "StorageBuffer":
		return spirv.StorageClassStorageBuffer, nil
	default:
		return 0, fmt.Errorf("config: unknown storage_class %q", s)
	}
}

var builtinNames = map[string]spirv.BuiltIn{
	"Position":             spirv.BuiltInPosition,
	"VertexIndex":          spirv.BuiltInVertexIndex,
	"InstanceIndex":        spirv.BuiltInInstanceIndex,
	"FrontFacing":          spirv.BuiltInFrontFacing,
	"FragDepth":            spirv.BuiltInFragDepth,
	"SampleId":             spirv.BuiltInSampleId,
	"SampleMask":           spirv.BuiltInSampleMask,
	"LocalInvocationId":    spirv.BuiltInLocalInvocationId,
	"LocalInvocationIndex": spirv.BuiltInLocalInvocationIndex,
	"GlobalInvocationId":   spirv.BuiltInGlobalInvocationId,
	"WorkgroupId":          spirv.BuiltInWorkgroupId,
	"NumWorkgroups":        spirv.BuiltInNumWorkgroups,
}

func decodeParamConfig(jpc jsonParamConfig) (ParamConfig, error) {
	pc := ParamConfig{PointerSize: PointerThin}
	if jpc.PointerSize == "fat" {
		pc.PointerSize = PointerFat
	}

	switch jpc.Kind {
	case "DescriptorSet":
		sc, err := decodeStorageClass(jpc.StorageClass)
		if err != nil {
			return ParamConfig{}, err
		}
		if jpc.Set == nil || jpc.Binding == nil {
			return ParamConfig{}, fmt.Errorf("config: DescriptorSet binding requires set and binding")
		}
		pc.Kind = DescriptorSetBinding{Set: *jpc.Set, Binding: *jpc.Binding, StorageClass: sc}
	case "PushConstant":
		if jpc.Offset == nil {
			return ParamConfig{}, fmt.Errorf("config: PushConstant binding requires offset")
		}
		pc.Kind = PushConstantBinding{Offset: *jpc.Offset}
	case "BuiltIn":
		b, ok := builtinNames[jpc.Builtin]
		if !ok {
			return ParamConfig{}, fmt.Errorf("config: unknown builtin %q", jpc.Builtin)
		}
		if jpc.Output {
			pc.Kind = BuiltinOutputBinding{Builtin: b}
		} else {
			pc.Kind = BuiltinInputBinding{Builtin: b}
		}
	case "Location":
		if jpc.Location == nil {
			return ParamConfig{}, fmt.Errorf("config: Location binding requires location")
		}
		pc.Kind = LocationBinding{Location: *jpc.Location, Output: jpc.Output}
	case "Inline":
		var v uint64
		if jpc.ConstantValue != nil {
			v = *jpc.ConstantValue
		}
		pc.Kind = InlineBinding{ConstantValue: v}
	default:
		return ParamConfig{}, fmt.Errorf("config: unknown param kind %q", jpc.Kind)
	}
	return pc, nil
}
