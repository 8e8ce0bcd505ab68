package config

import (
	"fmt"

	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/spirv"
)

// Builder constructs a Configuration field by field. The zero Builder
// is not usable; start from NewBuilder.
type Builder struct {
	cfg Configuration
	err error
}

// NewBuilder returns a Builder defaulted to logical addressing, the
// GLSL450 memory model, a Dynamic capability policy seeded with
// Shader, and Hard memory-growth handling.
func NewBuilder(target Target) *Builder {
	return &Builder{
		cfg: Configuration{
			target:              target,
			addressingModel:     spirv.AddressingModelLogical,
			memoryModel:         spirv.MemoryModelGLSL450,
			capabilities:        NewDynamicPolicy(spirv.CapabilityShader),
			extensions:          make(map[string]bool),
			memoryGrowErrorKind: MemoryGrowHard,
			functions:           make(map[uint32]FunctionConfig),
		},
	}
}

// AddressingModel overrides the default logical addressing model.
func (b *Builder) AddressingModel(m spirv.AddressingModel) *Builder {
	b.cfg.addressingModel = m
	return b
}

// MemoryModel overrides the default GLSL450 memory model.
func (b *Builder) MemoryModel(m spirv.MemoryModel) *Builder {
	b.cfg.memoryModel = m
	return b
}

// Capabilities overrides the default Dynamic[Shader] policy.
func (b *Builder) Capabilities(p CapabilityPolicy) *Builder {
	b.cfg.capabilities = p
	return b
}

// Extension adds name to the authoritative extension set.
func (b *Builder) Extension(name string) *Builder {
	b.cfg.extensions[name] = true
	return b
}

// WasmFeatures overrides the default (all-disabled) feature set.
func (b *Builder) WasmFeatures(f WasmFeatures) *Builder {
	b.cfg.wasmFeatures = f
	return b
}

// MemoryGrowErrorKind overrides the default Hard policy.
func (b *Builder) MemoryGrowErrorKind(k MemoryGrowErrorKind) *Builder {
	b.cfg.memoryGrowErrorKind = k
	return b
}

// Function declares (or replaces) the configuration for funcIdx.
func (b *Builder) Function(funcIdx uint32, fc FunctionConfig) *Builder {
	if fc.Params == nil {
		fc.Params = make(map[uint32]ParamConfig)
	}
	b.cfg.functions[funcIdx] = fc
	return b
}

// Fail records a fatal configuration error surfaced by Build. The
// first Fail call wins; later ones are ignored so a long fluent chain
// doesn't clobber the real cause with a downstream symptom.
func (b *Builder) Fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = &errs.ConfigError{Message: fmt.Sprintf(format, args...)}
	}
	return b
}

// Build finalizes the configuration. The returned Configuration is a
// value copy safe to share across compilations; Builder must not be
// reused afterward.
func (b *Builder) Build() (*Configuration, error) {
	if b.err != nil {
		return nil, b.err
	}
	cfg := b.cfg
	cfg.extensions = cloneStringSet(b.cfg.extensions)
	cfg.functions = cloneFunctions(b.cfg.functions)
	cfg.capabilities = cloneCapabilityPolicy(b.cfg.capabilities)
	return &cfg, nil
}

func cloneStringSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFunctions(m map[uint32]FunctionConfig) map[uint32]FunctionConfig {
	out := make(map[uint32]FunctionConfig, len(m))
	for k, fc := range m {
		params := make(map[uint32]ParamConfig, len(fc.Params))
		for pk, pv := range fc.Params {
			params[pk] = pv
		}
		fc.Params = params
		out[k] = fc
	}
	return out
}

func cloneCapabilityPolicy(p CapabilityPolicy) CapabilityPolicy {
	out := CapabilityPolicy{Dynamic: p.Dynamic, allowed: make(map[spirv.Capability]bool, len(p.allowed))}
	for c, v := range p.allowed {
		out.allowed[c] = v
	}
	return out
}
