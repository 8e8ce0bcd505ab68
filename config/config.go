// Package config holds the frozen, immutable description of a
// compilation request: target platform and SPIR-V version, addressing
// and memory models, capability policy, and the per-function execution
// model and parameter bindings a Wasm module needs injected since Wasm
// itself has no notion of descriptor sets, execution models, or
// built-ins.
package config

import "github.com/gowasm/wasm2spirv/spirv"

// Platform names the target API family.
type Platform uint8

const (
	PlatformUniversal Platform = iota
	PlatformVulkan
)

// Target pairs a platform with the SPIR-V version to emit for it.
type Target struct {
	Platform Platform
	Version  spirv.Version
}

// MemoryGrowErrorKind selects how memory.grow is handled.
type MemoryGrowErrorKind uint8

const (
	// MemoryGrowHard fails compilation when memory.grow is encountered.
	MemoryGrowHard MemoryGrowErrorKind = iota
	// MemoryGrowSoft replaces memory.grow's result with the constant -1
	// and treats that as the operation's only effect.
	MemoryGrowSoft
)

// WasmFeatures toggles optional Wasm MVP-adjacent behavior the
// translator supports under explicit opt-in.
type WasmFeatures struct {
	Memory64                bool
	SaturatingFloatToInt     bool
	SignExtension            bool
	BulkMemory               bool
	// ByteAddressableMemory selects a u8 runtime array for linear
	// memory (one access-chain index per byte) instead of the default
	// u32 runtime array (one index per 4-byte-aligned word); see
	// memory.LayoutMode.
	ByteAddressableMemory bool
}

// Configuration is the frozen, immutable snapshot of a compilation
// request. Build one with Builder; Configuration itself exposes no
// mutators.
type Configuration struct {
	target               Target
	addressingModel      spirv.AddressingModel
	memoryModel          spirv.MemoryModel
	capabilities         CapabilityPolicy
	extensions           map[string]bool
	wasmFeatures         WasmFeatures
	memoryGrowErrorKind  MemoryGrowErrorKind
	functions            map[uint32]FunctionConfig
}

// Target returns the compilation's target platform and version.
func (c *Configuration) Target() Target { return c.target }

// AddressingModel returns the configured SPIR-V addressing model.
func (c *Configuration) AddressingModel() spirv.AddressingModel { return c.addressingModel }

// MemoryModel returns the configured SPIR-V memory model.
func (c *Configuration) MemoryModel() spirv.MemoryModel { return c.memoryModel }

// Capabilities returns the capability policy governing
// RequireCapability calls during emission.
func (c *Configuration) Capabilities() CapabilityPolicy { return c.capabilities }

// RequireCapability records, against this compilation's own policy,
// that the translator is about to emit something needing cap. Unlike
// Capabilities().RequireCapability, this operates on the Configuration's
// own field directly (addressable through the *Configuration receiver),
// so the requirement is recorded for real rather than against a
// throwaway copy of the policy's value.
func (c *Configuration) RequireCapability(cap spirv.Capability) bool {
	return c.capabilities.RequireCapability(cap)
}

// HasExtension reports whether name is in the authoritative extension
// set.
func (c *Configuration) HasExtension(name string) bool { return c.extensions[name] }

// Extensions returns the authoritative extension set as a slice, order
// unspecified.
func (c *Configuration) Extensions() []string {
	out := make([]string, 0, len(c.extensions))
	for name := range c.extensions {
		out = append(out, name)
	}
	return out
}

// WasmFeatures returns the configured optional Wasm feature flags.
func (c *Configuration) WasmFeatures() WasmFeatures { return c.wasmFeatures }

// MemoryGrowErrorKind returns the configured memory.grow policy.
func (c *Configuration) MemoryGrowErrorKind() MemoryGrowErrorKind { return c.memoryGrowErrorKind }

// FunctionConfig returns the configuration for the Wasm function at
// funcIdx, if one was declared.
func (c *Configuration) FunctionConfig(funcIdx uint32) (FunctionConfig, bool) {
	fc, ok := c.functions[funcIdx]
	return fc, ok
}

// Functions returns every declared function index, order unspecified.
func (c *Configuration) Functions() []uint32 {
	out := make([]uint32, 0, len(c.functions))
	for idx := range c.functions {
		out = append(out, idx)
	}
	return out
}

// CapabilityPolicy is Static (a fixed allow-list; RequireCapability
// returns false for a capability outside it, which the translator
// reports as CapabilityMissing) or Dynamic (the set accumulates as emission
// demands capabilities).
type CapabilityPolicy struct {
	Dynamic bool
	allowed map[spirv.Capability]bool
}

// NewStaticPolicy returns a policy that rejects any capability not in
// allow.
func NewStaticPolicy(allow ...spirv.Capability) CapabilityPolicy {
	set := make(map[spirv.Capability]bool, len(allow))
	for _, c := range allow {
		set[c] = true
	}
	return CapabilityPolicy{Dynamic: false, allowed: set}
}

// NewDynamicPolicy returns a policy seeded with initial, to which
// RequireCapability freely adds.
func NewDynamicPolicy(initial ...spirv.Capability) CapabilityPolicy {
	set := make(map[spirv.Capability]bool, len(initial))
	for _, c := range initial {
		set[c] = true
	}
	return CapabilityPolicy{Dynamic: true, allowed: set}
}

// RequireCapability records that the emitted module needs cap. Under a
// Static policy it fails if cap was not in the original allow-list;
// under Dynamic it always succeeds and inserts cap.
func (p *CapabilityPolicy) RequireCapability(cap spirv.Capability) bool {
	if p.allowed[cap] {
		return true
	}
	if !p.Dynamic {
		return false
	}
	p.allowed[cap] = true
	return true
}

// Declared returns the capability set as currently declared, order
// unspecified.
func (p *CapabilityPolicy) Declared() []spirv.Capability {
	out := make([]spirv.Capability, 0, len(p.allowed))
	for c := range p.allowed {
		out = append(out, c)
	}
	return out
}
