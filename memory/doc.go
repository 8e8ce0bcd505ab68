// Package memory lays out Wasm linear memory as a SPIR-V storage
// buffer and resolves imported globals and configured parameter
// bindings onto SPIR-V resources: descriptor-set variables,
// push-constant ranges, and built-in Input/Output variables.
//
// Wasm itself has no notion of any of this — no descriptor sets, no
// execution models, no built-ins — so every resource surfaced here
// exists only because the compilation Configuration declared it.
package memory
