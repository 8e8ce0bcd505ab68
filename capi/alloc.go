package capi

// AllocFunc mirrors the allocator callback a foreign caller supplies
// at initialization, per spec.md §6: size bytes, aligned to 1<<log2Align,
// returned as an opaque pointer-sized value the caller's own allocator
// owns. This module never calls it itself — every buffer it produces
// (SPIR-V words, disassembly text) lives in an ordinary Go slice — but
// a cgo/WASM-host binding layered on top needs the type to plumb a
// caller's allocator through without inventing its own convention.
type AllocFunc func(size uint32, log2Align uint32) uintptr

// FreeFunc mirrors the matching deallocator callback: the same
// pointer, size, and alignment AllocFunc produced it with, per the
// sized-free convention spec.md §6 describes (no separate malloc/free
// size bookkeeping needed on either side of the boundary).
type FreeFunc func(ptr uintptr, size uint32, log2Align uint32)

// Allocator bundles the pair a binding receives once at setup and
// threads through every call that needs to hand memory back across
// the boundary.
type Allocator struct {
	Alloc AllocFunc
	Free  FreeFunc
}

// NoopAllocator is a placeholder Allocator whose Alloc always returns 0
// and whose Free is a no-op. Nothing in this package installs or calls
// it; it is a ready-made Allocator value for when no real FFI caller
// has supplied one.
var NoopAllocator = Allocator{
	Alloc: func(uint32, uint32) uintptr { return 0 },
	Free:  func(uintptr, uint32, uint32) {},
}
