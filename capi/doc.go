// Package capi gives spec.md §6's foreign handle ABI a concrete Go
// shape: a process-wide registry mapping opaque handles to the Go
// values a C caller would otherwise have no way to hold a reference
// to, an alloc/free callback pair for a caller-supplied allocator, and
// a per-goroutine last-error slot standing in for the thread-local one
// a real C ABI would use.
//
// No real FFI boundary drives this package today — wasm2spirv is used
// as a Go library and via cmd/wasm2spirvc — but the shapes here are
// exactly what a cgo or WASM-host binding would need to wrap, so the
// package exists to make that wrapping mechanical rather than a
// redesign.
package capi
