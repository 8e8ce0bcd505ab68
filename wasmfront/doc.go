// Package wasmfront decodes the WebAssembly MVP binary format into an
// in-memory Module suitable for function-level translation.
//
// Decoding is treated as an input dependency rather than core translation
// logic: wasmfront performs no semantic lowering, no type checking beyond
// what the binary format itself requires, and no SPIR-V awareness. It
// exists purely to turn a byte stream into typed Go structures that the
// translate package can walk.
package wasmfront
