// Package passes implements spec.md §4.7's pass adapters: the pure
// `bytes -> bytes|string` functions a caller invokes on demand for
// validation, optimization, disassembly, and cross-compilation, with results cached
// (through Cache) against the SPIR-V word vector they were run against
// so a repeated request over the same words doesn't re-run an external
// process or re-walk the IR.
package passes
