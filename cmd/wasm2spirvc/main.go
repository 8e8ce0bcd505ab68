// Command wasm2spirvc is the CLI for the wasm2spirv compiler: compile
// a Wasm module to SPIR-V, disassemble or validate a SPIR-V module, or
// cross-compile an already-assembled module to GLSL/HLSL/MSL/WGSL.
//
// Usage:
//
//	wasm2spirvc compile -c config.json -o out.spv module.wasm
//	wasm2spirvc disassemble out.spv
//	wasm2spirvc validate out.spv
//	wasm2spirvc glsl module.wasm
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}
