package glsl

import (
	"testing"

	"github.com/gowasm/wasm2spirv/config"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/spirv"
	"github.com/gowasm/wasm2spirv/translate"
	"github.com/gowasm/wasm2spirv/wasmfront"
)

// wasmHeader, section, and buildComputeWasmModule mirror
// translate/translate_test.go's own module builder; each package that
// needs to drive a compiler from raw Wasm bytes keeps its own copy
// rather than exporting an internal-only helper across packages.
var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

func section(id byte, payload []byte) []byte {
	return append([]byte{id, byte(len(payload))}, payload...)
}

// buildComputeWasmModule assembles a single zero-param, zero-result
// function named "main", exported for use as a compute entry point.
func buildComputeWasmModule(tb testing.TB, body []byte) []byte {
	tb.Helper()

	typePayload := []byte{0x01, wasmfront.FuncTypeByte, 0x00, 0x00}
	funcPayload := []byte{0x01, 0x00}

	name := "main"
	exportPayload := append([]byte{0x01, byte(len(name))}, []byte(name)...)
	exportPayload = append(exportPayload, wasmfront.KindFunc, 0x00)

	entry := append([]byte{0x00}, body...)
	codeSection := append([]byte{0x01, byte(len(entry))}, entry...)

	out := append([]byte{}, wasmHeader...)
	out = append(out, section(wasmfront.SectionType, typePayload)...)
	out = append(out, section(wasmfront.SectionFunction, funcPayload)...)
	out = append(out, section(wasmfront.SectionExport, exportPayload)...)
	out = append(out, section(wasmfront.SectionCode, codeSection)...)
	return out
}

// computeEntryConfig declares function 0 as a GLCompute entry point
// with a 1x1x1 workgroup, the minimal execution mode GLCompute needs.
func computeEntryConfig(tb testing.TB) *config.Configuration {
	tb.Helper()
	cfg, err := config.NewBuilder(config.Target{Platform: config.PlatformVulkan, Version: spirv.Version1_0}).
		Function(0, config.FunctionConfig{
			ExecutionModel: spirv.ExecutionModelGLCompute,
			ExecutionModes: []config.ExecutionMode{
				{Mode: spirv.ExecutionModeLocalSize, Params: []uint32{1, 1, 1}},
			},
		}).
		Build()
	if err != nil {
		tb.Fatalf("config build: %v", err)
	}
	return cfg
}

// translateWasmCompute decodes data as a Wasm module and translates
// it under cfg, stopping short of any particular backend's Compile so
// each test can call its own package's Compile with its own Options.
func translateWasmCompute(tb testing.TB, data []byte, cfg *config.Configuration) *ir.Module {
	tb.Helper()
	wasmMod, err := wasmfront.Decode(data)
	if err != nil {
		tb.Fatalf("wasmfront.Decode: %v", err)
	}
	module, err := translate.TranslateModule(wasmMod, cfg)
	if err != nil {
		tb.Fatalf("translate.TranslateModule: %v", err)
	}
	return module
}
