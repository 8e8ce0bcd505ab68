// Package wasm2spirv is the library facade: it chains the decoder,
// translator, and SPIR-V backend into the single call spec.md §2
// describes as the "compilation" collaborator, and threads an optional
// zap logger into the translator (the decoder and the SPIR-V backend
// take no logger).
package wasm2spirv

import (
	"go.uber.org/zap"

	"github.com/gowasm/wasm2spirv/config"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/spirv"
	"github.com/gowasm/wasm2spirv/translate"
	"github.com/gowasm/wasm2spirv/wasmfront"
)

// Result is a compilation's output: the assembled IR (kept around for
// passes/ adapters that want to operate on it directly, e.g.
// crosscompile.go) and the encoded SPIR-V word stream.
type Result struct {
	Module *ir.Module
	SPIRV  []byte
}

// Compile runs the full Wasm-bytes-to-SPIR-V-bytes pipeline: decode,
// translate, and assemble. It is the single entry point spec.md §8's
// scenarios S1–S6 exercise end to end; passes/ adapters (validation,
// optimization, cross-compilation, disassembly) are optional
// post-processing a caller layers on top of Result.SPIRV/Result.Module.
func Compile(wasmBytes []byte, cfg *config.Configuration) (*Result, error) {
	return CompileWithLogger(wasmBytes, cfg, zap.NewNop())
}

// CompileWithLogger is Compile with an explicit diagnostic logger.
func CompileWithLogger(wasmBytes []byte, cfg *config.Configuration, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	wasmMod, err := wasmfront.Decode(wasmBytes)
	if err != nil {
		return nil, err
	}
	log.Debug("decoded wasm module", zap.Int("functions", len(wasmMod.Code)), zap.Int("exports", len(wasmMod.Exports)))

	module, err := translate.TranslateModuleWithLogger(wasmMod, cfg, log)
	if err != nil {
		return nil, err
	}

	backend := spirv.NewBackend(spirvOptionsFrom(cfg))
	words, err := backend.Compile(module)
	if err != nil {
		return nil, err
	}
	log.Debug("assembled spir-v module", zap.Int("bytes", len(words)))

	return &Result{Module: module, SPIRV: words}, nil
}

// spirvOptionsFrom derives spirv.Options from the compilation's
// Configuration, so the backend's target version, addressing/memory
// model, and declared capability set track what config/ was actually
// built with instead of spirv.DefaultOptions()'s fixed defaults.
func spirvOptionsFrom(cfg *config.Configuration) spirv.Options {
	target := cfg.Target()
	caps := cfg.Capabilities()
	return spirv.Options{
		Version:         target.Version,
		AddressingModel: cfg.AddressingModel(),
		MemoryModel:     cfg.MemoryModel(),
		Capabilities:    caps.Declared(),
		Validation:      true,
	}
}
