package translate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gowasm/wasm2spirv/config"
	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/memory"
	"github.com/gowasm/wasm2spirv/spirv"
	"github.com/gowasm/wasm2spirv/wasmfront"
)

// TranslateModule is the translate package's entry point: it lowers
// every Wasm-defined function into an ir.Function, wires up linear
// memory, resolved global bindings, and entry points, and returns the
// fully assembled ir.Module ready for spirv.Backend.Compile. Diagnostic
// logging is discarded; use TranslateModuleWithLogger to observe it.
func TranslateModule(wasmMod *wasmfront.Module, cfg *config.Configuration) (*ir.Module, error) {
	return TranslateModuleWithLogger(wasmMod, cfg, zap.NewNop())
}

// TranslateModuleWithLogger is TranslateModule with an explicit
// diagnostic logger threaded through every per-function translation,
// rather than a package-level global — matching the ambient logging
// convention the rest of this module's call chains follow.
func TranslateModuleWithLogger(wasmMod *wasmfront.Module, cfg *config.Configuration, log *zap.Logger) (*ir.Module, error) {
	if log == nil {
		log = zap.NewNop()
	}
	module := &ir.Module{}
	types := ir.NewTypeRegistry()

	linearMem := memory.DeclareLinearMemory(module, types, cfg.WasmFeatures().ByteAddressableMemory, 0, 0)

	globals, err := resolveGlobalImports(module, types, wasmMod)
	if err != nil {
		return nil, err
	}

	numImported := wasmMod.NumImportedFuncs()
	funcHandles := make([]ir.FunctionHandle, numImported+len(wasmMod.Funcs))

	for i := range wasmMod.Code {
		funcIdx := uint32(numImported + i)
		handle := ir.FunctionHandle(len(module.Functions))
		module.Functions = append(module.Functions, ir.Function{})
		funcHandles[funcIdx] = handle
	}

	for i, body := range wasmMod.Code {
		funcIdx := uint32(numImported + i)
		sig := wasmMod.FuncTypeOf(funcIdx)
		if sig == nil {
			return nil, &errs.ConfigError{Message: fmt.Sprintf("function %d: no signature", funcIdx)}
		}

		fn, err := translateOneFunction(module, types, linearMem, wasmMod, cfg, funcIdx, sig, body, globals, funcHandles, log)
		if err != nil {
			return nil, fmt.Errorf("function %d: %w", funcIdx, err)
		}
		module.Functions[funcHandles[funcIdx]] = *fn
	}

	if err := addEntryPoints(module, wasmMod, cfg, funcHandles, numImported); err != nil {
		return nil, err
	}

	module.Types = types.GetTypes()
	return module, nil
}

// resolveGlobalImports walks the Wasm global index space (imports
// first, then module-defined) and resolves every entry to a
// globalBinding: an imported "spir_global" built-in resolves via
// memory.ResolveImportedBuiltin, a module-defined global gets a plain
// Private global variable seeded from its (constant-only) init
// expression, and any other import is rejected as unsupported — a
// Wasm global imported from anywhere but spir_global has no SPIR-V
// counterpart this translator can produce.
func resolveGlobalImports(module *ir.Module, types *ir.TypeRegistry, wasmMod *wasmfront.Module) ([]globalBinding, error) {
	var out []globalBinding
	for _, imp := range wasmMod.Imports {
		if imp.Desc.Kind != wasmfront.KindGlobal {
			continue
		}
		vt := imp.Desc.Global.ValType
		typeHandle := types.GetOrCreate("", wasmValTypeToIR(vt))
		handle, ok := memory.ResolveImportedBuiltin(module, imp.Module, imp.Name, typeHandle)
		if !ok {
			return nil, &errs.UnsupportedFeature{Feature: fmt.Sprintf("global import %s.%s", imp.Module, imp.Name)}
		}
		out = append(out, globalBinding{variable: handle, valType: vt})
	}

	for _, g := range wasmMod.Globals {
		typeHandle := types.GetOrCreate("", wasmValTypeToIR(g.Type.ValType))
		handle := ir.GlobalVariableHandle(len(module.GlobalVariables))
		module.GlobalVariables = append(module.GlobalVariables, ir.GlobalVariable{
			Space: ir.SpacePrivate,
			Type:  typeHandle,
		})
		out = append(out, globalBinding{variable: handle, valType: g.Type.ValType})
	}
	return out, nil
}

// translateOneFunction builds one ir.Function: the local table
// (ordinary function-argument parameters for an unconfigured internal
// function, or resource-bound locals for a configured entry point),
// then runs the structured CFG reconstructor over its decoded
// instruction stream.
func translateOneFunction(module *ir.Module, types *ir.TypeRegistry, linearMem *memory.LinearMemory, wasmMod *wasmfront.Module, cfg *config.Configuration, funcIdx uint32, sig *wasmfront.FuncType, body wasmfront.FuncBody, globals []globalBinding, funcHandles []ir.FunctionHandle, log *zap.Logger) (*ir.Function, error) {
	code, err := wasmfront.DecodeInstructions(body.Code)
	if err != nil {
		return nil, err
	}

	declTypes := make([]wasmfront.ValType, 0, len(body.Locals))
	for _, entry := range body.Locals {
		for i := uint32(0); i < entry.Count; i++ {
			declTypes = append(declTypes, entry.ValType)
		}
	}

	fnConfig, isEntry := cfg.FunctionConfig(funcIdx)

	fn := &ir.Function{Name: fmt.Sprintf("func_%d", funcIdx)}
	if len(sig.Results) > 0 && !isEntry {
		rt := types.GetOrCreate("", wasmValTypeToIR(sig.Results[0]))
		fn.Result = &ir.FunctionResult{Type: rt}
	}

	numLocals := len(sig.Params) + len(declTypes)
	usage := scanLocalUsage(code, numLocals)
	for _, u := range usage {
		if u.needsSchrodinger() && !cfg.RequireCapability(spirv.CapabilityVariablePointers) {
			return nil, &errs.CapabilityMissing{Capability: "VariablePointers (needed by a local used both as an integer and as a memory address)"}
		}
	}

	var lt *localTable
	if isEntry {
		declTypes = append(append([]wasmfront.ValType{}, sig.Params...), declTypes...)
		lt = newLocalTable(fn, types, linearMem.ElementType, nil, declTypes, usage)
		if err := bindEntryParams(module, types, fn, lt, sig, fnConfig); err != nil {
			return nil, err
		}
	} else {
		fn.Arguments = make([]ir.FunctionArgument, len(sig.Params))
		for i, vt := range sig.Params {
			fn.Arguments[i] = ir.FunctionArgument{Type: types.GetOrCreate("", wasmValTypeToIR(vt))}
		}
		lt = newLocalTable(fn, types, linearMem.ElementType, sig.Params, declTypes, usage)
	}

	t := &functionTranslator{
		fn:          fn,
		stack:       newValueStack(funcIdx),
		locals:      lt,
		types:       types,
		module:      module,
		mem:         linearMem,
		wasmMod:     wasmMod,
		globals:     globals,
		funcHandles: funcHandles,
		funcIdx:     funcIdx,
		growPolicy:  cfg.MemoryGrowErrorKind(),
		cfg:         cfg,
		log:         log,
	}

	if err := t.translateFunction(code); err != nil {
		return nil, err
	}

	if isEntry {
		if err := t.writeEntryOutputs(sig, fnConfig, lt); err != nil {
			return nil, err
		}
	}

	return fn, nil
}

// bindEntryParams resolves every entry-point parameter's ParamConfig to
// a module-scope global (or inline literal) and seeds the
// corresponding local slot from it. Wasm parameters were folded into
// declTypes ahead of the declared locals by translateOneFunction, so
// they occupy local indices [0, len(sig.Params)).
func bindEntryParams(module *ir.Module, types *ir.TypeRegistry, fn *ir.Function, lt *localTable, sig *wasmfront.FuncType, fnConfig config.FunctionConfig) error {
	for i, vt := range sig.Params {
		pc, ok := fnConfig.Params[uint32(i)]
		if !ok {
			continue // unconfigured parameter stays zero-initialized
		}
		if isOutputParam(pc.Kind) {
			continue // written at the end, not read at the start
		}
		typeHandle := types.GetOrCreate("", wasmValTypeToIR(vt))
		resolved, err := memory.ResolveParam(module, types, fmt.Sprintf("param_%d", i), typeHandle, pc.Kind)
		if err != nil {
			return err
		}
		var init ir.ExpressionHandle
		if resolved.Global != nil {
			ptr := appendExpr(fn, ir.ExprGlobalVariable{Variable: *resolved.Global})
			init = appendExpr(fn, ir.ExprLoad{Pointer: ptr})
		} else {
			init = appendExpr(fn, literalFor(vt, *resolved.Literal))
		}
		lt.storeInitial(uint32(i), init)
	}
	return nil
}

// writeEntryOutputs stores every output-bound parameter's final local
// value into its resolved global, appended to fn.Body right after the
// structured CFG reconstructor's output (Wasm's implicit fallthrough
// return point — a function-level `return` by contrast already popped
// its result before this runs, so this only ever fires for the
// fallthrough path, and only for Output-kind params that were never
// the function's explicit return value).
func (t *functionTranslator) writeEntryOutputs(sig *wasmfront.FuncType, fnConfig config.FunctionConfig, lt *localTable) error {
	for i, vt := range sig.Params {
		pc, ok := fnConfig.Params[uint32(i)]
		if !ok || !isOutputParam(pc.Kind) {
			continue
		}
		typeHandle := t.types.GetOrCreate("", wasmValTypeToIR(vt))
		resolved, err := memory.ResolveParam(t.module, t.types, fmt.Sprintf("param_%d", i), typeHandle, pc.Kind)
		if err != nil {
			return err
		}
		if resolved.Global == nil {
			continue
		}
		value := lt.readAsInt(uint32(i))
		ptr := appendExpr(t.fn, ir.ExprGlobalVariable{Variable: *resolved.Global})
		t.fn.Body = append(t.fn.Body, ir.Statement{Kind: ir.StmtStore{Pointer: ptr, Value: value}})
	}
	return nil
}

func isOutputParam(k config.ParamKind) bool {
	switch v := k.(type) {
	case config.BuiltinOutputBinding:
		return true
	case config.LocationBinding:
		return v.Output
	default:
		return false
	}
}

func literalFor(vt wasmfront.ValType, bits uint64) ir.LiteralValue {
	switch vt {
	case wasmfront.ValI32:
		return ir.LiteralI32(int32(bits))
	case wasmfront.ValI64:
		return ir.LiteralI64(int64(bits))
	case wasmfront.ValF32:
		return ir.LiteralF32(float32(bits))
	case wasmfront.ValF64:
		return ir.LiteralF64(float64(bits))
	default:
		return ir.LiteralU32(uint32(bits))
	}
}

// addEntryPoints registers one ir.EntryPoint per Wasm export that has
// a FunctionConfig, deriving the shader stage from its ExecutionModel
// and the workgroup size from any configured local_size execution
// mode.
func addEntryPoints(module *ir.Module, wasmMod *wasmfront.Module, cfg *config.Configuration, funcHandles []ir.FunctionHandle, numImported int) error {
	for _, exp := range wasmMod.Exports {
		if exp.Kind != wasmfront.KindFunc {
			continue
		}
		fnConfig, ok := cfg.FunctionConfig(exp.Idx)
		if !ok {
			continue
		}
		stage, err := executionModelToStage(fnConfig.ExecutionModel)
		if err != nil {
			return err
		}
		ep := ir.EntryPoint{
			Name:     exp.Name,
			Stage:    stage,
			Function: funcHandles[exp.Idx],
		}
		if stage == ir.StageCompute {
			ep.Workgroup = workgroupSize(fnConfig.ExecutionModes)
		}
		module.EntryPoints = append(module.EntryPoints, ep)
	}
	return nil
}

func executionModelToStage(m spirv.ExecutionModel) (ir.ShaderStage, error) {
	switch m {
	case spirv.ExecutionModelVertex:
		return ir.StageVertex, nil
	case spirv.ExecutionModelFragment:
		return ir.StageFragment, nil
	case spirv.ExecutionModelGLCompute:
		return ir.StageCompute, nil
	default:
		return 0, &errs.UnsupportedFeature{Feature: "execution model"}
	}
}

func workgroupSize(modes []config.ExecutionMode) [3]uint32 {
	for _, m := range modes {
		if m.Mode == spirv.ExecutionModeLocalSize && len(m.Params) == 3 {
			return [3]uint32{m.Params[0], m.Params[1], m.Params[2]}
		}
	}
	return [3]uint32{1, 1, 1}
}
