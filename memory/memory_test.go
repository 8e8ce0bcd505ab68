package memory

import (
	"testing"

	"github.com/gowasm/wasm2spirv/config"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/spirv"
)

func TestDeclareLinearMemoryWordAddressed(t *testing.T) {
	module := &ir.Module{}
	types := ir.NewTypeRegistry()

	lm := DeclareLinearMemory(module, types, false, 0, 0)

	if lm.WordBytes != 4 {
		t.Fatalf("expected 4-byte word width, got %d", lm.WordBytes)
	}
	if len(module.GlobalVariables) != 1 {
		t.Fatalf("expected 1 global variable, got %d", len(module.GlobalVariables))
	}
	global := module.GlobalVariables[lm.Global]
	if global.Space != ir.SpaceStorage {
		t.Errorf("expected SpaceStorage, got %v", global.Space)
	}
	if global.Binding == nil || global.Binding.Group != 0 || global.Binding.Binding != 0 {
		t.Errorf("expected binding {0,0}, got %+v", global.Binding)
	}
	structType, ok := types.Lookup(global.Type)
	if !ok {
		t.Fatal("global variable's type not registered")
	}
	st, ok := structType.Inner.(ir.StructType)
	if !ok || len(st.Members) != 1 {
		t.Fatalf("expected a 1-member struct type, got %#v", structType.Inner)
	}
	arrType, ok := types.Lookup(st.Members[0].Type)
	if !ok {
		t.Fatal("array member type not registered")
	}
	arr, ok := arrType.Inner.(ir.ArrayType)
	if !ok || arr.Size.Constant != nil {
		t.Fatalf("expected a runtime-sized array, got %#v", arrType.Inner)
	}
}

func TestDeclareLinearMemoryByteAddressed(t *testing.T) {
	module := &ir.Module{}
	types := ir.NewTypeRegistry()

	lm := DeclareLinearMemory(module, types, true, 1, 2)

	if lm.WordBytes != 1 {
		t.Fatalf("expected 1-byte word width, got %d", lm.WordBytes)
	}
	elemType, ok := types.Lookup(lm.ElementType)
	if !ok {
		t.Fatal("element type not registered")
	}
	scalar, ok := elemType.Inner.(ir.ScalarType)
	if !ok || scalar.Width != 1 || scalar.Kind != ir.ScalarUint {
		t.Fatalf("expected u8 element type, got %#v", elemType.Inner)
	}
}

func TestCheckAlignment(t *testing.T) {
	module := &ir.Module{}
	types := ir.NewTypeRegistry()
	word := DeclareLinearMemory(module, types, false, 0, 0)
	byteAddr := DeclareLinearMemory(&ir.Module{}, ir.NewTypeRegistry(), true, 0, 0)

	cases := []struct {
		lm      *LinearMemory
		offset  uint32
		width   AccessWidth
		wantErr bool
	}{
		{word, 0, 4, false},
		{word, 4, 4, false},
		{word, 2, 4, true},   // misaligned word access
		{word, 2, 1, false},  // narrow access is always decomposed
		{word, 3, 2, false},  // narrow access is always decomposed
		{byteAddr, 3, 4, false}, // u8 mode never rejects
	}
	for i, c := range cases {
		err := c.lm.CheckAlignment(c.offset, c.width)
		if (err != nil) != c.wantErr {
			t.Errorf("case %d: CheckAlignment(%d, %d) error = %v, wantErr %v", i, c.offset, c.width, err, c.wantErr)
		}
	}
}

func TestEmitElementPointer(t *testing.T) {
	module := &ir.Module{}
	types := ir.NewTypeRegistry()
	lm := DeclareLinearMemory(module, types, false, 0, 0)

	fn := &ir.Function{}
	offsetLiteral := appendExpr(fn, ir.Literal{Value: ir.LiteralU32(16)})
	ptr := lm.EmitElementPointer(fn, offsetLiteral)

	if int(ptr) != len(fn.Expressions)-1 {
		t.Fatalf("expected the access expression to be the last one appended")
	}
	access, ok := fn.Expressions[ptr].Kind.(ir.ExprAccess)
	if !ok {
		t.Fatalf("expected ExprAccess as the final expression, got %#v", fn.Expressions[ptr].Kind)
	}
	div, ok := fn.Expressions[access.Index].Kind.(ir.ExprBinary)
	if !ok || div.Op != ir.BinaryDivide {
		t.Fatalf("expected the index to be a division by the word width, got %#v", fn.Expressions[access.Index].Kind)
	}
}

func TestResolveBuiltin(t *testing.T) {
	v, ok := ResolveBuiltin(BuiltinModuleName, "global_invocation_id")
	if !ok || v != ir.BuiltinGlobalInvocationID {
		t.Fatalf("expected GlobalInvocationID, got %v, %v", v, ok)
	}
	if _, ok := ResolveBuiltin("some_other_module", "global_invocation_id"); ok {
		t.Fatal("expected non-spir_global module to be rejected")
	}
	if _, ok := ResolveBuiltin(BuiltinModuleName, "not_a_builtin"); ok {
		t.Fatal("expected unknown builtin name to be rejected")
	}
}

func TestResolveParamDescriptorSetBinding(t *testing.T) {
	module := &ir.Module{}
	types := ir.NewTypeRegistry()
	paramType := types.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})

	resolved, err := ResolveParam(module, types, "x", paramType, config.DescriptorSetBinding{
		Set: 0, Binding: 3, StorageClass: spirv.StorageClassStorageBuffer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Global == nil {
		t.Fatal("expected a global variable handle")
	}
	global := module.GlobalVariables[*resolved.Global]
	if global.Space != ir.SpaceStorage || global.Binding.Binding != 3 {
		t.Errorf("unexpected global: %+v", global)
	}
}

func TestResolveParamBuiltinInput(t *testing.T) {
	module := &ir.Module{}
	types := ir.NewTypeRegistry()
	paramType := types.GetOrCreate("u32vec3", ir.VectorType{Size: ir.Vec3, Scalar: ir.ScalarType{Kind: ir.ScalarUint, Width: 4}})

	resolved, err := ResolveParam(module, types, "gid", paramType, config.BuiltinInputBinding{
		Builtin: spirv.BuiltInGlobalInvocationId,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	global := module.GlobalVariables[*resolved.Global]
	if global.Space != ir.SpaceInput || global.Builtin == nil || *global.Builtin != ir.BuiltinGlobalInvocationID {
		t.Errorf("unexpected global: %+v", global)
	}
}

func TestResolveParamInlineBinding(t *testing.T) {
	module := &ir.Module{}
	types := ir.NewTypeRegistry()
	paramType := types.GetOrCreate("i32", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})

	resolved, err := ResolveParam(module, types, "n", paramType, config.InlineBinding{ConstantValue: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Global != nil {
		t.Fatal("expected no global variable for an inline binding")
	}
	if resolved.Literal == nil || *resolved.Literal != 42 {
		t.Fatalf("expected literal 42, got %+v", resolved.Literal)
	}
}

func TestResolveParamRejectsWrongStorageClass(t *testing.T) {
	module := &ir.Module{}
	types := ir.NewTypeRegistry()
	paramType := types.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})

	_, err := ResolveParam(module, types, "x", paramType, config.DescriptorSetBinding{
		StorageClass: spirv.StorageClassInput,
	})
	if err == nil {
		t.Fatal("expected an error for a non-Uniform/StorageBuffer storage class")
	}
}
