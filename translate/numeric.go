package translate

import (
	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/ir"
	"github.com/gowasm/wasm2spirv/spirv"
	"github.com/gowasm/wasm2spirv/wasmfront"
)

// requireCapabilityFor records the SPIR-V capability a given Wasm
// value type commits the emitted module to: 64-bit integer arithmetic
// needs Int64, 64-bit float arithmetic needs Float64. i32/f32 need
// nothing beyond the baseline Shader capability every module already
// carries.
func (t *functionTranslator) requireCapabilityFor(vt valueKind, feature string) {
	switch vt {
	case wasmfront.ValI64:
		t.requireCapability(spirv.CapabilityInt64, feature)
	case wasmfront.ValF64:
		t.requireCapability(spirv.CapabilityFloat64, feature)
	}
}

// binaryOp describes one numeric/comparison Wasm opcode's 1:1 lowering
// to an ir.ExprBinary, along with the operand/result Wasm types needed
// to pop the right number of typed stack values and push the right
// type back.
type binaryOp struct {
	operand valueKind
	result  valueKind
	ir      ir.BinaryOperator
}

// binaryOps is the full table of Wasm binary numeric/comparison
// opcodes this translator lowers, keyed by opcode. Sign-awareness is
// explicit in the table (DivS → Divide over a Sint operand, DivU →
// Divide over a Uint-reinterpreted operand — see signedOpcodes);
// naga IR's BinaryDivide itself is sign-agnostic, deriving its
// signedness from the declared scalar kind of its operands, so the
// _s/_u split is encoded by which scalar kind the translator builds the
// operand expressions as rather than by a distinct ir opcode.
var binaryOps = map[byte]binaryOp{
	wasmfront.OpI32Add: {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryAdd},
	wasmfront.OpI32Sub: {wasmfront.ValI32, wasmfront.ValI32, ir.BinarySubtract},
	wasmfront.OpI32Mul: {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryMultiply},
	wasmfront.OpI32DivS: {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryDivide},
	wasmfront.OpI32DivU: {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryDivide},
	wasmfront.OpI32RemS: {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryModulo},
	wasmfront.OpI32RemU: {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryModulo},
	wasmfront.OpI32And:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryAnd},
	wasmfront.OpI32Or:   {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryInclusiveOr},
	wasmfront.OpI32Xor:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryExclusiveOr},
	wasmfront.OpI32Shl:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryShiftLeft},
	wasmfront.OpI32ShrS: {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryShiftRight},
	wasmfront.OpI32ShrU: {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryShiftRight},

	wasmfront.OpI32Eq:   {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryEqual},
	wasmfront.OpI32Ne:   {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryNotEqual},
	wasmfront.OpI32LtS:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryLess},
	wasmfront.OpI32LtU:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryLess},
	wasmfront.OpI32GtS:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryGreater},
	wasmfront.OpI32GtU:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryGreater},
	wasmfront.OpI32LeS:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryLessEqual},
	wasmfront.OpI32LeU:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryLessEqual},
	wasmfront.OpI32GeS:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryGreaterEqual},
	wasmfront.OpI32GeU:  {wasmfront.ValI32, wasmfront.ValI32, ir.BinaryGreaterEqual},

	wasmfront.OpI64Add: {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryAdd},
	wasmfront.OpI64Sub: {wasmfront.ValI64, wasmfront.ValI64, ir.BinarySubtract},
	wasmfront.OpI64Mul: {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryMultiply},
	wasmfront.OpI64DivS: {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryDivide},
	wasmfront.OpI64DivU: {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryDivide},
	wasmfront.OpI64RemS: {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryModulo},
	wasmfront.OpI64RemU: {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryModulo},
	wasmfront.OpI64And:  {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryAnd},
	wasmfront.OpI64Or:   {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryInclusiveOr},
	wasmfront.OpI64Xor:  {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryExclusiveOr},
	wasmfront.OpI64Shl:  {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryShiftLeft},
	wasmfront.OpI64ShrS: {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryShiftRight},
	wasmfront.OpI64ShrU: {wasmfront.ValI64, wasmfront.ValI64, ir.BinaryShiftRight},

	wasmfront.OpI64Eq:  {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryEqual},
	wasmfront.OpI64Ne:  {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryNotEqual},
	wasmfront.OpI64LtS: {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryLess},
	wasmfront.OpI64LtU: {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryLess},
	wasmfront.OpI64GtS: {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryGreater},
	wasmfront.OpI64GtU: {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryGreater},
	wasmfront.OpI64LeS: {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryLessEqual},
	wasmfront.OpI64LeU: {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryLessEqual},
	wasmfront.OpI64GeS: {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryGreaterEqual},
	wasmfront.OpI64GeU: {wasmfront.ValI64, wasmfront.ValI32, ir.BinaryGreaterEqual},

	wasmfront.OpF32Add: {wasmfront.ValF32, wasmfront.ValF32, ir.BinaryAdd},
	wasmfront.OpF32Sub: {wasmfront.ValF32, wasmfront.ValF32, ir.BinarySubtract},
	wasmfront.OpF32Mul: {wasmfront.ValF32, wasmfront.ValF32, ir.BinaryMultiply},
	wasmfront.OpF32Div: {wasmfront.ValF32, wasmfront.ValF32, ir.BinaryDivide},
	wasmfront.OpF32Eq:  {wasmfront.ValF32, wasmfront.ValI32, ir.BinaryEqual},
	wasmfront.OpF32Ne:  {wasmfront.ValF32, wasmfront.ValI32, ir.BinaryNotEqual},
	wasmfront.OpF32Lt:  {wasmfront.ValF32, wasmfront.ValI32, ir.BinaryLess},
	wasmfront.OpF32Gt:  {wasmfront.ValF32, wasmfront.ValI32, ir.BinaryGreater},
	wasmfront.OpF32Le:  {wasmfront.ValF32, wasmfront.ValI32, ir.BinaryLessEqual},
	wasmfront.OpF32Ge:  {wasmfront.ValF32, wasmfront.ValI32, ir.BinaryGreaterEqual},

	wasmfront.OpF64Add: {wasmfront.ValF64, wasmfront.ValF64, ir.BinaryAdd},
	wasmfront.OpF64Sub: {wasmfront.ValF64, wasmfront.ValF64, ir.BinarySubtract},
	wasmfront.OpF64Mul: {wasmfront.ValF64, wasmfront.ValF64, ir.BinaryMultiply},
	wasmfront.OpF64Div: {wasmfront.ValF64, wasmfront.ValF64, ir.BinaryDivide},
	wasmfront.OpF64Eq:  {wasmfront.ValF64, wasmfront.ValI32, ir.BinaryEqual},
	wasmfront.OpF64Ne:  {wasmfront.ValF64, wasmfront.ValI32, ir.BinaryNotEqual},
	wasmfront.OpF64Lt:  {wasmfront.ValF64, wasmfront.ValI32, ir.BinaryLess},
	wasmfront.OpF64Gt:  {wasmfront.ValF64, wasmfront.ValI32, ir.BinaryGreater},
	wasmfront.OpF64Le:  {wasmfront.ValF64, wasmfront.ValI32, ir.BinaryLessEqual},
	wasmfront.OpF64Ge:  {wasmfront.ValF64, wasmfront.ValI32, ir.BinaryGreaterEqual},
}

// signedOpcodes is the subset of binaryOps whose Wasm mnemonic commits
// to a signed interpretation of its integer operands (the _s suffix,
// plus the inherently-signed shift-right-arithmetic). Every other
// integer binaryOp entry is unsigned by default, matching Wasm's i32/i64
// being nominally unsigned-or-agnostic outside these opcodes.
var signedOpcodes = map[byte]bool{
	wasmfront.OpI32DivS: true, wasmfront.OpI32RemS: true, wasmfront.OpI32ShrS: true,
	wasmfront.OpI32LtS: true, wasmfront.OpI32GtS: true, wasmfront.OpI32LeS: true, wasmfront.OpI32GeS: true,
	wasmfront.OpI64DivS: true, wasmfront.OpI64RemS: true, wasmfront.OpI64ShrS: true,
	wasmfront.OpI64LtS: true, wasmfront.OpI64GtS: true, wasmfront.OpI64LeS: true, wasmfront.OpI64GeS: true,
}

// emitBinary pops two operands per op's declared type, reinterpreting
// them to Sint or Uint per opcode sign-awareness, emits the ir.ExprBinary,
// and pushes the result.
func (t *functionTranslator) emitBinary(opcode byte, op binaryOp) {
	t.requireCapabilityFor(op.operand, "64-bit arithmetic")
	right := t.stack.popTyped(opcode, op.operand)
	left := t.stack.popTyped(opcode, op.operand)

	leftExpr, rightExpr := left.Expr, right.Expr
	if isIntegerType(op.operand) {
		kind := ir.ScalarUint
		if signedOpcodes[opcode] {
			kind = ir.ScalarSint
		}
		leftExpr = appendExpr(t.fn, ir.ExprAs{Expr: leftExpr, Kind: kind})
		rightExpr = appendExpr(t.fn, ir.ExprAs{Expr: rightExpr, Kind: kind})
	}

	result := appendExpr(t.fn, ir.ExprBinary{Op: op.ir, Left: leftExpr, Right: rightExpr})
	switch op.ir {
	case ir.BinaryEqual, ir.BinaryNotEqual, ir.BinaryLess, ir.BinaryLessEqual, ir.BinaryGreater, ir.BinaryGreaterEqual:
		one := appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(1)})
		zero := appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(0)})
		result = appendExpr(t.fn, ir.ExprSelect{Condition: result, Accept: one, Reject: zero})
	}
	t.stack.pushExpr(result, op.result)
}

func isIntegerType(vt valueKind) bool {
	return vt == wasmfront.ValI32 || vt == wasmfront.ValI64
}

// mathBinaryOp describes a binary opcode lowered through ir.ExprMath
// rather than ir.ExprBinary (min/max/copysign have no BinaryOperator
// counterpart).
type mathBinaryOp struct {
	operand valueKind
	fun     ir.MathFunction
}

var mathBinaryOps = map[byte]mathBinaryOp{
	wasmfront.OpF32Min: {wasmfront.ValF32, ir.MathMin},
	wasmfront.OpF32Max: {wasmfront.ValF32, ir.MathMax},
	wasmfront.OpF64Min: {wasmfront.ValF64, ir.MathMin},
	wasmfront.OpF64Max: {wasmfront.ValF64, ir.MathMax},
}

func (t *functionTranslator) emitMathBinary(opcode byte, op mathBinaryOp) {
	t.requireCapabilityFor(op.operand, "64-bit min/max")
	right := t.stack.popTyped(opcode, op.operand)
	left := t.stack.popTyped(opcode, op.operand)
	rightExpr := right.Expr
	result := appendExpr(t.fn, ir.ExprMath{Fun: op.fun, Arg: left.Expr, Arg1: &rightExpr})
	t.stack.pushExpr(result, op.operand)
}

// emitEqz lowers i32.eqz/i64.eqz: compare-equal to the zero literal of
// the same width, producing an i32 (0 or 1), per Wasm's boolean
// encoding.
func (t *functionTranslator) emitEqz(opcode byte, operand valueKind) {
	t.requireCapabilityFor(operand, "64-bit eqz")
	v := t.stack.popTyped(opcode, operand)
	var zero ir.ExpressionHandle
	if operand == wasmfront.ValI64 {
		zero = appendExpr(t.fn, ir.Literal{Value: ir.LiteralI64(0)})
	} else {
		zero = appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(0)})
	}
	eq := appendExpr(t.fn, ir.ExprBinary{Op: ir.BinaryEqual, Left: v.Expr, Right: zero})
	one := appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(1)})
	zeroI32 := appendExpr(t.fn, ir.Literal{Value: ir.LiteralI32(0)})
	result := appendExpr(t.fn, ir.ExprSelect{Condition: eq, Accept: one, Reject: zeroI32})
	t.stack.pushExpr(result, wasmfront.ValI32)
}

// unaryOp describes a Wasm unary float opcode's 1:1 lowering.
type unaryOp struct {
	operand valueKind
	fn      func(fn *ir.Function, x ir.ExpressionHandle) ir.ExpressionHandle
}

var unaryOps = map[byte]unaryOp{
	wasmfront.OpF32Neg: {wasmfront.ValF32, negate},
	wasmfront.OpF64Neg: {wasmfront.ValF64, negate},
	wasmfront.OpF32Abs: {wasmfront.ValF32, mathFn(ir.MathAbs)},
	wasmfront.OpF64Abs: {wasmfront.ValF64, mathFn(ir.MathAbs)},
	wasmfront.OpF32Sqrt: {wasmfront.ValF32, mathFn(ir.MathSqrt)},
	wasmfront.OpF64Sqrt: {wasmfront.ValF64, mathFn(ir.MathSqrt)},
	wasmfront.OpF32Ceil: {wasmfront.ValF32, mathFn(ir.MathCeil)},
	wasmfront.OpF64Ceil: {wasmfront.ValF64, mathFn(ir.MathCeil)},
	wasmfront.OpF32Floor: {wasmfront.ValF32, mathFn(ir.MathFloor)},
	wasmfront.OpF64Floor: {wasmfront.ValF64, mathFn(ir.MathFloor)},
	wasmfront.OpF32Trunc: {wasmfront.ValF32, mathFn(ir.MathTrunc)},
	wasmfront.OpF64Trunc: {wasmfront.ValF64, mathFn(ir.MathTrunc)},
	wasmfront.OpF32Nearest: {wasmfront.ValF32, mathFn(ir.MathRound)},
	wasmfront.OpF64Nearest: {wasmfront.ValF64, mathFn(ir.MathRound)},

	wasmfront.OpI32Clz:    {wasmfront.ValI32, mathFn(ir.MathCountLeadingZeros)},
	wasmfront.OpI32Ctz:    {wasmfront.ValI32, mathFn(ir.MathCountTrailingZeros)},
	wasmfront.OpI32Popcnt: {wasmfront.ValI32, mathFn(ir.MathCountOneBits)},
	wasmfront.OpI64Clz:    {wasmfront.ValI64, mathFn(ir.MathCountLeadingZeros)},
	wasmfront.OpI64Ctz:    {wasmfront.ValI64, mathFn(ir.MathCountTrailingZeros)},
	wasmfront.OpI64Popcnt: {wasmfront.ValI64, mathFn(ir.MathCountOneBits)},

	wasmfront.OpI32Extend8S:  {wasmfront.ValI32, extendBits32(24)},
	wasmfront.OpI32Extend16S: {wasmfront.ValI32, extendBits32(16)},
	wasmfront.OpI64Extend8S:  {wasmfront.ValI64, extendBits64(56)},
	wasmfront.OpI64Extend16S: {wasmfront.ValI64, extendBits64(48)},
	wasmfront.OpI64Extend32S: {wasmfront.ValI64, extendBits64(32)},
}

// extendBits32/64 implement the sign-extension opcodes (i32.extend8_s
// etc.) as a shift-left-then-arithmetic-shift-right pair, matching the
// classic bit trick: shifting the narrow field up against the MSB and
// back down duplicates its sign bit across the discarded high bits.
func extendBits32(fillBits uint8) func(*ir.Function, ir.ExpressionHandle) ir.ExpressionHandle {
	return func(fn *ir.Function, x ir.ExpressionHandle) ir.ExpressionHandle {
		amount := appendExpr(fn, ir.Literal{Value: ir.LiteralI32(int32(fillBits))})
		asSint := appendExpr(fn, ir.ExprAs{Expr: x, Kind: ir.ScalarSint})
		shl := appendExpr(fn, ir.ExprBinary{Op: ir.BinaryShiftLeft, Left: asSint, Right: amount})
		return appendExpr(fn, ir.ExprBinary{Op: ir.BinaryShiftRight, Left: shl, Right: amount})
	}
}

func extendBits64(fillBits uint8) func(*ir.Function, ir.ExpressionHandle) ir.ExpressionHandle {
	return func(fn *ir.Function, x ir.ExpressionHandle) ir.ExpressionHandle {
		amount := appendExpr(fn, ir.Literal{Value: ir.LiteralI64(int64(fillBits))})
		asSint := appendExpr(fn, ir.ExprAs{Expr: x, Kind: ir.ScalarSint})
		shl := appendExpr(fn, ir.ExprBinary{Op: ir.BinaryShiftLeft, Left: asSint, Right: amount})
		return appendExpr(fn, ir.ExprBinary{Op: ir.BinaryShiftRight, Left: shl, Right: amount})
	}
}

func negate(fn *ir.Function, x ir.ExpressionHandle) ir.ExpressionHandle {
	return appendExpr(fn, ir.ExprUnary{Op: ir.UnaryNegate, Expr: x})
}

func mathFn(f ir.MathFunction) func(*ir.Function, ir.ExpressionHandle) ir.ExpressionHandle {
	return func(fn *ir.Function, x ir.ExpressionHandle) ir.ExpressionHandle {
		return appendExpr(fn, ir.ExprMath{Fun: f, Arg: x})
	}
}

func (t *functionTranslator) emitUnary(opcode byte, op unaryOp) {
	t.requireCapabilityFor(op.operand, "64-bit unary op")
	v := t.stack.popTyped(opcode, op.operand)
	result := op.fn(t.fn, v.Expr)
	t.stack.pushExpr(result, op.operand)
}

// emitConversion maps the MVP conversion opcodes onto ir.ExprAs.
func (t *functionTranslator) emitConversion(opcode byte) error {
	conv, ok := conversions[opcode]
	if !ok {
		return &errs.UnsupportedFeature{Feature: "conversion opcode not recognized"}
	}
	t.requireCapabilityFor(conv.from, "64-bit conversion")
	t.requireCapabilityFor(conv.to, "64-bit conversion")
	v := t.stack.popTyped(opcode, conv.from)
	width := conv.width
	var widthPtr *uint8
	if width != 0 {
		widthPtr = &width
	}
	result := appendExpr(t.fn, ir.ExprAs{Expr: v.Expr, Kind: conv.kind, Convert: widthPtr})
	t.stack.pushExpr(result, conv.to)
	return nil
}

type conversion struct {
	from, to valueKind
	kind     ir.ScalarKind
	width    uint8 // 0 = bitcast (no width change), else the target byte width
}

var conversions = map[byte]conversion{
	wasmfront.OpI32WrapI64:        {wasmfront.ValI64, wasmfront.ValI32, ir.ScalarSint, 4},
	wasmfront.OpI64ExtendI32S:     {wasmfront.ValI32, wasmfront.ValI64, ir.ScalarSint, 8},
	wasmfront.OpI64ExtendI32U:     {wasmfront.ValI32, wasmfront.ValI64, ir.ScalarUint, 8},
	wasmfront.OpF32ConvertI32S:    {wasmfront.ValI32, wasmfront.ValF32, ir.ScalarFloat, 4},
	wasmfront.OpF32ConvertI32U:    {wasmfront.ValI32, wasmfront.ValF32, ir.ScalarFloat, 4},
	wasmfront.OpF64ConvertI32S:    {wasmfront.ValI32, wasmfront.ValF64, ir.ScalarFloat, 8},
	wasmfront.OpF64ConvertI32U:    {wasmfront.ValI32, wasmfront.ValF64, ir.ScalarFloat, 8},
	wasmfront.OpF32ConvertI64S:    {wasmfront.ValI64, wasmfront.ValF32, ir.ScalarFloat, 4},
	wasmfront.OpF32ConvertI64U:    {wasmfront.ValI64, wasmfront.ValF32, ir.ScalarFloat, 4},
	wasmfront.OpF64ConvertI64S:    {wasmfront.ValI64, wasmfront.ValF64, ir.ScalarFloat, 8},
	wasmfront.OpF64ConvertI64U:    {wasmfront.ValI64, wasmfront.ValF64, ir.ScalarFloat, 8},
	wasmfront.OpF32DemoteF64:      {wasmfront.ValF64, wasmfront.ValF32, ir.ScalarFloat, 4},
	wasmfront.OpF64PromoteF32:     {wasmfront.ValF32, wasmfront.ValF64, ir.ScalarFloat, 8},
	wasmfront.OpI32TruncF32S:      {wasmfront.ValF32, wasmfront.ValI32, ir.ScalarSint, 4},
	wasmfront.OpI32TruncF32U:      {wasmfront.ValF32, wasmfront.ValI32, ir.ScalarUint, 4},
	wasmfront.OpI32TruncF64S:      {wasmfront.ValF64, wasmfront.ValI32, ir.ScalarSint, 4},
	wasmfront.OpI32TruncF64U:      {wasmfront.ValF64, wasmfront.ValI32, ir.ScalarUint, 4},
	wasmfront.OpI64TruncF32S:      {wasmfront.ValF32, wasmfront.ValI64, ir.ScalarSint, 8},
	wasmfront.OpI64TruncF32U:      {wasmfront.ValF32, wasmfront.ValI64, ir.ScalarUint, 8},
	wasmfront.OpI64TruncF64S:      {wasmfront.ValF64, wasmfront.ValI64, ir.ScalarSint, 8},
	wasmfront.OpI64TruncF64U:      {wasmfront.ValF64, wasmfront.ValI64, ir.ScalarUint, 8},
	wasmfront.OpI32ReinterpretF32: {wasmfront.ValF32, wasmfront.ValI32, ir.ScalarSint, 0},
	wasmfront.OpF32ReinterpretI32: {wasmfront.ValI32, wasmfront.ValF32, ir.ScalarFloat, 0},
	wasmfront.OpI64ReinterpretF64: {wasmfront.ValF64, wasmfront.ValI64, ir.ScalarSint, 0},
	wasmfront.OpF64ReinterpretI64: {wasmfront.ValI64, wasmfront.ValF64, ir.ScalarFloat, 0},
}
