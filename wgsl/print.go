package wgsl

import (
	"fmt"
	"strings"

	"github.com/gowasm/wasm2spirv/ir"
)

// Print renders module as WGSL source text. The teacher's wgsl package
// only ever had to go WGSL text -> ir.Module (Lexer/Parser/Lower); this
// is the new direction, emitting text from the IR a Wasm module
// translates into. It covers the statement and expression shapes a
// Wasm-sourced function actually produces (arithmetic, loads/stores,
// structured if/loop, calls); anything else is rendered as a
// `// unsupported: ...` comment rather than failing the pass, since
// cross-compilation is optional downstream tooling, not the core
// translator.
func Print(module *ir.Module) (string, error) {
	p := &printer{module: module}
	p.printTypes()
	p.printGlobals()
	for i := range module.Functions {
		p.printFunction(&module.Functions[i])
	}
	for _, ep := range module.EntryPoints {
		fmt.Fprintf(&p.out, "// entry point %q (%s)\n", ep.Name, stageName(ep.Stage))
	}
	return p.out.String(), nil
}

type printer struct {
	out     strings.Builder
	module  *ir.Module
	fn      *ir.Function
	fnIndex int
}

func stageName(s ir.ShaderStage) string {
	switch s {
	case ir.StageVertex:
		return "vertex"
	case ir.StageFragment:
		return "fragment"
	case ir.StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

func (p *printer) printTypes() {
	for h := range p.module.Types {
		typ := &p.module.Types[h]
		st, ok := typ.Inner.(ir.StructType)
		if !ok {
			continue
		}
		name := typ.Name
		if name == "" {
			name = fmt.Sprintf("Type%d", h)
		}
		fmt.Fprintf(&p.out, "struct %s {\n", name)
		for _, m := range st.Members {
			fmt.Fprintf(&p.out, "    %s: %s,\n", m.Name, p.typeName(m.Type))
		}
		p.out.WriteString("}\n\n")
	}
}

func (p *printer) printGlobals() {
	for h := range p.module.GlobalVariables {
		g := &p.module.GlobalVariables[h]
		attr := ""
		if g.Binding != nil {
			attr = fmt.Sprintf("@group(%d) @binding(%d) ", g.Binding.Group, g.Binding.Binding)
		}
		fmt.Fprintf(&p.out, "%svar<%s> %s: %s;\n", attr, addressSpaceName(g.Space), g.Name, p.typeName(g.Type))
	}
	if len(p.module.GlobalVariables) > 0 {
		p.out.WriteString("\n")
	}
}

func addressSpaceName(s ir.AddressSpace) string {
	switch s {
	case ir.SpaceFunction:
		return "function"
	case ir.SpacePrivate:
		return "private"
	case ir.SpaceWorkGroup:
		return "workgroup"
	case ir.SpaceUniform:
		return "uniform"
	case ir.SpaceStorage:
		return "storage"
	case ir.SpacePushConstant:
		return "push_constant"
	default:
		return "handle"
	}
}

func (p *printer) typeName(h ir.TypeHandle) string {
	if int(h) >= len(p.module.Types) {
		return "unknown"
	}
	typ := &p.module.Types[h]
	switch t := typ.Inner.(type) {
	case ir.ScalarType:
		return scalarName(t)
	case ir.VectorType:
		return fmt.Sprintf("vec%d<%s>", t.Size, scalarName(t.Scalar))
	case ir.MatrixType:
		return fmt.Sprintf("mat%dx%d<%s>", t.Columns, t.Rows, scalarName(t.Scalar))
	case ir.ArrayType:
		if t.Size.Constant != nil {
			return fmt.Sprintf("array<%s, %d>", p.typeName(t.Base), *t.Size.Constant)
		}
		return fmt.Sprintf("array<%s>", p.typeName(t.Base))
	case ir.PointerType:
		return fmt.Sprintf("ptr<%s, %s>", addressSpaceName(t.Space), p.typeName(t.Base))
	case ir.StructType:
		if typ.Name != "" {
			return typ.Name
		}
		return fmt.Sprintf("Type%d", h)
	default:
		return fmt.Sprintf("/* unsupported type %T */", t)
	}
}

func scalarName(s ir.ScalarType) string {
	switch s.Kind {
	case ir.ScalarSint:
		if s.Width == 8 {
			return "i64"
		}
		return "i32"
	case ir.ScalarUint:
		if s.Width == 8 {
			return "u64"
		}
		return "u32"
	case ir.ScalarFloat:
		if s.Width == 8 {
			return "f64"
		}
		return "f32"
	case ir.ScalarBool:
		return "bool"
	default:
		return "unknown"
	}
}

func (p *printer) printFunction(fn *ir.Function) {
	p.fn = fn
	args := make([]string, len(fn.Arguments))
	for i, a := range fn.Arguments {
		args[i] = fmt.Sprintf("%s: %s", a.Name, p.typeName(a.Type))
	}
	ret := ""
	if fn.Result != nil {
		ret = " -> " + p.typeName(fn.Result.Type)
	}
	fmt.Fprintf(&p.out, "fn %s(%s)%s {\n", fn.Name, strings.Join(args, ", "), ret)
	for _, lv := range fn.LocalVars {
		if lv.Init != nil {
			fmt.Fprintf(&p.out, "    var %s: %s = %s;\n", lv.Name, p.typeName(lv.Type), p.expr(*lv.Init))
		} else {
			fmt.Fprintf(&p.out, "    var %s: %s;\n", lv.Name, p.typeName(lv.Type))
		}
	}
	p.printBlock(fn.Body, 1)
	p.out.WriteString("}\n\n")
}

func (p *printer) printBlock(block ir.Block, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, stmt := range block {
		p.printStatement(stmt, depth, indent)
	}
}

func (p *printer) printStatement(stmt ir.Statement, depth int, indent string) {
	switch k := stmt.Kind.(type) {
	case ir.StmtEmit:
		// Expressions in the range are evaluated for their side
		// effects (e.g. a call) or consumed by a later statement;
		// nothing to print on their own unless nothing references
		// them, which the printer can't tell without a use-count pass,
		// so emit nothing here - consuming statements print the
		// expression inline.
	case ir.StmtBlock:
		fmt.Fprintf(&p.out, "%s{\n", indent)
		p.printBlock(k.Block, depth+1)
		fmt.Fprintf(&p.out, "%s}\n", indent)
	case ir.StmtIf:
		fmt.Fprintf(&p.out, "%sif %s {\n", indent, p.expr(k.Condition))
		p.printBlock(k.Accept, depth+1)
		if len(k.Reject) > 0 {
			fmt.Fprintf(&p.out, "%s} else {\n", indent)
			p.printBlock(k.Reject, depth+1)
		}
		fmt.Fprintf(&p.out, "%s}\n", indent)
	case ir.StmtLoop:
		fmt.Fprintf(&p.out, "%sloop {\n", indent)
		p.printBlock(k.Body, depth+1)
		if len(k.Continuing) > 0 {
			fmt.Fprintf(&p.out, "%s    continuing {\n", indent)
			p.printBlock(k.Continuing, depth+2)
			fmt.Fprintf(&p.out, "%s    }\n", indent)
		}
		fmt.Fprintf(&p.out, "%s}\n", indent)
	case ir.StmtBreak:
		fmt.Fprintf(&p.out, "%sbreak;\n", indent)
	case ir.StmtContinue:
		fmt.Fprintf(&p.out, "%scontinue;\n", indent)
	case ir.StmtReturn:
		if k.Value != nil {
			fmt.Fprintf(&p.out, "%sreturn %s;\n", indent, p.expr(*k.Value))
		} else {
			fmt.Fprintf(&p.out, "%sreturn;\n", indent)
		}
	case ir.StmtKill:
		fmt.Fprintf(&p.out, "%sdiscard;\n", indent)
	case ir.StmtStore:
		fmt.Fprintf(&p.out, "%s%s = %s;\n", indent, p.expr(k.Pointer), p.expr(k.Value))
	case ir.StmtCall:
		fmt.Fprintf(&p.out, "%s%s(%s);\n", indent, p.module.Functions[k.Function].Name, p.exprList(k.Arguments))
	default:
		fmt.Fprintf(&p.out, "%s// unsupported statement: %T\n", indent, k)
	}
}

func (p *printer) exprList(handles []ir.ExpressionHandle) string {
	parts := make([]string, len(handles))
	for i, h := range handles {
		parts[i] = p.expr(h)
	}
	return strings.Join(parts, ", ")
}

//nolint:gocyclo,cyclop // expression dispatch mirrors the IR's tagged variant directly
func (p *printer) expr(h ir.ExpressionHandle) string {
	if int(h) >= len(p.fn.Expressions) {
		return "/* invalid expression handle */"
	}
	switch k := p.fn.Expressions[h].Kind.(type) {
	case ir.Literal:
		return literalText(k.Value)
	case ir.ExprFunctionArgument:
		return p.fn.Arguments[k.Index].Name
	case ir.ExprGlobalVariable:
		return p.module.GlobalVariables[k.Variable].Name
	case ir.ExprLocalVariable:
		return p.fn.LocalVars[k.Variable].Name
	case ir.ExprLoad:
		return p.expr(k.Pointer)
	case ir.ExprAccessIndex:
		return fmt.Sprintf("%s[%d]", p.expr(k.Base), k.Index)
	case ir.ExprAccess:
		return fmt.Sprintf("%s[%s]", p.expr(k.Base), p.expr(k.Index))
	case ir.ExprUnary:
		return fmt.Sprintf("%s%s", unaryOpText(k.Op), p.expr(k.Expr))
	case ir.ExprBinary:
		return fmt.Sprintf("(%s %s %s)", p.expr(k.Left), binaryOpText(k.Op), p.expr(k.Right))
	case ir.ExprSelect:
		return fmt.Sprintf("select(%s, %s, %s)", p.expr(k.Reject), p.expr(k.Accept), p.expr(k.Condition))
	case ir.ExprMath:
		return p.mathExpr(k)
	case ir.ExprAs:
		return fmt.Sprintf("%s(%s)", scalarName(ir.ScalarType{Kind: k.Kind}), p.expr(k.Expr))
	default:
		return fmt.Sprintf("/* unsupported expression %T */", k)
	}
}

func (p *printer) mathExpr(m ir.ExprMath) string {
	args := []string{p.expr(m.Arg)}
	for _, a := range []*ir.ExpressionHandle{m.Arg1, m.Arg2, m.Arg3} {
		if a != nil {
			args = append(args, p.expr(*a))
		}
	}
	return fmt.Sprintf("%s(%s)", mathFuncName(m.Fun), strings.Join(args, ", "))
}

func mathFuncName(f ir.MathFunction) string {
	switch f {
	case ir.MathAbs:
		return "abs"
	case ir.MathMin:
		return "min"
	case ir.MathMax:
		return "max"
	case ir.MathClamp:
		return "clamp"
	case ir.MathSqrt:
		return "sqrt"
	case ir.MathPow:
		return "pow"
	case ir.MathFma:
		return "fma"
	case ir.MathFloor:
		return "floor"
	case ir.MathCeil:
		return "ceil"
	case ir.MathDot:
		return "dot"
	default:
		return fmt.Sprintf("math_%d", f)
	}
}

func literalText(v ir.LiteralValue) string {
	switch lit := v.(type) {
	case ir.LiteralF32:
		return fmt.Sprintf("%gf", float32(lit))
	case ir.LiteralF64:
		return fmt.Sprintf("%g", float64(lit))
	case ir.LiteralI32:
		return fmt.Sprintf("%d", int32(lit))
	case ir.LiteralU32:
		return fmt.Sprintf("%du", uint32(lit))
	case ir.LiteralI64:
		return fmt.Sprintf("%d", int64(lit))
	case ir.LiteralU64:
		return fmt.Sprintf("%dlu", uint64(lit))
	case ir.LiteralBool:
		if bool(lit) {
			return "true"
		}
		return "false"
	default:
		return "/* unsupported literal */"
	}
}

func unaryOpText(op ir.UnaryOperator) string {
	switch op {
	case ir.UnaryNegate:
		return "-"
	case ir.UnaryLogicalNot:
		return "!"
	case ir.UnaryBitwiseNot:
		return "~"
	default:
		return "?"
	}
}

func binaryOpText(op ir.BinaryOperator) string {
	switch op {
	case ir.BinaryAdd:
		return "+"
	case ir.BinarySubtract:
		return "-"
	case ir.BinaryMultiply:
		return "*"
	case ir.BinaryDivide:
		return "/"
	case ir.BinaryModulo:
		return "%"
	case ir.BinaryEqual:
		return "=="
	case ir.BinaryNotEqual:
		return "!="
	case ir.BinaryLess:
		return "<"
	case ir.BinaryLessEqual:
		return "<="
	case ir.BinaryGreater:
		return ">"
	case ir.BinaryGreaterEqual:
		return ">="
	case ir.BinaryAnd:
		return "&"
	case ir.BinaryExclusiveOr:
		return "^"
	case ir.BinaryInclusiveOr:
		return "|"
	case ir.BinaryLogicalAnd:
		return "&&"
	case ir.BinaryLogicalOr:
		return "||"
	case ir.BinaryShiftLeft:
		return "<<"
	case ir.BinaryShiftRight:
		return ">>"
	default:
		return "?"
	}
}
