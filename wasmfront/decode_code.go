package wasmfront

import "fmt"

// DecodeInstructions decodes a function body's raw bytecode (as found in
// FuncBody.Code, including the trailing end opcode) into a flat
// instruction stream. Nesting (block/loop/if) is left for translate's
// control package to reconstruct from the matching Block/Loop/If/Else/End
// opcodes; this layer only knows how to size each instruction's immediate.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := newReader(code)
	var out []Instruction
	for !r.atEnd() {
		ins, err := decodeInstruction(r)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", len(out), err)
		}
		out = append(out, ins)
	}
	return out, nil
}

func decodeInstruction(r *reader) (Instruction, error) {
	op, err := r.byte()
	if err != nil {
		return Instruction{}, err
	}

	switch op {
	case OpUnreachable, OpNop, OpElse, OpEnd, OpReturn, OpDrop, OpSelect:
		return Instruction{Opcode: op}, nil

	case OpBlock, OpLoop, OpIf:
		bt, err := r.i32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: BlockImm{Type: bt}}, nil

	case OpBr, OpBrIf:
		idx, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: BranchImm{LabelIdx: idx}}, nil

	case OpBrTable:
		count, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		labels := make([]uint32, count)
		for i := uint32(0); i < count; i++ {
			labels[i], err = r.u32()
			if err != nil {
				return Instruction{}, err
			}
		}
		def, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: BrTableImm{Labels: labels, Default: def}}, nil

	case OpCall:
		idx, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: CallImm{FuncIdx: idx}}, nil

	case OpCallIndirect:
		typeIdx, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		tableIdx, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: CallIndirectImm{TypeIdx: typeIdx, TableIdx: tableIdx}}, nil

	case OpLocalGet, OpLocalSet, OpLocalTee:
		idx, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: LocalImm{LocalIdx: idx}}, nil

	case OpGlobalGet, OpGlobalSet:
		idx, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: GlobalImm{GlobalIdx: idx}}, nil

	case OpI32Load, OpI64Load, OpF32Load, OpF64Load,
		OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U,
		OpI32Store, OpI64Store, OpF32Store, OpF64Store,
		OpI32Store8, OpI32Store16, OpI64Store8, OpI64Store16, OpI64Store32:
		align, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		offset, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: MemoryImm{Align: align, Offset: uint64(offset)}}, nil

	case OpMemorySize, OpMemoryGrow:
		idx, err := r.u32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: MemoryIdxImm{MemIdx: idx}}, nil

	case OpI32Const:
		v, err := r.i32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: I32Imm{Value: v}}, nil

	case OpI64Const:
		v, err := r.i64()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: I64Imm{Value: v}}, nil

	case OpF32Const:
		v, err := r.f32()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: F32Imm{Value: v}}, nil

	case OpF64Const:
		v, err := r.f64()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: F64Imm{Value: v}}, nil

	default:
		// Every remaining opcode in the MVP comparison/numeric/conversion
		// and sign-extension ranges carries no immediate.
		if isBareOpcode(op) {
			return Instruction{Opcode: op}, nil
		}
		return Instruction{}, fmt.Errorf("unsupported opcode 0x%02x", op)
	}
}

// isBareOpcode reports whether op is a recognized MVP opcode with no
// immediate operand: comparisons, arithmetic, bitwise, conversions, and
// sign-extension instructions all just pop operands off the stack.
func isBareOpcode(op byte) bool {
	switch {
	case op >= OpI32Eqz && op <= OpF64Ge:
		return true
	case op >= OpI32Clz && op <= OpF64Copysign:
		return true
	case op >= OpI32WrapI64 && op <= OpF64ReinterpretI64:
		return true
	case op >= OpI32Extend8S && op <= OpI64Extend32S:
		return true
	default:
		return false
	}
}
