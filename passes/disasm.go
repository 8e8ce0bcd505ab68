package passes

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/ir"
)

// opcodeNames is the disassembler's opcode table, carried over from
// the deleted cmd/spvdis tool.
var opcodeNames = map[uint16]string{
	0: "OpNop", 1: "OpUndef", 2: "OpSourceContinued", 3: "OpSource",
	4: "OpSourceExtension", 5: "OpName", 6: "OpMemberName", 7: "OpString",
	10: "OpExtension", 11: "OpExtInstImport", 12: "OpExtInst",
	14: "OpMemoryModel", 15: "OpEntryPoint", 16: "OpExecutionMode",
	17: "OpCapability", 19: "OpTypeVoid", 20: "OpTypeBool",
	21: "OpTypeInt", 22: "OpTypeFloat", 23: "OpTypeVector",
	24: "OpTypeMatrix", 25: "OpTypeImage", 26: "OpTypeSampler",
	27: "OpTypeSampledImage", 28: "OpTypeArray", 29: "OpTypeRuntimeArray",
	30: "OpTypeStruct", 31: "OpTypeOpaque", 32: "OpTypePointer",
	33: "OpTypeFunction", 41: "OpConstantTrue", 42: "OpConstantFalse",
	43: "OpConstant", 44: "OpConstantComposite", 45: "OpConstantSampler",
	46: "OpConstantNull", 54: "OpFunction", 55: "OpFunctionParameter",
	56: "OpFunctionEnd", 57: "OpFunctionCall", 59: "OpVariable",
	60: "OpImageTexelPointer", 61: "OpLoad", 62: "OpStore",
	63: "OpCopyMemory", 64: "OpCopyMemorySized", 65: "OpAccessChain",
	66: "OpInBoundsAccessChain", 67: "OpPtrAccessChain", 68: "OpArrayLength",
	71: "OpDecorate", 72: "OpMemberDecorate", 79: "OpVectorShuffle",
	80: "OpCompositeConstruct", 81: "OpCompositeExtract", 82: "OpCompositeInsert",
	83: "OpCopyObject", 84: "OpTranspose", 86: "OpSampledImage",
	87: "OpImageSampleImplicitLod", 88: "OpImageSampleExplicitLod",
	95: "OpImageFetch", 96: "OpImageGather", 98: "OpImageRead", 99: "OpImageWrite",
	109: "OpConvertFToU", 110: "OpConvertFToS", 111: "OpConvertSToF",
	112: "OpConvertUToF", 124: "OpBitcast", 126: "OpSNegate", 127: "OpFNegate",
	128: "OpIAdd", 129: "OpFAdd", 130: "OpISub", 131: "OpFSub", 132: "OpIMul",
	133: "OpFMul", 134: "OpUDiv", 135: "OpSDiv", 136: "OpFDiv", 137: "OpUMod",
	138: "OpSRem", 139: "OpSMod", 140: "OpFRem", 141: "OpFMod",
	142: "OpVectorTimesScalar", 148: "OpDot", 174: "OpLogicalEqual",
	175: "OpLogicalNotEqual", 176: "OpLogicalOr", 177: "OpLogicalAnd",
	178: "OpLogicalNot", 179: "OpSelect", 180: "OpIEqual", 181: "OpINotEqual",
	182: "OpUGreaterThan", 183: "OpSGreaterThan", 184: "OpUGreaterThanEqual",
	185: "OpSGreaterThanEqual", 186: "OpULessThan", 187: "OpSLessThan",
	188: "OpULessThanEqual", 189: "OpSLessThanEqual", 190: "OpFOrdEqual",
	191: "OpFUnordEqual", 192: "OpFOrdNotEqual", 193: "OpFUnordNotEqual",
	194: "OpShiftRightLogical", 195: "OpShiftRightArithmetic",
	196: "OpShiftLeftLogical", 197: "OpBitwiseOr", 198: "OpBitwiseXor",
	199: "OpBitwiseAnd", 200: "OpNot", 245: "OpPhi", 246: "OpLoopMerge",
	247: "OpSelectionMerge", 248: "OpLabel", 249: "OpBranch",
	250: "OpBranchConditional", 251: "OpSwitch", 252: "OpKill",
	253: "OpReturn", 254: "OpReturnValue", 255: "OpUnreachable",
}

var capabilityNames = map[uint32]string{
	0: "Matrix", 1: "Shader", 2: "Geometry", 3: "Tessellation",
	4: "Addresses", 5: "Linkage", 6: "Kernel", 9: "Float16", 10: "Float64",
	11: "Int64", 22: "Int16", 4441: "VariablePointersStorageBuffer",
	4442: "VariablePointers",
}

var storageClassNames = map[uint32]string{
	0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output",
	4: "Workgroup", 5: "CrossWorkgroup", 6: "Private", 7: "Function",
	8: "Generic", 9: "PushConstant", 10: "AtomicCounter", 11: "Image",
	12: "StorageBuffer",
}

// resultIDIndex reports the word index, within an instruction's
// operand list (excluding the header word), that holds its result id
// — if opcode is known to produce one. Arithmetic/logic/comparison
// opcodes follow the Type-then-Result convention SPIR-V uses for
// every value-producing instruction in that numeric range.
func resultIDIndex(opcode uint16) (int, bool) {
	switch opcode {
	case 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 32, 33, 11:
		return 0, true
	case 43, 44, 45, 46, 41, 42, 54, 55, 57, 59, 61, 65, 66, 67, 68,
		79, 80, 81, 82, 83, 84, 86, 87, 88, 95, 96, 98, 109, 110, 111, 112, 124:
		return 1, true
	case 248:
		return 0, true
	default:
		if opcode >= 126 && opcode <= 200 {
			return 1, true
		}
		return 0, false
	}
}

func readString(data []byte, offset int, maxWords int) string {
	var sb strings.Builder
	for i := 0; i < maxWords*4 && offset+i < len(data); i++ {
		b := data[offset+i]
		if b == 0 {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func idRef(n uint32) string { return fmt.Sprintf("%%%d", n) }

func lookupName(m map[uint32]string, v uint32) string {
	if s, ok := m[v]; ok {
		return s
	}
	return fmt.Sprintf("%d", v)
}

// Disassemble renders words as SPIR-V assembly text, reusing the
// opcode/capability/storage-class lookup tables salvaged from the
// deleted cmd/spvdis tool.
func Disassemble(words []byte) (string, error) {
	if len(words) < 20 {
		return "", fmt.Errorf("disassemble: %d bytes too short for a module header", len(words))
	}
	magic := binary.LittleEndian.Uint32(words[0:4])
	if magic != spvMagic {
		return "", fmt.Errorf("disassemble: bad magic 0x%08X", magic)
	}

	var out strings.Builder
	version := binary.LittleEndian.Uint32(words[4:8])
	fmt.Fprintf(&out, "; SPIR-V\n")
	fmt.Fprintf(&out, "; Version: %d.%d\n", (version>>16)&0xFF, (version>>8)&0xFF)
	fmt.Fprintf(&out, "; Generator: 0x%08X\n", binary.LittleEndian.Uint32(words[8:12]))
	fmt.Fprintf(&out, "; Bound: %d\n", binary.LittleEndian.Uint32(words[12:16]))
	fmt.Fprintf(&out, "; Schema: %d\n\n", binary.LittleEndian.Uint32(words[16:20]))

	offset := 20
	for offset < len(words) {
		if offset+4 > len(words) {
			return "", &errs.ParseError{Offset: offset, Message: "truncated instruction header"}
		}
		word := binary.LittleEndian.Uint32(words[offset:])
		opcode := uint16(word & 0xFFFF)
		wordCount := int(word >> 16)
		if wordCount == 0 || offset+wordCount*4 > len(words) {
			return "", &errs.ParseError{Offset: offset, Message: fmt.Sprintf("invalid word count %d", wordCount)}
		}

		ops := make([]uint32, wordCount-1)
		for i := range ops {
			ops[i] = binary.LittleEndian.Uint32(words[offset+4+i*4:])
		}

		name := opcodeNames[opcode]
		if name == "" {
			name = fmt.Sprintf("Op%d", opcode)
		}
		writeInstruction(&out, name, opcode, ops, words, offset)

		offset += wordCount * 4
	}

	return out.String(), nil
}

func writeInstruction(out *strings.Builder, name string, opcode uint16, ops []uint32, data []byte, offset int) {
	switch opcode {
	case 17: // OpCapability
		fmt.Fprintf(out, "%s %s\n", name, lookupName(capabilityNames, ops[0]))
	case 5: // OpName
		fmt.Fprintf(out, "%s %s %q\n", name, idRef(ops[0]), readString(data, offset+8, len(ops)-1))
	case 59: // OpVariable
		fmt.Fprintf(out, "%s = %s %s %s\n", idRef(ops[1]), name, idRef(ops[0]), lookupName(storageClassNames, ops[2]))
	case 248: // OpLabel
		fmt.Fprintf(out, "%s = %s\n", idRef(ops[0]), name)
	case 249: // OpBranch
		fmt.Fprintf(out, "%s %s\n", name, idRef(ops[0]))
	case 253: // OpReturn
		fmt.Fprintf(out, "%s\n", name)
	case 254: // OpReturnValue
		fmt.Fprintf(out, "%s %s\n", name, idRef(ops[0]))
	default:
		if idx, ok := resultIDIndex(opcode); ok && idx < len(ops) {
			fmt.Fprintf(out, "%s = %s", idRef(ops[idx]), name)
			for i, op := range ops {
				if i == idx {
					continue
				}
				fmt.Fprintf(out, " %s", idRef(op))
			}
			out.WriteString("\n")
			return
		}
		out.WriteString(name)
		for _, op := range ops {
			fmt.Fprintf(out, " %s", idRef(op))
		}
		out.WriteString("\n")
	}
}

// DisassembleAdapter wraps Disassemble as an Adapter for Cache.Run.
func DisassembleAdapter(_ *ir.Module, words []byte) (Result, error) {
	text, err := Disassemble(words)
	if err != nil {
		return Result{}, &errs.PassError{Pass: "disassemble", Err: err}
	}
	return Result{Text: text}, nil
}
