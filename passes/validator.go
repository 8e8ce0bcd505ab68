package passes

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os/exec"

	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/ir"
)

const spvMagic = 0x07230203

// Raw opcode values the validator needs to recognize structurally.
// Kept local to this package (rather than imported from spirv) since
// the validator works over the already-assembled word stream, not the
// spirv package's in-process builder types.
const (
	opCapabilityWord        = 17
	opFunctionWord          = 54
	opFunctionEndWord       = 56
	opSelectionMergeWord    = 247
	opLoopMergeWord         = 246
	opBranchConditionalWord = 250
	opBranchWord            = 249
	opReturnWord            = 253
	opReturnValueWord       = 254
)

// ValidationReport is the structural validator's findings against
// spec.md §8's testable properties 3 (structured CFG), 4 (id
// monotonicity), and 5 (capability closure).
type ValidationReport struct {
	Bound                uint32
	MaxObservedResultID  uint32
	DeclaredCapabilities map[uint32]bool
	Problems             []string
}

// OK reports whether the validator found no problems.
func (r ValidationReport) OK() bool { return len(r.Problems) == 0 }

// Validate walks words structurally, without shelling out to a real
// spirv-val, checking the merge-before-branch-conditional invariant
// (property 3) and id monotonicity (property 4); ValidateCapabilityClosure
// checks property 5 against a separately-known requirement set, since
// that requires knowing what each opcode in the stream actually needs,
// which this package's word-level walk alone can't derive.
func Validate(words []byte) (ValidationReport, error) {
	var report ValidationReport
	if len(words) < 20 {
		return report, fmt.Errorf("validate: %d bytes too short for a SPIR-V header", len(words))
	}
	if magic := binary.LittleEndian.Uint32(words[0:4]); magic != spvMagic {
		return report, fmt.Errorf("validate: bad magic 0x%08X", magic)
	}
	report.Bound = binary.LittleEndian.Uint32(words[12:16])
	report.DeclaredCapabilities = map[uint32]bool{}

	pendingMerge := false
	offset := 20
	for offset < len(words) {
		if offset+4 > len(words) {
			report.Problems = append(report.Problems, fmt.Sprintf("truncated instruction header at offset %d", offset))
			break
		}
		word := binary.LittleEndian.Uint32(words[offset:])
		opcode := word & 0xFFFF
		wordCount := int(word >> 16)
		if wordCount == 0 || offset+wordCount*4 > len(words) {
			report.Problems = append(report.Problems, fmt.Sprintf("invalid word count %d at offset %d", wordCount, offset))
			break
		}

		ops := words[offset+4 : offset+wordCount*4]

		switch opcode {
		case opCapabilityWord:
			if len(ops) >= 4 {
				report.DeclaredCapabilities[binary.LittleEndian.Uint32(ops[0:4])] = true
			}
		case opSelectionMergeWord, opLoopMergeWord:
			pendingMerge = true
		case opBranchConditionalWord:
			if !pendingMerge {
				report.Problems = append(report.Problems,
					fmt.Sprintf("OpBranchConditional at offset %d not preceded by OpSelectionMerge/OpLoopMerge", offset))
			}
			pendingMerge = false
		case opBranchWord, opReturnWord, opReturnValueWord, opFunctionWord, opFunctionEndWord:
			pendingMerge = false
		}

		if idx, ok := resultIDIndex(uint16(opcode)); ok && idx*4+4 <= len(ops) {
			id := binary.LittleEndian.Uint32(ops[idx*4:])
			if id > report.MaxObservedResultID {
				report.MaxObservedResultID = id
			}
		}

		offset += wordCount * 4
	}

	if report.Bound != 0 && report.MaxObservedResultID+1 > report.Bound {
		report.Problems = append(report.Problems,
			fmt.Sprintf("declared bound %d is smaller than the largest observed result id + 1 (%d)", report.Bound, report.MaxObservedResultID+1))
	}

	return report, nil
}

// ValidateCapabilityClosure checks spec.md §8's property 5: every
// capability a module's emitted opcodes actually need must be present
// in its declared OpCapability list. required is a set the caller
// supplies (spirv.Backend does not record one during Compile); this
// package only checks the closure, since deriving "what
// capability does opcode X need" from raw words alone would duplicate
// the backend's own opcode-to-capability table.
func ValidateCapabilityClosure(declared map[uint32]bool, required []uint32) []string {
	var problems []string
	for _, cap := range required {
		if !declared[cap] {
			problems = append(problems, fmt.Sprintf("capability %d required but not declared", cap))
		}
	}
	return problems
}

// ValidateAdapter wraps Validate as an Adapter; it fails the pass if
// the structural checks turn up any problem.
func ValidateAdapter(_ *ir.Module, words []byte) (Result, error) {
	report, err := Validate(words)
	if err != nil {
		return Result{}, &errs.PassError{Pass: "validate", Err: err}
	}
	if !report.OK() {
		return Result{}, &errs.PassError{
			Pass:       "validate",
			Diagnostic: fmt.Sprintf("%d structural problem(s): %v", len(report.Problems), report.Problems),
		}
	}
	return Result{Bytes: words}, nil
}

// SpirvValAdapter shells out to a real spirv-val binary on PATH, per
// spec.md §8 property 2 ("the external SPIR-V validator"). It's an
// Adapter like any other, so the same Cache covers it; if spirv-val
// isn't installed, the pass fails with that explanation rather than
// silently skipping validation.
func SpirvValAdapter(_ *ir.Module, words []byte) (Result, error) {
	path, err := exec.LookPath("spirv-val")
	if err != nil {
		return Result{}, &errs.PassError{Pass: "spirv-val", Err: fmt.Errorf("spirv-val not found on PATH: %w", err)}
	}

	cmd := exec.Command(path, "--target-env", "vulkan1.1", "/dev/stdin")
	cmd.Stdin = bytes.NewReader(words)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, &errs.PassError{Pass: "spirv-val", Err: err, Diagnostic: stderr.String()}
	}
	return Result{Bytes: words, Diagnostic: stderr.String()}, nil
}
