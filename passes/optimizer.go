package passes

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/ir"
)

// SpirvOptAdapter shells out to a real spirv-opt binary on PATH with a
// conservative, legalization-preserving optimization level. Like
// SpirvValAdapter, absence of the binary is a pass failure rather than
// a silent pass-through, so a caller relying on the optimizer doesn't
// mistake an unoptimized module for an optimized one.
func SpirvOptAdapter(_ *ir.Module, words []byte) (Result, error) {
	path, err := exec.LookPath("spirv-opt")
	if err != nil {
		return Result{}, &errs.PassError{Pass: "spirv-opt", Err: fmt.Errorf("spirv-opt not found on PATH: %w", err)}
	}

	cmd := exec.Command(path, "-O", "-o", "-", "/dev/stdin")
	cmd.Stdin = bytes.NewReader(words)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, &errs.PassError{Pass: "spirv-opt", Err: err, Diagnostic: stderr.String()}
	}
	return Result{Bytes: stdout.Bytes(), Diagnostic: stderr.String()}, nil
}
