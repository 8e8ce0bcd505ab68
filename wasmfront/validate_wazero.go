package wasmfront

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
)

// ValidateWithWazero runs the given module bytes through wazero's compiler,
// which implements the full Wasm validation algorithm (stack typing, index
// bounds, block-type well-formedness). Decode alone only enforces the
// binary format's own shape, not these semantic rules, so callers that
// accept untrusted input should run this first.
//
// This is deliberately a side validation path rather than Decode's
// foundation: Decode must also accept the synthetic, hand-built modules
// the translate package's tests construct, which a strict runtime
// compiler would reject for lacking memory/export boilerplate.
func ValidateWithWazero(ctx context.Context, wasmBytes []byte) error {
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fmt.Errorf("wazero validation: %w", err)
	}
	return compiled.Close(ctx)
}
