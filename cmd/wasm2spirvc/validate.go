package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gowasm/wasm2spirv/errs"
	"github.com/gowasm/wasm2spirv/passes"
)

func newValidateCommand() *cobra.Command {
	var useSpirvVal bool

	cmd := &cobra.Command{
		Use:   "validate <module.spv>",
		Short: "Validate a SPIR-V binary's structural invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			if useSpirvVal {
				if _, err := passes.SpirvValAdapter(nil, words); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "spirv-val: ok")
				return nil
			}

			report, err := passes.Validate(words)
			if err != nil {
				return err
			}
			if !report.OK() {
				return &errs.PassError{
					Pass:       "validate",
					Diagnostic: fmt.Sprintf("%v", report.Problems),
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: bound=%d, max observed id=%d, capabilities=%d\n",
				report.Bound, report.MaxObservedResultID, len(report.DeclaredCapabilities))
			return nil
		},
	}

	cmd.Flags().BoolVar(&useSpirvVal, "external", false, "shell out to spirv-val on PATH instead of the built-in structural check")

	return cmd
}
