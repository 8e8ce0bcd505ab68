package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gowasm/wasm2spirv/passes"
)

func newDisassembleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disassemble <module.spv>",
		Short: "Disassemble a SPIR-V binary to text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			text, err := passes.Disassemble(words)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
