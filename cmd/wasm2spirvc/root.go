package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wasm2spirvc",
		Short:         "Compile Wasm modules to SPIR-V, and inspect or cross-compile the result",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCompileCommand(),
		newDisassembleCommand(),
		newValidateCommand(),
		newCrosscompileCommand("glsl"),
		newCrosscompileCommand("hlsl"),
		newCrosscompileCommand("msl"),
		newCrosscompileCommand("wgsl"),
	)

	return root
}
