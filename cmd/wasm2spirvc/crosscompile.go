package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gowasm/wasm2spirv"
	"github.com/gowasm/wasm2spirv/passes"
	"github.com/gowasm/wasm2spirv/spirv"
)

// crosscompileAdapters maps a subcommand name to the passes.Adapter
// that produces it, so glsl/hlsl/msl/wgsl share one command body.
var crosscompileAdapters = map[string]passes.Adapter{
	"glsl": passes.GLSLAdapter,
	"hlsl": passes.HLSLAdapter,
	"msl":  passes.MSLAdapter,
	"wgsl": passes.WGSLAdapter,
}

func newCrosscompileCommand(lang string) *cobra.Command {
	var (
		configPath string
		target     = versionValue(spirv.Version1_0)
	)

	cmd := &cobra.Command{
		Use:   lang + " <module.wasm>",
		Short: fmt.Sprintf("Compile a Wasm module to SPIR-V and cross-compile it to %s", lang),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wasmBytes, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			cfg, err := loadConfiguration(configPath, spirv.Version(target))
			if err != nil {
				return err
			}

			result, err := wasm2spirv.Compile(wasmBytes, cfg)
			if err != nil {
				return err
			}

			adapter := crosscompileAdapters[lang]
			out, err := adapter(result.Module, result.SPIRV)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out.Text)
			if out.Diagnostic != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), out.Diagnostic)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "JSON configuration file (default: universal SPIR-V 1.0, dynamic Shader capability)")
	cmd.Flags().Var(&target, "target", "SPIR-V target version as MAJOR.MINOR, ignored when --config is set")

	return cmd
}
