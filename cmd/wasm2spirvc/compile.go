package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gowasm/wasm2spirv"
	"github.com/gowasm/wasm2spirv/config"
	"github.com/gowasm/wasm2spirv/spirv"
)

func newCompileCommand() *cobra.Command {
	var (
		configPath string
		outputPath string
		target     = versionValue(spirv.Version1_0)
	)

	cmd := &cobra.Command{
		Use:   "compile <module.wasm>",
		Short: "Compile a Wasm module to SPIR-V",
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

			if outputPath == "" || outputPath == "-" {
				_, err = os.Stdout.Write(result.SPIRV)
				return err
			}
			if err := os.WriteFile(outputPath, result.SPIRV, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outputPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compiled %s to %s (%d bytes)\n", args[0], outputPath, len(result.SPIRV))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "JSON configuration file (default: universal SPIR-V 1.0, dynamic Shader capability)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Var(&target, "target", "SPIR-V target version as MAJOR.MINOR, ignored when --config is set")

	return cmd
}

// loadConfiguration loads configPath as JSON, or falls back to a
// minimal default Configuration (matching config.NewBuilder's own
// defaults, aside from target) when no config file is given.
func loadConfiguration(configPath string, target spirv.Version) (*config.Configuration, error) {
	if configPath == "" {
		return config.NewBuilder(config.Target{
			Platform: config.PlatformUniversal,
			Version:  target,
		}).Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", configPath, err)
	}
	return config.LoadJSON(data)
}
