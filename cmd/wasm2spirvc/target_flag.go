package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/gowasm/wasm2spirv/spirv"
)

// versionValue is a pflag.Value parsing "--target 1.3" into a
// spirv.Version, for the no-config-file path where compile/glsl/hlsl/
// msl/wgsl still need a way to pick a SPIR-V target version without
// writing a whole JSON document just to change one field.
type versionValue spirv.Version

func (v *versionValue) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (v *versionValue) Set(s string) error {
	var major, minor uint8
	if _, err := fmt.Sscanf(s, "%d.%d", &major, &minor); err != nil {
		return fmt.Errorf("invalid SPIR-V version %q, want MAJOR.MINOR (e.g. 1.3): %w", s, err)
	}
	v.Major, v.Minor = major, minor
	return nil
}

func (v *versionValue) Type() string { return "version" }

var _ pflag.Value = (*versionValue)(nil)
