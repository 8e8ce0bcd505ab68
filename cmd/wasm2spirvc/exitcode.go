package main

import "github.com/gowasm/wasm2spirv/errs"

// exitCodeFor maps the error taxonomy (errs package) to a process exit
// code, per SPEC_FULL.md §6's "non-zero mapped from the error
// taxonomy." Every taxonomy member gets its own code so a calling
// script can distinguish a malformed module from a bad configuration
// without scraping stderr text.
func exitCodeFor(err error) int {
	switch err.(type) {
	case *errs.ParseError:
		return 2
	case *errs.UnsupportedFeature:
		return 3
	case *errs.ConfigError:
		return 4
	case *errs.StackTypeMismatch, *errs.BranchTypeMismatch, *errs.UnbalancedStack:
		return 5
	case *errs.PointerDisciplineError:
		return 6
	case *errs.MemoryGrowRejected:
		return 7
	case *errs.CapabilityMissing:
		return 8
	case *errs.PassError:
		return 9
	default:
		return 1
	}
}
