// Package tylflag wraps the standard flag package exactly as
// cmd_local/asm/internal/flags does for the assembler: a Parse entry
// point and package-level flag variables, called once from cmd/tylc's
// main (spec.md §4.12).
package tylflag

import (
	"flag"
	"fmt"
	"os"
)

var (
	// Output is the -o output file path.
	Output = flag.String("o", "a.exe", "output file")

	// ObjectMode selects COFF object output instead of a linked PE image
	// (spec.md §6.2's two output modes).
	ObjectMode = flag.Bool("obj", false, "emit a COFF object file instead of a PE executable")

	// DumpAsm requests a disassembly listing of the generated code to
	// stderr after codegen, before the peephole pass (spec.md §6.2).
	DumpAsm = flag.Bool("dumpasm", false, "dump a disassembly of the generated code")

	// OptLevel selects the peephole optimizer's aggressiveness: 0 disables
	// it, 1 runs the default pattern set, 2 also enables aggressive mode.
	OptLevel = flag.Int("opt", 1, "optimization level (0, 1, or 2)")

	// AggressivePeephole force-enables aggressive peephole patterns
	// regardless of -opt (mirrors the original's setAggressiveMode knob).
	AggressivePeephole = flag.Bool("aggressive-peephole", false, "enable aggressive peephole patterns")

	// Profile writes a pprof profile of per-phase compile time to the
	// named file when non-empty (SPEC_FULL.md §4.11/§7 ambient stack).
	Profile = flag.String("profile", "", "write a pprof profile of compile time to this file")
)

// Parse parses os.Args[1:] and validates the flag combination, exiting
// with status 2 (matching the teacher's `os.Exit(2)` convention for usage
// errors) on an invalid -opt value.
func Parse() {
	flag.Parse()
	if *OptLevel < 0 || *OptLevel > 2 {
		fmt.Fprintf(os.Stderr, "tylc: invalid -opt=%d: must be 0, 1, or 2\n", *OptLevel)
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "tylc: no input files")
		os.Exit(2)
	}
}

// InputFiles returns the non-flag arguments (source file paths).
func InputFiles() []string { return flag.Args() }
