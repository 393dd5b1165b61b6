// Package pipeline wires the compiler's passes into the single straight-line
// sequence codegen_compile.cpp's compile()/compileToObject() entry points
// run: check, then codegen (which consults CTFE internally on every comptime
// call site), then an optional disassembly dump, then the peephole optimizer
// gated by the requested optimization level, then image serialization.
//
// There is no lexing/parsing stage here: a Program (*ast.File) is the
// pipeline's sole input, matching spec.md §6.1's explicit carve-out of
// source-file I/O from this compiler's scope.
package pipeline

import (
	"fmt"

	"tylc/internal/ast"
	"tylc/internal/check"
	"tylc/internal/codegen"
	"tylc/internal/diag"
	"tylc/internal/image"
	"tylc/internal/peephole"
	"tylc/internal/x64"
)

// Options configures one Run. It mirrors the flag surface internal/tylflag
// exposes to cmd/tylc, kept as a separate struct so the pipeline itself
// never depends on the flag package (only cmd/tylc's main does).
type Options struct {
	// ObjectMode selects COFF object output via image.Builder.WriteObject
	// instead of a linked PE executable.
	ObjectMode bool

	// OptLevel: 0 disables the peephole pass entirely, 1 runs its default
	// pattern set, 2 also enables aggressive mode.
	OptLevel int

	// AggressivePeephole force-enables aggressive patterns regardless of
	// OptLevel (mirrors the original's setAggressiveMode knob being
	// settable independently of the optimization level).
	AggressivePeephole bool

	// DumpAsm, when non-nil, receives a disassembly listing of the
	// generated code before the peephole pass runs (spec.md §6.2).
	DumpAsm func(string)
}

// Result is everything Run produces: the serialized image bytes ready to
// write to disk, the diagnostics accumulated during checking, and the
// peephole pass's own bookkeeping (useful for -dumpasm and tests).
type Result struct {
	Bytes              []byte
	Diags              diag.List
	PeepholeRemoved    int
	PeepholeOptimCount int
}

// Run checks f, and if it passes without errors, lowers it to machine code
// and serializes a PE image or COFF object per opts. Returns the checker's
// diagnostics even on failure so a caller can print them; Bytes is nil
// whenever checking fails, matching spec.md §7's "codegen skipped if any
// error present".
func Run(f *ast.File, opts Options) (*Result, error) {
	c := check.New()
	ok := c.Check(f)
	res := &Result{Diags: c.Diags}
	if !ok {
		return res, nil
	}

	gen := codegen.New(c.Registry, c.Symbols, &c.Diags)
	gen.SetDrops(c.BlockDrops)
	img, err := gen.Generate(f)
	if err != nil {
		return res, fmt.Errorf("pipeline: codegen: %w", err)
	}

	if opts.DumpAsm != nil {
		lines, derr := x64.Disassemble(img.Code, uint64(image.CodeRVA))
		if derr != nil {
			return res, fmt.Errorf("pipeline: disassemble: %w", derr)
		}
		opts.DumpAsm(x64.Dump(lines))
	}

	if opts.OptLevel > 0 {
		opt := peephole.New()
		opt.SetAggressiveMode(opts.OptLevel >= 2 || opts.AggressivePeephole)
		opt.Optimize(img.Code)
		res.PeepholeRemoved = opt.RemovedBytes()
		res.PeepholeOptimCount = opt.OptimizationCount()
	}

	var out []byte
	if opts.ObjectMode {
		out, err = img.WriteObject("main")
	} else {
		out, err = img.WritePE()
	}
	if err != nil {
		return res, fmt.Errorf("pipeline: write image: %w", err)
	}
	res.Bytes = out
	return res, nil
}
