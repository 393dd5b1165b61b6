// Command tylc is the whole-program native compiler's driver: it loads one
// already-parsed Program per input file and lowers it straight to a PE64
// executable or COFF object, the way cmd_local/asm's main.go loads one
// assembly file per argument and lowers it straight to an object file with
// no separate link step of its own.
//
// Lexing and parsing a `.tyl` source file into a Program is outside this
// compiler's scope (spec.md §6.1); this driver's input files instead hold a
// gob-encoded *ast.File, the standard library's own serialization format,
// so tylc can be exercised end-to-end without a front end living in this
// module.
package main

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"time"

	"tylc/internal/ast"
	"tylc/internal/pipeline"
	"tylc/internal/tylflag"
)

func init() {
	for _, n := range []interface{}{
		&ast.IntLit{}, &ast.FloatLit{}, &ast.BoolLit{}, &ast.StringLit{}, &ast.CharLit{}, &ast.NilLit{},
		&ast.Ident{}, &ast.BinaryExpr{}, &ast.UnaryExpr{}, &ast.CallExpr{}, &ast.SelectorExpr{},
		&ast.IndexExpr{}, &ast.CastExpr{}, &ast.BorrowExpr{}, &ast.DerefExpr{}, &ast.TernaryExpr{},
		&ast.ListExpr{}, &ast.RecordLitExpr{}, &ast.AssemblyExpr{}, &ast.PerformExpr{}, &ast.HandleExpr{},
		&ast.ExprStmt{}, &ast.AssignStmt{}, &ast.ReturnStmt{}, &ast.BreakStmt{}, &ast.ContinueStmt{},
		&ast.BlockStmt{}, &ast.IfStmt{}, &ast.WhileStmt{}, &ast.ForStmt{}, &ast.UnsafeStmt{},
		&ast.FnDecl{}, &ast.RecordDecl{}, &ast.TraitDecl{}, &ast.ImplDecl{}, &ast.EffectDecl{},
		&ast.TypeAliasDecl{}, &ast.ExternDecl{}, &ast.VarDecl{},
	} {
		gob.Register(n)
	}
}

func loadProgram(path string) (*ast.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var prog ast.File
	if err := gob.NewDecoder(f).Decode(&prog); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return &prog, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("tylc: ")

	tylflag.Parse()

	// This is a whole-program compiler (spec.md §1): one Program in, one
	// output image out, unlike cmd_local/asm's per-file object emission.
	if n := len(tylflag.InputFiles()); n > 1 {
		log.Printf("exactly one input file expected, got %d", n)
		os.Exit(2)
	}

	var timings []pipeline.PhaseTiming
	phase := func(name string, fn func()) {
		start := time.Now()
		fn()
		timings = append(timings, pipeline.PhaseTiming{Name: name, Nanos: int64(time.Since(start))})
	}

	opts := pipeline.Options{
		ObjectMode:         *tylflag.ObjectMode,
		OptLevel:           *tylflag.OptLevel,
		AggressivePeephole: *tylflag.AggressivePeephole,
	}
	if *tylflag.DumpAsm {
		opts.DumpAsm = func(s string) { fmt.Fprintln(os.Stderr, s) }
	}

	var res *pipeline.Result
	ok := true
	for _, path := range tylflag.InputFiles() {
		prog, err := loadProgram(path)
		if err != nil {
			log.Printf("%s: %v", path, err)
			ok = false
			break
		}
		var runErr error
		phase("compile:"+path, func() {
			res, runErr = pipeline.Run(prog, opts)
		})
		if runErr != nil {
			log.Print(runErr)
			ok = false
			break
		}
		if res.Diags.HasErrors() {
			fmt.Fprint(os.Stderr, res.Diags.String())
			ok = false
			break
		}
		for _, d := range res.Diags.Items() {
			if d.Level != 0 { // 0 is Error; warnings/notes still print on success
				fmt.Fprintln(os.Stderr, d.String())
			}
		}
	}

	if !ok {
		os.Exit(1)
	}

	if res == nil || res.Bytes == nil {
		log.Print("no input files produced output")
		os.Exit(1)
	}

	if err := os.WriteFile(*tylflag.Output, res.Bytes, 0o755); err != nil {
		log.Print(err)
		os.Exit(1)
	}

	if *tylflag.Profile != "" {
		pf, err := os.Create(*tylflag.Profile)
		if err != nil {
			log.Print(err)
			os.Exit(1)
		}
		defer pf.Close()
		if err := pipeline.WriteProfile(pf, timings); err != nil {
			log.Print(err)
			os.Exit(1)
		}
	}
}
