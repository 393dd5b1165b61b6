// Package codegen lowers a type-checked internal/ast tree directly to
// x86-64 machine code and a PE64 image, mirroring
// original_source/src/backend/codegen/*.cpp's NativeCodeGen: one pass per
// function, a single accumulator register per value kind (RAX for
// integers/pointers, XMM0 for floats — the original's lastExprWasFloat_
// flag, modelled here as the currentValue field of type valueKind), and a
// two-phase layout
// (strings/imports registered before any instruction is emitted, so every
// RIP-relative reference can be resolved immediately rather than deferred)
// matching codegen_compile.cpp's compile() entry point.
package codegen

import (
	"fmt"

	"tylc/internal/ast"
	"tylc/internal/ctfe"
	"tylc/internal/diag"
	"tylc/internal/image"
	"tylc/internal/symtab"
	"tylc/internal/types"
	"tylc/internal/x64"
)

// valueKind tags which accumulator register the most recently generated
// expression's result lives in.
type valueKind uint8

const (
	valueInt valueKind = iota
	valueFloat
	valueVoid
)

// loopCtx is pushed per enclosing while/for loop so break/continue know
// which labels to jump to (original_source's codegen tracks an explicit
// loop-label stack for the same reason).
type loopCtx struct {
	breakLabel    string
	continueLabel string
}

// localVar is one function-local variable's stack slot and static type.
type localVar struct {
	offset int32
	typ    types.Type
}

// pendingGeneric is one requested-but-not-yet-emitted generic function
// instantiation, queued the first time a call site mentions it and
// drained after the main declaration pass — the same worklist shape
// cmd_local/compile/internal/noder uses for generic instantiation,
// applied here to this compiler's string-substitution monomorphisation
// instead of shape stenciling.
type pendingGeneric struct {
	mangledName string
	base        *ast.FnDecl
	typeArgs    []string
}

// Generator holds all state threaded through one whole-program lowering:
// the instruction encoder, the PE image builder being assembled, and the
// current function's locals/loop/label bookkeeping (reset per function).
type Generator struct {
	Registry *types.Registry
	Symbols  *symtab.Table
	Diags    *diag.List

	enc *x64.Encoder
	img *image.Builder

	fns        map[string]*ast.FnDecl // mangled name -> declaration, for call resolution
	typeParams map[string][]string    // mangled base name -> TypeParams, for pendingGeneric lookups
	emitted    map[string]bool
	pending    []pendingGeneric

	stringData map[string]uint32 // literal text -> data RVA, deduplicated
	winImports map[string]*image.Import

	stdoutHandleRVA uint32
	gcDataRVA       uint32

	ctfeInterp *ctfe.Interpreter // comptime functions, consulted first in genCallExpr's dispatch order

	// drops is the checker's per-block destructor-call list
	// (check.Checker.BlockDrops), wired in via SetDrops; nil until the
	// caller opts in, in which case genBlock emits no drop calls at all.
	drops map[*ast.BlockStmt][]string

	locals        map[string]*localVar
	nextLocalSlot int32
	currentFn     *ast.FnDecl
	currentValue  valueKind
	currentRet    types.Type
	loops         []loopCtx
	labelSeq      int

	// handlers is the stack of active `handle ... with {...}` scopes, innermost
	// last, consulted by genPerformExpr to find the case matching a perform
	// site's effect/op (spec.md §4.4's dynamic handler lookup).
	handlers []handlerFrame
}

// handlerFrame is one HandleExpr's case list, pushed while its Body is
// being lowered and popped afterward.
type handlerFrame struct {
	cases []ast.HandlerCase
}

// New constructs a Generator bound to the registry/symbol table a prior
// internal/check.Checker pass populated.
func New(reg *types.Registry, symbols *symtab.Table, diags *diag.List) *Generator {
	return &Generator{
		Registry:   reg,
		Symbols:    symbols,
		Diags:      diags,
		fns:        make(map[string]*ast.FnDecl),
		typeParams: make(map[string][]string),
		emitted:    make(map[string]bool),
		stringData: make(map[string]uint32),
		winImports: make(map[string]*image.Import),
		locals:     make(map[string]*localVar),
		ctfeInterp: ctfe.New(),
	}
}

// SetDrops wires in the per-block destructor list a prior internal/check
// pass computed (Checker.BlockDrops), so genBlock can emit real Drop
// calls at scope exit instead of silently skipping them.
func (g *Generator) SetDrops(d map[*ast.BlockStmt][]string) {
	g.drops = d
}

func (g *Generator) newLabel(prefix string) string {
	g.labelSeq++
	return fmt.Sprintf("%s_%d", prefix, g.labelSeq)
}

// Generate lowers f to a complete PE64 image builder: string/import layout
// first, then the entry stub, then every function body (draining generic
// instantiation requests as they're discovered), then the shared runtime
// routines (itoa/ftoa, GC collect) appended once, then fixup resolution.
func (g *Generator) Generate(f *ast.File) (*image.Builder, error) {
	g.enc = x64.New()
	g.img = image.NewBuilder()

	g.collectFnDecls(f)
	g.preScanStringLiterals(f)
	g.preScanWin32Imports()
	g.reserveRuntimeScratch()
	g.stdoutHandleRVA = g.img.AddData(make([]byte, 8))
	g.gcDataRVA = g.preScanGCData()
	g.img.FinalizeImports()

	g.emitEntryStub()

	for mangled, fn := range g.fns {
		if len(g.typeParams[mangled]) > 0 {
			continue // generic templates are only emitted on instantiation
		}
		g.genFnBody(mangled, fn)
	}
	for len(g.pending) > 0 {
		next := g.pending[0]
		g.pending = g.pending[1:]
		if g.emitted[next.mangledName] {
			continue
		}
		g.genGenericInstantiation(next)
	}

	g.emitRuntimeRoutines()
	g.emitGCRoutines()

	if err := g.enc.Resolve(image.CodeRVA); err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}
	g.img.Code = g.enc.Code
	return g.img, nil
}

// collectFnDecls flattens every callable FnDecl (top-level functions and
// trait-impl methods, mangled as Type_method) into g.fns so call sites can
// resolve a callee name to a declaration regardless of nesting.
func (g *Generator) collectFnDecls(f *ast.File) {
	for _, d := range f.Decls {
		switch n := d.(type) {
		case *ast.FnDecl:
			g.fns[n.Name] = n
			if len(n.TypeParams) > 0 {
				g.typeParams[n.Name] = n.TypeParams
			}
			if n.Comptime {
				g.ctfeInterp.RegisterComptimeFunction(n)
			}
		case *ast.ImplDecl:
			for _, m := range n.Methods {
				if m.Body == nil {
					continue
				}
				mangled := n.ForType + "_" + m.Name
				g.fns[mangled] = m
			}
		}
	}
}

// emitEntryStub is the PE image's AddressOfEntryPoint: call the program's
// main, then ExitProcess with its return value (defaulting to 0 when main
// returns void), matching codegen_compile.cpp's compile() tail.
func (g *Generator) emitEntryStub() {
	const stdOutputHandle = -11
	g.enc.MovRegImm64(x64.RCX, stdOutputHandle)
	g.enc.SubRspImm32(32)
	if imp, ok := g.winImports["kernel32.dll!GetStdHandle"]; ok {
		g.enc.CallMemRIP(imp.RVA)
	}
	g.enc.AddRspImm32(32)
	g.enc.LeaRegRIP(x64.RCX, g.stdoutHandleRVA)
	g.enc.MovMemReg(x64.RCX, 0, x64.RAX)

	g.enc.SubRspImm32(40) // 32-byte shadow space + 8 align
	g.enc.CallRel32("main")
	g.enc.AddRspImm32(40)
	g.enc.MovRegReg(x64.RCX, x64.RAX)
	g.enc.SubRspImm32(32)
	if imp, ok := g.winImports["kernel32.dll!ExitProcess"]; ok {
		g.enc.CallMemRIP(imp.RVA)
	}
	g.enc.Int3() // unreachable: ExitProcess does not return
}

// win32ImportSurface is the full set of imports codegen_compile.cpp's
// compile() registers unconditionally before any function body is
// generated — kept as one fixed list (rather than grown on demand)
// because the GC runtime, the print/itoa/ftoa builtins, and
// concurrency-primitive lowering all reach for members of it from
// deep inside per-function codegen, where a miss would mean re-running
// FinalizeImports after layout has already been committed.
var win32ImportSurface = []struct{ dll, name string }{
	{"kernel32.dll", "GetStdHandle"},
	{"kernel32.dll", "WriteConsoleA"},
	{"kernel32.dll", "ExitProcess"},
	{"kernel32.dll", "GetProcessHeap"},
	{"kernel32.dll", "HeapAlloc"},
	{"kernel32.dll", "HeapFree"},
	{"kernel32.dll", "GetComputerNameA"},
	{"kernel32.dll", "GetSystemInfo"},
	{"kernel32.dll", "Sleep"},
	{"kernel32.dll", "GetLocalTime"},
	{"kernel32.dll", "GetTickCount64"},
	{"kernel32.dll", "GetEnvironmentVariableA"},
	{"kernel32.dll", "SetEnvironmentVariableA"},
	{"kernel32.dll", "GetTempPathA"},
	{"kernel32.dll", "QueryPerformanceCounter"},
	{"kernel32.dll", "QueryPerformanceFrequency"},
	{"kernel32.dll", "CreateThread"},
	{"kernel32.dll", "WaitForSingleObject"},
	{"kernel32.dll", "GetExitCodeThread"},
	{"kernel32.dll", "CloseHandle"},
	{"kernel32.dll", "CreateMutexA"},
	{"kernel32.dll", "ReleaseMutex"},
	{"kernel32.dll", "CreateEventA"},
	{"kernel32.dll", "SetEvent"},
	{"kernel32.dll", "ResetEvent"},
	{"kernel32.dll", "CreateSemaphoreA"},
	{"kernel32.dll", "ReleaseSemaphore"},
	{"kernel32.dll", "InitializeSRWLock"},
	{"kernel32.dll", "AcquireSRWLockShared"},
	{"kernel32.dll", "AcquireSRWLockExclusive"},
	{"kernel32.dll", "ReleaseSRWLockShared"},
	{"kernel32.dll", "ReleaseSRWLockExclusive"},
	{"kernel32.dll", "InitializeConditionVariable"},
	{"kernel32.dll", "SleepConditionVariableSRW"},
	{"kernel32.dll", "WakeConditionVariable"},
	{"kernel32.dll", "WakeAllConditionVariable"},
	{"kernel32.dll", "CreateFileA"},
	{"kernel32.dll", "ReadFile"},
	{"kernel32.dll", "WriteFile"},
	{"kernel32.dll", "GetFileSize"},
	{"shell32.dll", "SHGetFolderPathA"},
	{"advapi32.dll", "GetUserNameA"},
}

func (g *Generator) preScanWin32Imports() {
	for _, imp := range win32ImportSurface {
		g.winImports[imp.dll+"!"+imp.name] = g.img.AddImport(imp.dll, imp.name)
	}
}

// preScanExternImport registers one user-declared `extern "DLL" fn` import,
// called from the ExternDecl declaration pass alongside the fixed surface.
func (g *Generator) preScanExternImport(n *ast.ExternDecl) {
	key := n.DLL + "!" + n.Name
	if _, ok := g.winImports[key]; ok {
		return
	}
	g.winImports[key] = g.img.AddImport(n.DLL, n.Name)
}

// preScanStringLiterals walks every function body (including impl
// methods) and interns each distinct string literal into the data
// section up front, so FixupRIP calls made while generating code can
// reference an already-known RVA.
func (g *Generator) preScanStringLiterals(f *ast.File) {
	visit := func(n ast.Node) bool {
		if lit, ok := n.(*ast.StringLit); ok {
			g.internString(lit.Value)
		}
		return true
	}
	for _, d := range f.Decls {
		switch n := d.(type) {
		case *ast.FnDecl:
			if n.Body != nil {
				ast.Walk(n.Body, visit)
			}
		case *ast.ImplDecl:
			for _, m := range n.Methods {
				if m.Body != nil {
					ast.Walk(m.Body, visit)
				}
			}
		case *ast.ExternDecl:
			g.preScanExternImport(n)
		}
	}
}

// internString returns data's RVA, appending a new nul-terminated copy to
// the data section the first time a given literal is seen.
func (g *Generator) internString(s string) uint32 {
	if rva, ok := g.stringData[s]; ok {
		return rva
	}
	rva := g.img.AddData(append([]byte(s), 0))
	g.stringData[s] = rva
	return rva
}
